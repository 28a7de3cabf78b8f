package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DonovanMods/instance-launcher/internal/core"
	"github.com/DonovanMods/instance-launcher/internal/domain"

	"github.com/spf13/cobra"
)

var (
	launchUser   string
	launchDetach bool
)

var launchCmd = &cobra.Command{
	Use:   "launch <profile>",
	Short: "Launch a profile",
	Long: `Launch the game for a profile.

Pre-launch hooks run first, in order, inside the profile directory; if one
fails the game is not started. The java runtime is the profile's own, or the
global java 8 / java 17 runtime depending on what the game version needs.

ilm waits for the game to exit, runs the post-exit hooks and exits with the
game's exit code. Interrupting ilm kills the game. With --detach, ilm returns
as soon as the game has started; post-exit hooks are not run.

The player is the default stored account, or --user / $ILM_USERNAME. A user
without a stored account plays offline unless $ILM_ACCESS_TOKEN is set.

Examples:
  ilm launch "Example Pack"
  ilm launch ~/games/modded --user Alex
  ilm launch modded --detach`,
	Args: cobra.ExactArgs(1),
	RunE: runLaunch,
}

func init() {
	launchCmd.Flags().StringVarP(&launchUser, "user", "u", "", "player name (default: default account)")
	launchCmd.Flags().BoolVarP(&launchDetach, "detach", "d", false, "return once the game has started")

	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gameOutput = cmd.OutOrStdout()
	if launchDetach {
		gameOutput = nil
	}

	service, err := initService(ctx, gameOutput)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	p, err := findProfile(service, args[0])
	if err != nil {
		return err
	}

	creds, err := launchCredentials(ctx, service)
	if err != nil {
		return err
	}

	var opts []core.RunOption
	if noHooks {
		opts = append(opts, core.WithoutHooks())
	}
	if verbose {
		opts = append(opts, core.WithStateFunc(func(s core.LaunchState) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", colorYellow("→"), s)
		}))
	}

	launch, err := service.Launch(ctx, p.Path, creds, opts...)
	if err != nil {
		return fmt.Errorf("launching %s: %w", p.Metadata.Name, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s Started %s as %s (pid %d)\n", colorGreen("✓"), bold(p.Metadata.Name), creds.Username, launch.Process.PID())
	if launchDetach {
		return nil
	}

	err = launch.Wait(ctx)
	if ctx.Err() != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Interrupted, stopping the game...\n")
		err = launch.Kill(context.WithoutCancel(ctx))
	}
	if !noHooks {
		printHookWarnings(launch.Warnings())
	}

	if err != nil {
		return fmt.Errorf("%s: %w", p.Metadata.Name, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s exited\n", colorGreen("✓"), bold(p.Metadata.Name))
	return nil
}

// launchCredentials picks the player from --user, $ILM_USERNAME or the default account
func launchCredentials(ctx context.Context, service *core.Service) (domain.Credentials, error) {
	envCfg, err := loadEnv()
	if err != nil {
		return domain.Credentials{}, err
	}

	username := firstNonEmpty(launchUser, envCfg.Username)
	creds, err := service.Credentials(ctx, username)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.Credentials{}, fmt.Errorf("no account to launch with; add one with 'ilm account add <name>' or pass --user")
	}
	if err != nil {
		return domain.Credentials{}, err
	}

	if envCfg.AccessToken != "" {
		creds.AccessToken = envCfg.AccessToken
	}
	return creds, nil
}
