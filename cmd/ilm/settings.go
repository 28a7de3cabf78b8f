package main

import (
	"fmt"
	"strings"

	"github.com/DonovanMods/instance-launcher/internal/domain"
	"github.com/DonovanMods/instance-launcher/internal/storage/config"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change global settings",
	Long: `Show or change the global settings in settings.yaml.

Global settings apply to every profile that does not override them.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show global settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetJavaCmd = &cobra.Command{
	Use:   "set-java <8|17> <path>",
	Short: "Set a global java runtime",
	Long: `Set the java runtime used for game versions that need it.

Versions requiring java 16 or newer use the java 17 runtime; all others use
the java 8 runtime.

Examples:
  ilm settings set-java 8 /usr/lib/jvm/java-8-openjdk/bin/java
  ilm settings set-java 17 ~/.jdks/temurin-17/bin/java`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSetJava,
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace global settings from a YAML file",
	Long: `Replace the global settings with those in another settings file.

The list of known profiles is kept; everything else comes from the file.

Examples:
  ilm settings import /srv/shared/ilm-settings.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsImport,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetJavaCmd)
	settingsCmd.AddCommand(settingsImportCmd)

	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	s, err := service.Settings().Get(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	notSet := func(v string) string {
		if v == "" {
			return colorYellow("(not set)")
		}
		return v
	}

	fmt.Fprintf(out, "%s %s\n", bold("Settings:"), service.Settings().ConfigDir())
	fmt.Fprintf(out, "  Java 8:      %s\n", notSet(s.Java8Path))
	fmt.Fprintf(out, "  Java 17:     %s\n", notSet(s.Java17Path))
	fmt.Fprintf(out, "  Java args:   %s\n", strings.Join(s.CustomJavaArgs, " "))
	memory := fmt.Sprintf("max %d MB", s.Memory.Maximum)
	if s.Memory.Minimum != nil {
		memory = fmt.Sprintf("min %d MB, %s", *s.Memory.Minimum, memory)
	}
	fmt.Fprintf(out, "  Memory:      %s\n", memory)
	fmt.Fprintf(out, "  Resolution:  %dx%d\n", s.GameResolution.Width, s.GameResolution.Height)
	if s.HookTimeout > 0 {
		fmt.Fprintf(out, "  Hook timeout: %ds\n", s.HookTimeout)
	}
	for _, h := range s.Hooks.PreLaunch {
		fmt.Fprintf(out, "  Pre-launch:  %s\n", h)
	}
	if s.Hooks.Wrapper != "" {
		fmt.Fprintf(out, "  Wrapper:     %s\n", s.Hooks.Wrapper)
	}
	for _, h := range s.Hooks.PostExit {
		fmt.Fprintf(out, "  Post-exit:   %s\n", h)
	}
	fmt.Fprintf(out, "  Profiles:    %d\n", len(s.Profiles))
	return nil
}

func runSettingsSetJava(cmd *cobra.Command, args []string) error {
	tier, path := args[0], config.ExpandPath(args[1])
	if tier != "8" && tier != "17" {
		return fmt.Errorf("%w: java runtime must be 8 or 17, got %q", domain.ErrInput, tier)
	}

	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	err = service.Settings().Update(func(s *domain.Settings) error {
		if tier == "8" {
			s.Java8Path = path
		} else {
			s.Java17Path = path
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := service.Settings().Save(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Java %s runtime set to %s\n", colorGreen("✓"), tier, path)
	return nil
}

func runSettingsImport(cmd *cobra.Command, args []string) error {
	path, err := config.ParseSettingsPath(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInput, err)
	}
	imported, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	err = service.Settings().Update(func(s *domain.Settings) error {
		profiles := s.Profiles
		*s = *imported
		s.Profiles = profiles
		return nil
	})
	if err != nil {
		return err
	}
	if err := service.Settings().Save(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Settings imported from %s\n", colorGreen("✓"), path)
	return nil
}
