package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/DonovanMods/instance-launcher/internal/core"
	"github.com/DonovanMods/instance-launcher/internal/domain"

	"github.com/spf13/cobra"
)

var (
	profileCreateVersion string
	profileCreateDir     string
	profileRemovePurge   bool

	profileSetName          string
	profileSetVersion       string
	profileSetLoader        string
	profileSetLoaderVersion string
	profileSetJava          string
	profileSetJavaArgs      []string
	profileSetMemoryMin     uint32
	profileSetMemoryMax     uint32
	profileSetWidth         uint16
	profileSetHeight        uint16
	profileSetPreLaunch     []string
	profileSetWrapper       string
	profileSetPostExit      []string
	profileSetClear         []string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage instance profiles",
	Long: `Manage instance profiles.

A profile is a directory holding one game instance. Its settings live in
profile.json inside that directory; anything a profile does not set falls
back to the global settings.

Profiles can be referred to by directory or by name.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Long: `Create a new vanilla profile.

The profile directory defaults to <data dir>/profiles/<name>.

Examples:
  ilm profile create "Example Pack" --version 1.18.2
  ilm profile create modded --version 1.16.5 --dir ~/games/modded`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileCreate,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <profile>",
	Short: "Show a profile and its effective settings",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <profile>",
	Short: "Forget a profile",
	Long: `Forget a profile.

The profile directory and its files are left on disk.
With --purge, the profile's launch history and logs are deleted too.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileRemove,
}

var profileImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Add an existing profile directory",
	Long: `Add a directory that already contains a profile.json.

Examples:
  ilm profile import ~/games/shared-pack`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileImport,
}

var profileSetIconCmd = &cobra.Command{
	Use:   "set-icon <profile> <image>",
	Short: "Set a profile's icon",
	Long: `Copy an image into the profile directory and use it as the icon.

Supported formats: ` + strings.Join(domain.SupportedIconFormats, ", "),
	Args: cobra.ExactArgs(2),
	RunE: runProfileSetIcon,
}

var profileSetCmd = &cobra.Command{
	Use:   "set <profile>",
	Short: "Change profile settings",
	Long: `Change profile settings. Only the given flags are changed.

Setting any hook flag replaces the profile's whole hook set; setting a memory
flag replaces the whole memory setting. Use --clear to drop an override and
fall back to the global settings again.

Examples:
  ilm profile set modded --memory-max 6144 --width 1920 --height 1080
  ilm profile set modded --loader fabric --loader-version 0.14.9
  ilm profile set modded --pre-launch "./sync-mods.sh" --wrapper gamemoderun
  ilm profile set modded --clear hooks --clear java`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileSet,
}

func init() {
	profileCreateCmd.Flags().StringVar(&profileCreateVersion, "version", "", "game version (required)")
	profileCreateCmd.Flags().StringVar(&profileCreateDir, "dir", "", "profile directory")
	_ = profileCreateCmd.MarkFlagRequired("version")

	profileRemoveCmd.Flags().BoolVar(&profileRemovePurge, "purge", false, "also delete launch history and logs")

	f := profileSetCmd.Flags()
	f.StringVar(&profileSetName, "name", "", "display name")
	f.StringVar(&profileSetVersion, "version", "", "game version")
	f.StringVar(&profileSetLoader, "loader", "", "mod loader (vanilla, forge, fabric)")
	f.StringVar(&profileSetLoaderVersion, "loader-version", "", "mod loader version")
	f.StringVar(&profileSetJava, "java", "", "java executable for this profile")
	f.StringSliceVar(&profileSetJavaArgs, "java-args", nil, "extra java arguments")
	f.Uint32Var(&profileSetMemoryMin, "memory-min", 0, "minimum heap in MB")
	f.Uint32Var(&profileSetMemoryMax, "memory-max", 0, "maximum heap in MB")
	f.Uint16Var(&profileSetWidth, "width", 0, "window width")
	f.Uint16Var(&profileSetHeight, "height", 0, "window height")
	f.StringArrayVar(&profileSetPreLaunch, "pre-launch", nil, "pre-launch hook command (repeatable)")
	f.StringVar(&profileSetWrapper, "wrapper", "", "wrapper command for the game")
	f.StringArrayVar(&profileSetPostExit, "post-exit", nil, "post-exit hook command (repeatable)")
	f.StringSliceVar(&profileSetClear, "clear", nil, "overrides to clear: java, memory, resolution, hooks")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileImportCmd)
	profileCmd.AddCommand(profileSetIconCmd)
	profileCmd.AddCommand(profileSetCmd)

	rootCmd.AddCommand(profileCmd)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	profiles := service.Profiles().Snapshot()
	out := cmd.OutOrStdout()

	if jsonOutput {
		settings, err := service.Settings().Get(ctx)
		if err != nil {
			return err
		}
		views := make([]profileJSON, 0, len(profiles))
		for _, p := range profiles {
			views = append(views, newProfileJSON(p, settings))
		}
		return printJSON(out, views)
	}

	if len(profiles) == 0 {
		fmt.Fprintln(out, "No profiles found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tLOADER\tPATH")
	fmt.Fprintln(w, "----\t-------\t------\t----")
	for _, p := range profiles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Metadata.Name, p.Metadata.GameVersion, p.Metadata.Loader, p.Path)
	}
	return w.Flush()
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := domain.ValidateName(name); err != nil {
		return err
	}

	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	dir := profileCreateDir
	if dir == "" {
		dir = filepath.Join(service.DataDir(), "profiles", strings.TrimSpace(name))
	}

	p, err := service.CreateProfile(ctx, name, profileCreateVersion, dir)
	if err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	if err := service.Save(ctx); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Created profile %s at %s\n", colorGreen("✓"), bold(p.Metadata.Name), p.Path)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	p, err := findProfile(service, args[0])
	if err != nil {
		return err
	}
	settings, err := service.Settings().Get(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, newProfileJSON(p, settings))
	}

	eff := core.Resolve(p, settings)
	inherited := func(set bool) string {
		if set {
			return ""
		}
		return " (global)"
	}

	fmt.Fprintf(out, "%s\n", bold(p.Metadata.Name))
	fmt.Fprintf(out, "  Path:        %s\n", p.Path)
	fmt.Fprintf(out, "  Version:     %s\n", p.Metadata.GameVersion)
	loader := p.Metadata.Loader.String()
	if p.Metadata.LoaderVersion != nil {
		loader += " " + p.Metadata.LoaderVersion.ID
	}
	fmt.Fprintf(out, "  Loader:      %s\n", loader)
	if p.Metadata.Icon != "" {
		fmt.Fprintf(out, "  Icon:        %s\n", p.Metadata.Icon)
	}

	java := eff.JavaInstall
	if java == "" {
		java = "by version"
	}
	fmt.Fprintf(out, "  Java:        %s%s\n", java, inherited(p.Java != nil && p.Java.Install != ""))
	fmt.Fprintf(out, "  Java args:   %s%s\n", strings.Join(eff.JavaArgs, " "), inherited(p.Java != nil && p.Java.ExtraArguments != nil))

	memory := fmt.Sprintf("max %d MB", eff.Memory.Maximum)
	if eff.Memory.Minimum != nil {
		memory = fmt.Sprintf("min %d MB, %s", *eff.Memory.Minimum, memory)
	}
	fmt.Fprintf(out, "  Memory:      %s%s\n", memory, inherited(p.Memory != nil))
	fmt.Fprintf(out, "  Resolution:  %dx%d%s\n", eff.Resolution.Width, eff.Resolution.Height, inherited(p.Resolution != nil))

	fmt.Fprintf(out, "  Hooks:%s\n", inherited(p.Hooks != nil))
	for _, h := range eff.Hooks.PreLaunch {
		fmt.Fprintf(out, "    pre-launch: %s\n", h)
	}
	if eff.Hooks.Wrapper != "" {
		fmt.Fprintf(out, "    wrapper:    %s\n", eff.Hooks.Wrapper)
	}
	for _, h := range eff.Hooks.PostExit {
		fmt.Fprintf(out, "    post-exit:  %s\n", h)
	}
	return nil
}

func runProfileRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	p, err := findProfile(service, args[0])
	if err != nil {
		return err
	}
	if _, err := service.RemoveProfile(ctx, p.Path, profileRemovePurge); err != nil {
		return fmt.Errorf("removing profile: %w", err)
	}
	if err := service.Save(ctx); err != nil {
		return fmt.Errorf("saving profiles: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Removed profile %s (files left in %s)\n", colorGreen("✓"), bold(p.Metadata.Name), p.Path)
	return nil
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	p, err := service.ImportProfile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("importing profile: %w", err)
	}
	if err := service.Save(ctx); err != nil {
		return fmt.Errorf("saving profiles: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Imported profile %s from %s\n", colorGreen("✓"), bold(p.Metadata.Name), p.Path)
	return nil
}

func runProfileSetIcon(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	p, err := findProfile(service, args[0])
	if err != nil {
		return err
	}
	p, err = service.UpdateProfile(p.Path, func(p *domain.Profile) error {
		return p.SetIcon(args[1])
	})
	if err != nil {
		return fmt.Errorf("setting icon: %w", err)
	}
	if err := service.Save(ctx); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Icon of %s set to %s\n", colorGreen("✓"), bold(p.Metadata.Name), p.Metadata.Icon)
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	p, err := findProfile(service, args[0])
	if err != nil {
		return err
	}

	p, err = service.UpdateProfile(p.Path, func(p *domain.Profile) error {
		return applyProfileFlags(cmd, p)
	})
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if err := service.Save(ctx); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Updated profile %s\n", colorGreen("✓"), bold(p.Metadata.Name))
	return nil
}

// applyProfileFlags applies the flags given to 'profile set'
func applyProfileFlags(cmd *cobra.Command, p *domain.Profile) error {
	flags := cmd.Flags()

	for _, c := range profileSetClear {
		switch c {
		case "java":
			p.SetJava(nil)
		case "memory":
			p.SetMemory(nil)
		case "resolution":
			p.SetResolution(nil)
		case "hooks":
			p.SetHooks(nil)
		default:
			return fmt.Errorf("%w: cannot clear %q; use java, memory, resolution or hooks", domain.ErrInput, c)
		}
	}

	if flags.Changed("name") {
		if err := p.SetName(profileSetName); err != nil {
			return err
		}
	}
	if flags.Changed("version") {
		p.SetGameVersion(profileSetVersion)
	}
	if flags.Changed("loader") || flags.Changed("loader-version") {
		loader := p.Metadata.Loader
		if flags.Changed("loader") {
			var err error
			if loader, err = domain.ParseModLoader(profileSetLoader); err != nil {
				return err
			}
		}
		var lv *domain.LoaderVersion
		if profileSetLoaderVersion != "" && loader != domain.LoaderVanilla {
			lv = &domain.LoaderVersion{ID: profileSetLoaderVersion, Stable: true}
		}
		p.SetLoader(loader, lv)
	}

	if flags.Changed("java") || flags.Changed("java-args") {
		java := domain.JavaSettings{}
		if p.Java != nil {
			java = *p.Java
		}
		if flags.Changed("java") {
			java.Install = profileSetJava
		}
		if flags.Changed("java-args") {
			java.ExtraArguments = profileSetJavaArgs
		}
		p.SetJava(&java)
	}

	if flags.Changed("memory-min") || flags.Changed("memory-max") {
		mem := domain.DefaultMemory()
		if p.Memory != nil {
			mem = *p.Memory
		}
		if flags.Changed("memory-min") {
			minimum := profileSetMemoryMin
			mem.Minimum = &minimum
		}
		if flags.Changed("memory-max") {
			mem.Maximum = profileSetMemoryMax
		}
		if mem.Maximum == 0 {
			return fmt.Errorf("%w: maximum memory must be positive", domain.ErrInput)
		}
		if mem.Minimum != nil && *mem.Minimum > mem.Maximum {
			return fmt.Errorf("%w: minimum memory %d MB exceeds maximum %d MB", domain.ErrInput, *mem.Minimum, mem.Maximum)
		}
		p.SetMemory(&mem)
	}

	if flags.Changed("width") || flags.Changed("height") {
		size := domain.DefaultResolution()
		if p.Resolution != nil {
			size = *p.Resolution
		}
		if flags.Changed("width") {
			size.Width = profileSetWidth
		}
		if flags.Changed("height") {
			size.Height = profileSetHeight
		}
		p.SetResolution(&size)
	}

	if flags.Changed("pre-launch") || flags.Changed("wrapper") || flags.Changed("post-exit") {
		hooks := domain.Hooks{}
		if p.Hooks != nil {
			hooks = *p.Hooks
		}
		if flags.Changed("pre-launch") {
			hooks.PreLaunch = profileSetPreLaunch
		}
		if flags.Changed("wrapper") {
			hooks.Wrapper = profileSetWrapper
		}
		if flags.Changed("post-exit") {
			hooks.PostExit = profileSetPostExit
		}
		p.SetHooks(&hooks)
	}

	return nil
}
