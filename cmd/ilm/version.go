package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/DonovanMods/instance-launcher/internal/domain"

	"github.com/spf13/cobra"
)

var (
	versionJavaMajor int
	versionComponent string
	versionMainClass string
	versionClasspath []string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Manage known game versions",
	Long: `Manage the game versions ilm knows how to launch.

A version record names the java version the game needs, its main class and
its classpath. Profiles can only be launched for known versions.`,
}

var versionAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add or update a game version",
	Long: `Add or update a game version.

Classpath entries are relative to the profile directory unless absolute.

Examples:
  ilm version add 1.18.2 --java 17 --main-class net.minecraft.client.main.Main \
    --classpath versions/1.18.2/1.18.2.jar --classpath libraries/lwjgl.jar
  ilm version add 1.12.2 --main-class net.minecraft.client.main.Main`,
	Args: cobra.ExactArgs(1),
	RunE: runVersionAdd,
}

var versionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known game versions",
	Args:  cobra.NoArgs,
	RunE:  runVersionList,
}

var versionRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a game version",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionRemove,
}

func init() {
	versionAddCmd.Flags().IntVar(&versionJavaMajor, "java", 0, "required java major version (default: none declared, uses java 8)")
	versionAddCmd.Flags().StringVar(&versionComponent, "java-component", "", "java runtime component name")
	versionAddCmd.Flags().StringVar(&versionMainClass, "main-class", "", "main class to run")
	versionAddCmd.Flags().StringArrayVar(&versionClasspath, "classpath", nil, "classpath entry (repeatable)")

	versionCmd.AddCommand(versionAddCmd)
	versionCmd.AddCommand(versionListCmd)
	versionCmd.AddCommand(versionRemoveCmd)

	rootCmd.AddCommand(versionCmd)
}

func runVersionAdd(cmd *cobra.Command, args []string) error {
	if versionJavaMajor < 0 {
		return fmt.Errorf("%w: java version must not be negative", domain.ErrInput)
	}

	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	info := &domain.VersionInfo{
		ID:        args[0],
		MainClass: versionMainClass,
		Classpath: versionClasspath,
	}
	if versionJavaMajor > 0 {
		info.JavaVersion = &domain.JavaVersion{Component: versionComponent, MajorVersion: versionJavaMajor}
	}

	if err := service.DB().SaveVersion(ctx, info); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Version %s saved (java %d)\n", colorGreen("✓"), info.ID, info.RequiredJavaMajor())
	return nil
}

type versionJSON struct {
	ID        string   `json:"id"`
	JavaMajor int      `json:"java_major"`
	MainClass string   `json:"main_class,omitempty"`
	Classpath []string `json:"classpath,omitempty"`
}

func runVersionList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	versions, err := service.DB().ListVersions(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		views := make([]versionJSON, 0, len(versions))
		for _, v := range versions {
			views = append(views, versionJSON{ID: v.ID, JavaMajor: v.RequiredJavaMajor(), MainClass: v.MainClass, Classpath: v.Classpath})
		}
		return printJSON(out, views)
	}

	if len(versions) == 0 {
		fmt.Fprintln(out, "No versions known. Add one with 'ilm version add <id>'.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tJAVA\tMAIN CLASS\tCLASSPATH")
	fmt.Fprintln(w, "--\t----\t----------\t---------")
	for _, v := range versions {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d entries\n", v.ID, v.RequiredJavaMajor(), v.MainClass, len(v.Classpath))
	}
	return w.Flush()
}

func runVersionRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	if err := service.DB().DeleteVersion(ctx, args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Version %s removed\n", colorGreen("✓"), args[0])
	return nil
}
