package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/DonovanMods/instance-launcher/internal/core"
	"github.com/DonovanMods/instance-launcher/internal/domain"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	accountUUID    string
	accountToken   string
	accountOffline bool
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage player accounts",
	Long: `Manage the player accounts games are launched with.

The first account added becomes the default.`,
}

var accountAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add or update an account",
	Long: `Add or update a player account.

The access token is read from --token, then $ILM_ACCESS_TOKEN, then prompted
for when attached to a terminal. With --offline the account gets the offline
player UUID for its name and no token.

Examples:
  ilm account add Alex --uuid 069a79f4-44e9-4726-a5be-fca90e38aaf5
  ilm account add Steve --offline`,
	Args: cobra.ExactArgs(1),
	RunE: runAccountAdd,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE:  runAccountList,
}

var accountRemoveCmd = &cobra.Command{
	Use:   "remove <username>",
	Short: "Remove an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountRemove,
}

var accountDefaultCmd = &cobra.Command{
	Use:   "default <username>",
	Short: "Set the default account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountDefault,
}

func init() {
	accountAddCmd.Flags().StringVar(&accountUUID, "uuid", "", "player UUID")
	accountAddCmd.Flags().StringVar(&accountToken, "token", "", "access token (prefer $ILM_ACCESS_TOKEN)")
	accountAddCmd.Flags().BoolVar(&accountOffline, "offline", false, "store an offline account")

	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountRemoveCmd)
	accountCmd.AddCommand(accountDefaultCmd)

	rootCmd.AddCommand(accountCmd)
}

func runAccountAdd(cmd *cobra.Command, args []string) error {
	username := args[0]
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: empty username", domain.ErrInput)
	}

	var creds domain.Credentials
	if accountOffline {
		creds = core.OfflineCredentials(username)
	} else {
		if accountUUID == "" {
			return fmt.Errorf("%w: --uuid is required unless --offline is set", domain.ErrInput)
		}
		id, err := uuid.Parse(accountUUID)
		if err != nil {
			return fmt.Errorf("%w: invalid --uuid: %w", domain.ErrInput, err)
		}

		token, err := accessToken(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		creds = domain.Credentials{Username: username, ID: id.String(), AccessToken: token}
	}

	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	if err := service.DB().SaveAccount(ctx, creds); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Account %s saved (%s)\n", colorGreen("✓"), username, creds.ID)
	return nil
}

// accessToken reads the token from --token, the environment, or a prompt
func accessToken(in io.Reader, prompt io.Writer) (string, error) {
	if accountToken != "" {
		return accountToken, nil
	}

	envCfg, err := loadEnv()
	if err != nil {
		return "", err
	}
	if envCfg.AccessToken != "" {
		return envCfg.AccessToken, nil
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Access token: ")
		token, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(token)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", fmt.Errorf("%w: no access token given", domain.ErrInput)
	}
	return token, nil
}

type accountJSON struct {
	Username  string `json:"username"`
	UUID      string `json:"uuid"`
	IsDefault bool   `json:"default"`
}

func runAccountList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	accounts, err := service.DB().ListAccounts(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		views := make([]accountJSON, 0, len(accounts))
		for _, a := range accounts {
			views = append(views, accountJSON{Username: a.Username, UUID: a.ID, IsDefault: a.IsDefault})
		}
		return printJSON(out, views)
	}

	if len(accounts) == 0 {
		fmt.Fprintln(out, "No accounts. Add one with 'ilm account add <username>'.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tUUID\tDEFAULT")
	fmt.Fprintln(w, "--------\t----\t-------")
	for _, a := range accounts {
		def := ""
		if a.IsDefault {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Username, a.ID, def)
	}
	return w.Flush()
}

func runAccountRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	if err := service.DB().DeleteAccount(ctx, args[0]); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Account %s removed\n", colorGreen("✓"), args[0])
	return nil
}

func runAccountDefault(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, err := initService(ctx, nil)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	if err := service.DB().SetDefaultAccount(ctx, args[0]); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now the default account\n", colorGreen("✓"), args[0])
	return nil
}
