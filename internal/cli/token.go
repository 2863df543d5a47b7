package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/safecheck/internal/chain/eth/rpc"
	"github.com/mrz1836/safecheck/internal/config"
	"github.com/mrz1836/safecheck/internal/output"
	"github.com/mrz1836/safecheck/internal/tokenstore"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// Token sources reported by "token show".
const (
	tokenSourceEnv   = "env"
	tokenSourceStore = "store"
	tokenSourceNone  = "none"
)

// tokenCmd is the parent command for auth token operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the RPC auth token",
	Long: `Store, show or remove the auth token appended to chain RPC URLs.

Chains whose public RPC needs an API key (for example Infura endpoints) cannot
report chain state without a token. The token is kept in the backend chosen by
token.backend: a 0600 file in the safecheck home, or the OS keyring.
` + "SAFECHECK_AUTH_TOKEN overrides the stored token.",
}

// tokenSetCmd stores the auth token.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store the RPC auth token",
	Long: `Store the RPC auth token.

Without an argument the token is read from a hidden prompt, or from stdin
when stdin is not a terminal.`,
	Example: `  safecheck token set
  echo "$INFURA_KEY" | safecheck token set`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokenSet,
}

// tokenShowCmd shows the masked auth token.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the masked RPC auth token",
	Long: `Show where the RPC auth token comes from and its first characters.

An environment override takes precedence over the stored token.`,
	Example: `  safecheck token show
  safecheck token show -o json`,
	Args:  cobra.NoArgs,
	RunE:  runTokenShow,
}

// tokenClearCmd removes the stored auth token.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored RPC auth token",
	Long: `Remove the RPC auth token from the configured backend.

Chains that need an API key will report a missing token until a new one is set.`,
	Example: `  safecheck token clear
  safecheck token clear --yes`,
	Args:  cobra.NoArgs,
	RunE:  runTokenClear,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var tokenClearYes bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.GroupID = groupConfig
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenShowCmd)
	tokenCmd.AddCommand(tokenClearCmd)

	tokenClearCmd.Flags().BoolVarP(&tokenClearYes, "yes", "y", false, "do not ask for confirmation")

	enrichParentLong(tokenCmd)
}

// TokenShowResponse is the JSON shape of "token show".
type TokenShowResponse struct {
	Backend string `json:"backend"`
	Source  string `json:"source"`
	Token   string `json:"token,omitempty"`
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		var err error
		token, err = promptSecretFn("Enter RPC auth token: ", cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	token = config.SanitizeToken(token)
	if token == "" {
		return checkerr.WithSuggestion(checkerr.ErrInvalidInput, "the token is empty; use 'safecheck token clear' to remove it")
	}

	store, err := cc.TokenStore()
	if err != nil {
		return err
	}
	if err := tokenstore.SaveToken(store, token); err != nil {
		return err
	}
	cc.Log.Debug("auth token stored in %s backend", tokenstore.Backend(store))

	return output.FormatSuccess(cmd.OutOrStdout(), "auth token saved: "+rpc.MaskToken(token), cc.Fmt.Format())
}

func runTokenShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	resp := TokenShowResponse{Backend: cc.Cfg.Token.Backend, Source: tokenSourceNone}
	switch {
	case cc.Cfg.AuthToken != "":
		resp.Source = tokenSourceEnv
		resp.Token = rpc.MaskToken(cc.Cfg.AuthToken)
	default:
		store, err := cc.TokenStore()
		if err != nil {
			return err
		}
		resp.Backend = tokenstore.Backend(store)
		token, err := tokenstore.LoadToken(store)
		if err != nil {
			return err
		}
		if token != "" {
			resp.Source = tokenSourceStore
			resp.Token = rpc.MaskToken(token)
		}
	}

	return renderDoc(cmd, resp, func(w io.Writer) error {
		out(w, "Backend: %s\n", resp.Backend)
		out(w, "Source:  %s\n", resp.Source)
		if resp.Token == "" {
			outln(w, "Token:   (not set)")
		} else {
			out(w, "Token:   %s\n", resp.Token)
		}
		return nil
	})
}

func runTokenClear(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	if !tokenClearYes && !cc.Fmt.IsJSON() && !promptConfirmFn("Remove the stored RPC auth token?", cmd.InOrStdin()) {
		output.Info(cmd.OutOrStdout(), "aborted")
		return nil
	}

	store, err := cc.TokenStore()
	if err != nil {
		return err
	}
	if err := tokenstore.SaveToken(store, ""); err != nil {
		return err
	}

	return output.FormatSuccess(cmd.OutOrStdout(), "auth token cleared", cc.Fmt.Format())
}
