package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/mrz1836/safecheck/internal/chain/eth/rpc"
	"github.com/mrz1836/safecheck/internal/config"
	"github.com/mrz1836/safecheck/internal/output"
	"github.com/mrz1836/safecheck/internal/service/check"
	"github.com/mrz1836/safecheck/internal/tokenstore"
)

const (
	interactivePrompt = "safecheck> "
	historyFile       = "history"
)

// interactiveHelp lists the commands understood by the interactive session.
const interactiveHelp = `Commands:
  <account>         check an account (<network>:0x..., e.g. eth:0x...)
  (empty line)      reload the last account
  :reload           reload the last account
  :token <value>    set and store the RPC auth token
  :token clear      remove the stored RPC auth token
  :token            show the masked RPC auth token
  :status           print every node's status
  :help             show this help
  :quit             leave the session`

// interactiveCmd runs an interactive check session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i", "shell"},
	Short:   "Check accounts interactively",
	Long: `Start an interactive session that keeps one check open.

Type an account to check it. Every node transition is printed as it happens.
An empty line reloads the last account, and ":token <value>" swaps the RPC
auth token, which only re-runs the chain state lookup.

` + interactiveHelp,
	Example: `  safecheck interactive
  safecheck i -o json`,
	Args: cobra.NoArgs,
	RunE: runInteractive,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(interactiveCmd)
	interactiveCmd.GroupID = groupCheck
}

// lineReader reads one line of user input per call.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// scanReader reads lines from a non-terminal input such as a pipe.
type scanReader struct {
	scanner *bufio.Scanner
}

func (s *scanReader) Prompt(_ string) (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

func (s *scanReader) Close() error {
	return nil
}

// linerReader reads lines from a terminal with editing and history.
type linerReader struct {
	state       *liner.State
	historyPath string
}

func newLinerReader(historyPath string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	// #nosec G304 -- history path is inside the safecheck home
	if f, err := os.Open(historyPath); err == nil {
		_, _ = state.ReadHistory(f)
		_ = f.Close()
	}
	return &linerReader{state: state, historyPath: historyPath}
}

func (l *linerReader) Prompt(prompt string) (string, error) {
	line, err := l.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	// Tokens never go into history.
	if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, ":token") {
		l.state.AppendHistory(trimmed)
	}
	return line, nil
}

func (l *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(l.historyPath), 0o750); err == nil {
		// #nosec G304 -- history path is inside the safecheck home
		if f, err := os.OpenFile(l.historyPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600); err == nil {
			_, _ = l.state.WriteHistory(f)
			_ = f.Close()
		}
	}
	return l.state.Close()
}

// newLineReader picks a line editor for terminals and a plain scanner
// otherwise.
func newLineReader(cmd *cobra.Command, home string) lineReader {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && output.IsTerminal(f) && output.IsTerminal(cmd.OutOrStdout()) {
		historyPath := filepath.Join(home, historyFile)
		if expanded, err := config.ExpandHome(historyPath); err == nil {
			historyPath = expanded
		}
		return newLinerReader(historyPath)
	}
	return &scanReader{scanner: bufio.NewScanner(in)}
}

// session is one interactive check session.
type session struct {
	ctx    context.Context
	cc     *CommandContext
	runner *check.Runner
	w      io.Writer
	token  string
	input  string
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	token, err := cc.ResolveToken("")
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, 0)
	defer cancel()

	runner, err := cc.NewRunner(ctx, token)
	if err != nil {
		return err
	}

	s := &session{ctx: ctx, cc: cc, runner: runner, w: cmd.OutOrStdout(), token: token}
	unsubscribe := runner.Subscribe(func(ns check.NodeStatus) {
		_ = output.RenderEvent(s.w, ns, cc.Fmt.Format(), cc.Fmt.Color())
	})
	defer unsubscribe()

	reader := newLineReader(cmd, cc.Cfg.Home)
	defer func() { _ = reader.Close() }()

	if !cc.Fmt.IsJSON() {
		outln(s.w, "Type an account to check it, :help for commands, :quit to leave.")
	}

	for {
		line, err := reader.Prompt(interactivePrompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		done, err := s.handle(strings.TrimSpace(line))
		if err != nil {
			formatErr(err)
		}
		if done {
			return nil
		}
	}
}

// handle runs one input line. It reports whether the session should end.
func (s *session) handle(line string) (bool, error) {
	switch {
	case line == ":quit" || line == ":q" || line == ":exit":
		return true, nil
	case line == ":help":
		outln(s.w, interactiveHelp)
		return false, nil
	case line == ":status":
		return false, s.renderStatus()
	case line == "" || line == ":reload":
		if s.input == "" {
			output.Info(s.w, "nothing to reload yet; type an account first")
			return false, nil
		}
		s.runner.Reload()
		return false, s.wait()
	case line == ":token" || strings.HasPrefix(line, ":token "):
		return false, s.handleToken(strings.TrimSpace(strings.TrimPrefix(line, ":token")))
	case strings.HasPrefix(line, ":"):
		output.Warnf(s.w, "unknown command %q; try :help", line)
		return false, nil
	default:
		s.input = line
		s.runner.Submit(line)
		return false, s.wait()
	}
}

// handleToken shows, clears or replaces the auth token.
func (s *session) handleToken(arg string) error {
	switch arg {
	case "":
		if s.token == "" {
			output.Info(s.w, "no auth token set")
		} else {
			output.Infof(s.w, "auth token: %s", rpc.MaskToken(s.token))
		}
		return nil
	case "clear":
		arg = ""
	}

	store, err := s.cc.TokenStore()
	if err != nil {
		return err
	}
	if err := tokenstore.SaveToken(store, arg); err != nil {
		return err
	}

	s.token = arg
	s.runner.SetAuthToken(arg)
	if arg == "" {
		output.Success(s.w, "auth token cleared")
	} else {
		output.Successf(s.w, "auth token saved: %s", rpc.MaskToken(arg))
	}
	return s.wait()
}

// wait blocks until the check settles, the check timeout passes or the
// session is canceled.
func (s *session) wait() error {
	timeout := s.cc.Cfg.CheckTimeout()
	ctx, cancel := s.ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(s.ctx, timeout)
	}
	defer cancel()

	if err := s.runner.Wait(ctx); err != nil {
		return timeoutError(err, timeout)
	}
	return nil
}

func (s *session) renderStatus() error {
	report := output.StatusReport{Input: s.input, Nodes: s.runner.Snapshot()}
	return output.RenderStatus(s.w, report, s.cc.Fmt.Format(), s.cc.Fmt.Color())
}
