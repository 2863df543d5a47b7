package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/mrz1836/safecheck/internal/graph"
	"github.com/mrz1836/safecheck/internal/output"
	"github.com/mrz1836/safecheck/internal/service/check"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// checkAuthToken overrides the stored RPC auth token for one run.
	checkAuthToken string
	// checkWatch streams every node transition as it happens.
	checkWatch bool
	// checkTimeout bounds how long to wait for the check to settle.
	checkTimeout time.Duration
	// checkFailOnError returns a non-zero exit code when any node failed.
	checkFailOnError bool
)

// checkCmd runs a full status check for one account.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var checkCmd = &cobra.Command{
	Use:   "check <account>",
	Short: "Run a status check for a Safe account",
	Long: `Resolve a Safe account and report the state of every lookup.

The account is "<network>:<address>" using the chain's short name, such as
eth or gno. The address must be EIP-55 checksummed. CAIP-10 identifiers
("eip155:<chainId>:<address>") are recognized but not supported yet.

The check reports six nodes: address, chainInfo, safeInfo, indexingState,
cachingState and chainState. A node that fails only blocks the nodes that
depend on it.`,
	Example: `  safecheck check eth:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed
  safecheck check gno:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed --watch
  safecheck check eth:0x5aAe... --auth-token abcd1234 -o json
  safecheck check eth:0x5aAe... --fail-on-error --timeout 20s`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.GroupID = groupCheck

	checkCmd.Flags().StringVar(&checkAuthToken, "auth-token", "", "RPC auth token for this run (overrides the stored token)")
	checkCmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "print every node transition as it happens")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 0, "maximum time to wait for the check (default from check.timeout_seconds, 0 waits forever)")
	checkCmd.Flags().BoolVar(&checkFailOnError, "fail-on-error", false, "exit non-zero when any node failed")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	token, err := cc.ResolveToken(checkAuthToken)
	if err != nil {
		return err
	}

	timeout := cc.Cfg.CheckTimeout()
	if cmd.Flags().Changed("timeout") {
		timeout = checkTimeout
	}
	ctx, cancel := contextWithTimeout(cmd, timeout)
	defer cancel()

	runner, err := cc.NewRunner(ctx, token)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	format := cc.Fmt.Format()

	unsubscribe := func() {}
	if checkWatch {
		unsubscribe = runner.Subscribe(func(ns check.NodeStatus) {
			cc.Log.Debug("watch: %s %s (%d pending)", ns.Node, ns.State, runner.Pending())
			_ = output.RenderEvent(w, ns, format, cc.Fmt.Color())
		})
	}
	defer unsubscribe()

	stop := func() {}
	if !checkWatch && format == output.FormatText {
		stop = startSpinner(cmd.ErrOrStderr(), "Checking "+args[0])
	}

	start := time.Now()
	runner.Submit(args[0])
	waitErr := runner.Wait(ctx)
	stop()
	// Producers still running after a timeout must not write into the table.
	unsubscribe()

	nodes := runner.Snapshot()
	logCheckResult(cc, args[0], nodes, time.Since(start))

	if !checkWatch || format == output.FormatText {
		report := output.StatusReport{Input: args[0], Nodes: nodes}
		if cc.Cfg.Output.Verbose || format == output.FormatJSON {
			snap := cc.Metrics.Snapshot()
			report.Metrics = &snap
		}
		if checkWatch {
			outln(w)
		}
		if err := output.RenderStatus(w, report, format, cc.Fmt.Color()); err != nil {
			return err
		}
	}

	if waitErr != nil {
		return timeoutError(waitErr, timeout)
	}
	if checkFailOnError {
		return firstFailure(nodes)
	}
	return nil
}

// timeoutError maps a Wait error onto the error kinds the CLI reports.
func timeoutError(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return checkerr.WithSuggestion(
			checkerr.WithDetails(checkerr.ErrTimeout, map[string]string{"timeout": timeout.String()}),
			"raise --timeout or check.timeout_seconds, or use --watch to see which lookup is slow",
		)
	}
	return err
}

// firstFailure returns the error of the first failed node in topological
// order, or nil. The node name is prefixed to the message and added to the
// error's details.
func firstFailure(nodes []check.NodeStatus) error {
	for _, ns := range nodes {
		if ns.State != graph.StateFailed {
			continue
		}
		err := ns.Err
		if err == nil {
			err = checkerr.New(checkerr.ErrGeneral.Code, ns.Error)
		}
		return withNode(checkerr.Wrap(err, "%s", ns.Node), ns.Node)
	}
	return nil
}

// withNode adds a "node" detail and keeps the details err already carries.
func withNode(err error, node string) error {
	details := map[string]string{}
	var ce *checkerr.CheckError
	if errors.As(err, &ce) {
		maps.Copy(details, ce.Details)
	}
	details["node"] = node
	return checkerr.WithDetails(err, details)
}

// logCheckResult writes one structured record per finished check.
func logCheckResult(cc *CommandContext, input string, nodes []check.NodeStatus, elapsed time.Duration) {
	attrs := []slog.Attr{
		slog.String("input", input),
		slog.Duration("elapsed", elapsed),
	}
	for _, ns := range nodes {
		attrs = append(attrs, slog.String(ns.Node, ns.State.String()))
	}
	snap := cc.Metrics.Snapshot()
	attrs = append(attrs,
		slog.Int64("requests", snap.RequestsTotal),
		slog.Int64("request_errors", snap.RequestErrors),
	)
	cc.Log.DebugAttrs("check finished", attrs...)
}

// startSpinner shows a spinner on w while a check runs. It is a no-op when w
// is not a terminal.
func startSpinner(w io.Writer, msg string) func() {
	if !output.IsTerminal(w) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
