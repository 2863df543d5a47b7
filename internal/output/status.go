package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mrz1836/safecheck/internal/address"
	"github.com/mrz1836/safecheck/internal/chain/gateway"
	"github.com/mrz1836/safecheck/internal/chain/txservice"
	"github.com/mrz1836/safecheck/internal/graph"
	"github.com/mrz1836/safecheck/internal/metrics"
	"github.com/mrz1836/safecheck/internal/service/check"
)

// StatusReport is the full result of one check.
type StatusReport struct {
	Input   string             `json:"input,omitempty"`
	Nodes   []check.NodeStatus `json:"nodes"`
	Metrics *metrics.Snapshot  `json:"metrics,omitempty"`
}

// theme holds the styles used for state badges.
type theme struct {
	color  bool
	header lipgloss.Style
	states map[graph.State]lipgloss.Style
	dim    lipgloss.Style
}

func newTheme(w io.Writer, color bool) *theme {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &theme{
		color:  color,
		header: r.NewStyle().Bold(true),
		dim:    r.NewStyle().Foreground(lipgloss.Color("240")),
		states: map[graph.State]lipgloss.Style{
			graph.StateIdle:    r.NewStyle().Foreground(lipgloss.Color("240")),
			graph.StatePending: r.NewStyle().Foreground(lipgloss.Color("214")),
			graph.StateReady:   r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
			graph.StateFailed:  r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
	}
}

func (t *theme) badge(s graph.State) string {
	if !t.color {
		return s.String()
	}
	return t.states[s].Render(s.String())
}

func (t *theme) faint(s string) string {
	if !t.color || s == "" {
		return s
	}
	return t.dim.Render(s)
}

// RenderStatus writes every node's status as a table or a JSON document.
func RenderStatus(w io.Writer, report StatusReport, format Format, color bool) error {
	if format == FormatJSON {
		if report.Nodes == nil {
			report.Nodes = []check.NodeStatus{}
		}
		return writeJSON(w, report, true)
	}

	th := newTheme(w, color)

	if report.Input != "" {
		if _, err := fmt.Fprintf(w, "Safe: %s\n\n", report.Input); err != nil {
			return err
		}
	}

	table := NewTable("NODE", "STATE", "DETAIL", "SOURCE")
	if color {
		table.SetHeaderStyle(th.header)
	}
	var suggestions []string
	for _, ns := range report.Nodes {
		table.AddRow(ns.Node, th.badge(ns.State), Detail(ns), th.faint(ns.Source))
		if ns.State == graph.StateFailed && ns.Err != nil {
			if s := NewErrorDetail(ns.Err).Suggestion; s != "" {
				suggestions = append(suggestions, fmt.Sprintf("%s: %s", ns.Node, s))
			}
		}
	}
	if err := table.Render(w); err != nil {
		return err
	}

	if len(suggestions) > 0 {
		if _, err := fmt.Fprintf(w, "\nSuggestions:\n  %s\n", strings.Join(suggestions, "\n  ")); err != nil {
			return err
		}
	}

	if report.Metrics != nil {
		return renderMetricsText(w, *report.Metrics)
	}
	return nil
}

// RenderEvent writes one transition as a single line of text or JSON.
func RenderEvent(w io.Writer, ns check.NodeStatus, format Format, color bool) error {
	if format == FormatJSON {
		return writeJSON(w, ns, false)
	}

	th := newTheme(w, color)
	line := fmt.Sprintf("%-13s %s", ns.Node, th.badge(ns.State))
	if d := Detail(ns); d != "" {
		line += "  " + d
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// Detail summarizes a node's value or error in one line.
func Detail(ns check.NodeStatus) string {
	switch ns.State {
	case graph.StateFailed:
		if ns.Err == nil {
			return ns.Error
		}
		d := NewErrorDetail(ns.Err)
		return fmt.Sprintf("%s [%s]", d.Message, d.Code)
	case graph.StateReady:
		return Summarize(ns.Value)
	case graph.StateIdle, graph.StatePending:
	}
	return ""
}

// Summarize renders a node value for humans.
func Summarize(v any) string {
	switch val := v.(type) {
	case address.AccountID:
		return val.String()
	case gateway.ChainInfo:
		s := fmt.Sprintf("%s (chain %s)", val.ChainName, val.ChainID)
		if val.L2 {
			s += ", L2"
		}
		return s
	case gateway.SafeInfo:
		s := fmt.Sprintf("nonce %d, threshold %d/%d", val.Nonce, val.Threshold, len(val.Owners))
		if val.Version != "" {
			s += ", version " + val.Version
		}
		return s
	case txservice.MasterCopy:
		s := fmt.Sprintf("mastercopy %s indexed to block %d", val.Version, val.LastIndexedBlockNumber)
		if val.L2 {
			s += " (L2)"
		}
		return s
	case check.CachingState:
		return fmt.Sprintf("%d queued, %d missing executed", val.QueuedTxs, val.MissingExecutedTxs)
	case check.ChainState:
		return "block " + val.CurrentBlock
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

func renderMetricsText(w io.Writer, snap metrics.Snapshot) error {
	if _, err := fmt.Fprintf(w, "\nRequests: %d (%d failed), avg %.1f ms, %d rate-limited\n",
		snap.RequestsTotal, snap.RequestErrors, snap.RequestLatencyMs, snap.RateLimitWaits); err != nil {
		return err
	}

	if len(snap.Nodes) == 0 {
		return nil
	}

	table := NewTable("NODE", "STARTED", "OK", "FAILED", "DISCARDED", "AVG MS")
	table.AlignRight(1, 2, 3, 4, 5)
	for _, n := range snap.Nodes {
		table.AddRow(
			n.Node,
			fmt.Sprintf("%d", n.Started),
			fmt.Sprintf("%d", n.Succeeded),
			fmt.Sprintf("%d", n.Failed),
			fmt.Sprintf("%d", n.Discarded),
			fmt.Sprintf("%.1f", n.AvgLatencyMs),
		)
	}
	return table.Render(w)
}
