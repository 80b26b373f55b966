// Package render provides centralized output rendering for the trolley CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
//
// Color handling:
//   - --no-color affects table output only
//   - TUI mode is unaffected by --no-color (uses its own styling)
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/trolley/cli/tui"
	"github.com/pithecene-io/trolley/metrics"
	"github.com/pithecene-io/trolley/types"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer creates a renderer from CLI context, applying the TTY-based
// format default when no --format flag is set.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     os.Stdout,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatTable:
		return r.renderTable(data)
	case FormatYAML:
		return r.renderYAML(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI initiates TUI mode for the given view type.
// TUI is opt-in only and read-only only.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	return tui.Run(viewType, data)
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	return enc.Encode(data)
}

// renderTable dispatches on the known view types; anything else falls back
// to indented JSON so new types degrade readably.
func (r *Renderer) renderTable(data any) error {
	switch v := data.(type) {
	case types.CartState:
		return r.renderCart(v)
	case *types.CartState:
		return r.renderCart(*v)
	case types.Lines:
		return r.renderLines(v)
	case metrics.Snapshot:
		return r.renderStats(v)
	default:
		return r.renderJSON(data)
	}
}

func (r *Renderer) renderCart(state types.CartState) error {
	if len(state.Lines) == 0 {
		fmt.Fprintln(r.out, "(cart is empty)")
		fmt.Fprintf(r.out, "source: %s\n", state.Source)
		return nil
	}

	if err := r.renderLines(state.Lines); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "\nitems: %d\tsubtotal: %s\tsource: %s\n",
		state.Lines.ItemCount(), FormatPrice(state.Lines.Subtotal()), state.Source)
	if state.LastSyncedAt != nil {
		fmt.Fprintf(r.out, "last synced: %s\n", state.LastSyncedAt.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}

func (r *Renderer) renderLines(lines types.Lines) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "product\tqty\tunit\ttotal")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			l.ProductID, l.Quantity, FormatPrice(l.UnitPrice), FormatPrice(int64(l.Quantity)*l.UnitPrice))
	}
	return nil
}

func (r *Renderer) renderStats(snap metrics.Snapshot) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "session:\t%s\n", snap.SessionID)
	fmt.Fprintf(w, "storage:\t%s\n", snap.StorageBackend)
	fmt.Fprintf(w, "requests:\t%d started, %d ok, %d failed\n",
		snap.RequestsStarted, snap.RequestsSucceeded, snap.RequestsFailed)
	fmt.Fprintf(w, "retries:\t%d\n", snap.Retries)
	fmt.Fprintf(w, "slow calls:\t%d\n", snap.SlowCalls)
	for kind, n := range snap.FailuresByKind {
		fmt.Fprintf(w, "failures[%s]:\t%d\n", kind, n)
	}
	fmt.Fprintf(w, "mutations:\t%d\n", snap.Mutations)
	fmt.Fprintf(w, "local fallbacks:\t%d\n", snap.LocalFallbacks)
	fmt.Fprintf(w, "merges:\t%d ok, %d failed\n", snap.Merges, snap.MergeFailures)
	fmt.Fprintf(w, "snapshots:\t%d saved, %d save failures, %d corrupted\n",
		snap.SnapshotSaves, snap.SnapshotSaveFailures, snap.SnapshotCorruptions)
	return nil
}

// FormatPrice renders minor units as a decimal amount, e.g. 1299 -> "12.99".
func FormatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
