package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pithecene-io/trolley/metrics"
	"github.com/pithecene-io/trolley/types"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
		{"invalid with message", "csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func testState() types.CartState {
	return types.CartState{
		Source: types.SourceRemote,
		Lines: types.Lines{
			{ProductID: "sku-1", Quantity: 2, UnitPrice: 1299},
			{ProductID: "sku-2", Quantity: 1, UnitPrice: 450},
		},
	}
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, false, &buf)

	if err := r.Render(testState()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, `"sku-1"`) || !strings.Contains(got, `"source": "remote"`) {
		t.Errorf("JSON output missing expected content: %s", got)
	}
}

func TestRenderer_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, false, &buf)

	if err := r.Render(testState()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "product_id: sku-1") || !strings.Contains(got, "source: remote") {
		t.Errorf("YAML output missing expected content: %s", got)
	}
}

func TestRenderer_Table_Cart(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render(testState()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"product", "sku-1", "12.99", "25.98", "items: 3", "subtotal: 30.48", "source: remote"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q: %s", want, got)
		}
	}
}

func TestRenderer_Table_EmptyCart(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render(types.CartState{Source: types.SourceLocal}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "(cart is empty)") || !strings.Contains(got, "source: local") {
		t.Errorf("empty cart output wrong: %s", got)
	}
}

func TestRenderer_Table_Stats(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	c := metrics.NewCollector("sess-9", "file")
	c.IncRequestStarted()
	c.IncRequestSucceeded()
	c.IncMutation()

	if err := r.Render(c.Snapshot()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"sess-9", "file", "1 started, 1 ok, 0 failed", "mutations:"} {
		if !strings.Contains(got, want) {
			t.Errorf("stats output missing %q: %s", want, got)
		}
	}
}

func TestRenderer_Table_UnknownTypeFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render(map[string]int{"n": 1}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.Contains(buf.String(), `"n": 1`) {
		t.Errorf("expected JSON fallback, got: %s", buf.String())
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1299, "12.99"},
		{100000, "1000.00"},
		{-450, "-4.50"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.minor); got != tt.want {
			t.Errorf("FormatPrice(%d) = %q, want %q", tt.minor, got, tt.want)
		}
	}
}

func TestRenderer_NoColor_DoesNotAffectJSON(t *testing.T) {
	var bufColor, bufNoColor bytes.Buffer

	rColor := NewRendererWithWriter(FormatJSON, false, &bufColor)
	rNoColor := NewRendererWithWriter(FormatJSON, true, &bufNoColor)

	if err := rColor.Render(testState()); err != nil {
		t.Fatalf("Render with color failed: %v", err)
	}
	if err := rNoColor.Render(testState()); err != nil {
		t.Fatalf("Render without color failed: %v", err)
	}

	if bufColor.String() != bufNoColor.String() {
		t.Error("--no-color should not affect JSON output")
	}
}
