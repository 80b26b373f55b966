package tui

import (
	"strings"
	"testing"

	"github.com/pithecene-io/trolley/metrics"
	"github.com/pithecene-io/trolley/types"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{"show_cart", true},
		{"stats_session", true},

		// Mutating commands never get a TUI
		{"add", false},
		{"remove", false},
		{"set", false},
		{"clear", false},
		{"sync", false},

		{"version", false},
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			got := IsTUISupported(tt.viewType)
			if got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestSupportedTUIViews(t *testing.T) {
	views := SupportedTUIViews()

	if len(views) != 2 {
		t.Errorf("SupportedTUIViews() returned %d views, expected 2", len(views))
	}

	for _, v := range views {
		if !IsTUISupported(v) {
			t.Errorf("SupportedTUIViews() returned %q but IsTUISupported returns false", v)
		}
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	err := Run("add", nil)
	if err == nil {
		t.Error("Expected error for unsupported view type")
	}
}

func TestCartModel_View(t *testing.T) {
	state := types.CartState{
		Source: types.SourceRemote,
		Lines: types.Lines{
			{ProductID: "sku-1", Quantity: 2, UnitPrice: 1299},
		},
	}

	m := NewCartModel("show_cart", state)
	view := m.View()

	for _, want := range []string{"Cart", "sku-1", "12.99", "25.98", "remote"} {
		if !strings.Contains(view, want) {
			t.Errorf("cart view missing %q:\n%s", want, view)
		}
	}
}

func TestCartModel_EmptyCart(t *testing.T) {
	m := NewCartModel("show_cart", types.CartState{Source: types.SourceLocal})
	view := m.View()

	if !strings.Contains(view, "(empty)") {
		t.Errorf("empty cart view missing placeholder:\n%s", view)
	}
}

func TestCartModel_InvalidData(t *testing.T) {
	m := NewCartModel("show_cart", "not a cart")
	if !strings.Contains(m.View(), "Invalid data type") {
		t.Error("expected invalid data message")
	}
}

func TestStatsModel_View(t *testing.T) {
	c := metrics.NewCollector("sess-1", "file")
	c.IncRequestStarted()
	c.IncRequestFailed("network_error")

	m := NewStatsModel("stats_session", c.Snapshot())
	view := m.View()

	for _, want := range []string{"sess-1", "Requests", "network_error"} {
		if !strings.Contains(view, want) {
			t.Errorf("stats view missing %q:\n%s", want, view)
		}
	}
}
