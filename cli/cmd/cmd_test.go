package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pithecene-io/trolley/cli/config"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, nil, false},
		{"single", []string{"size=m"}, map[string]string{"size": "m"}, false},
		{"multiple", []string{"size=m", "color=navy"}, map[string]string{"size": "m", "color": "navy"}, false},
		{"value with equals", []string{"note=a=b"}, map[string]string{"note": "a=b"}, false},
		{"empty value", []string{"gift="}, map[string]string{"gift": ""}, false},
		{"missing equals", []string{"size"}, nil, true},
		{"empty key", []string{"=m"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOptions(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseOptions(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseOptions(%v) = %v, want %v", tt.input, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("option %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestSessionState_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	st, err := loadSessionState(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.SessionID == "" {
		t.Fatal("fresh session must mint a session id")
	}

	st.UserID = "user-1"
	st.Token = "tok-abc"
	if err := saveSessionState(dir, st); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := loadSessionState(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.SessionID != st.SessionID || again.UserID != "user-1" || again.Token != "tok-abc" {
		t.Errorf("round trip lost fields: %+v", again)
	}
}

func TestSessionState_SessionIDStableAcrossLoads(t *testing.T) {
	dir := t.TempDir()

	first, err := loadSessionState(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := loadSessionState(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if first.SessionID != second.SessionID {
		t.Errorf("session id changed between loads: %s vs %s", first.SessionID, second.SessionID)
	}
}

func TestSessionState_CorruptFileReplaced(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, sessionFile), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	st, err := loadSessionState(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.SessionID == "" {
		t.Error("corrupt session state must be replaced with a fresh session")
	}
	if st.Token != "" {
		t.Error("corrupt session state must not retain a token")
	}
}

func TestNewSnapshotKV_File(t *testing.T) {
	dir := t.TempDir()
	kv, err := newSnapshotKV(t.Context(), &config.Config{}, dir)
	if err != nil {
		t.Fatalf("new kv: %v", err)
	}
	if kv == nil {
		t.Fatal("expected a file-backed kv")
	}
	if _, err := os.Stat(filepath.Join(dir, "snapshots")); err != nil {
		t.Errorf("snapshot dir not created: %v", err)
	}
}

func TestNewSnapshotKV_UnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = "carrier-pigeon"

	if _, err := newSnapshotKV(t.Context(), cfg, t.TempDir()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewEventAdapter_DisabledByDefault(t *testing.T) {
	a, err := newEventAdapter(&config.Config{})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if a != nil {
		t.Error("expected nil adapter when unconfigured")
	}
}

func TestNewEventAdapter_Webhook(t *testing.T) {
	cfg := &config.Config{}
	cfg.Adapter.Type = "webhook"
	cfg.Adapter.URL = "https://hooks.example.com/cart"

	a, err := newEventAdapter(cfg)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if a == nil {
		t.Fatal("expected a webhook adapter")
	}
	_ = a.Close()
}

func TestNewEventAdapter_UnknownType(t *testing.T) {
	cfg := &config.Config{}
	cfg.Adapter.Type = "smoke-signal"

	if _, err := newEventAdapter(cfg); err == nil {
		t.Fatal("expected error for unknown adapter type")
	}
}
