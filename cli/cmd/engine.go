package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/trolley/adapter"
	redisadapter "github.com/pithecene-io/trolley/adapter/redis"
	webhookadapter "github.com/pithecene-io/trolley/adapter/webhook"
	"github.com/pithecene-io/trolley/api"
	"github.com/pithecene-io/trolley/cart"
	"github.com/pithecene-io/trolley/cli/config"
	"github.com/pithecene-io/trolley/identity"
	"github.com/pithecene-io/trolley/log"
	"github.com/pithecene-io/trolley/metrics"
	"github.com/pithecene-io/trolley/snapshot"
	"github.com/pithecene-io/trolley/types"
)

// DefaultBaseURL is used when neither --base-url nor the config file
// provide one.
const DefaultBaseURL = "http://localhost:8080/api"

// sessionFile persists the session identity between invocations.
const sessionFile = "session.json"

// sessionState is the on-disk session record in the state directory.
type sessionState struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Token     string `json:"token,omitempty"`
}

// stateDir resolves the trolley state directory.
// TROLLEY_STATE_DIR overrides the per-user default.
func stateDir() (string, error) {
	if dir := os.Getenv("TROLLEY_STATE_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve state dir: %w", err)
	}
	return filepath.Join(base, "trolley"), nil
}

// loadSessionState reads the persisted session, minting a fresh session id
// on first use.
func loadSessionState(dir string) (sessionState, error) {
	var st sessionState
	data, err := os.ReadFile(filepath.Join(dir, sessionFile))
	if err != nil {
		if !os.IsNotExist(err) {
			return st, fmt.Errorf("read session state: %w", err)
		}
		st.SessionID = uuid.New().String()
		return st, saveSessionState(dir, st)
	}
	if err := json.Unmarshal(data, &st); err != nil || st.SessionID == "" {
		// Unreadable session state is replaced, not fatal.
		st = sessionState{SessionID: uuid.New().String()}
		return st, saveSessionState(dir, st)
	}
	return st, nil
}

// saveSessionState writes the session record with owner-only permissions;
// it may hold a bearer token.
func saveSessionState(dir string, st sessionState) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sessionFile), data, 0o600); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}

// engine bundles the wired cart components for one CLI invocation.
type engine struct {
	cfg       *config.Config
	state     sessionState
	stateDir  string
	gate      *identity.Gate
	client    *api.Client
	kv        snapshot.KV
	snaps     *snapshot.Adapter
	collector *metrics.Collector
	store     *cart.Store
	logger    *log.Logger
	events    adapter.Adapter
}

// newEngine constructs the cart engine from config file, flags, and the
// persisted session state.
func newEngine(c *cli.Context) (*engine, error) {
	cfg, err := resolveConfig(c)
	if err != nil {
		return nil, err
	}

	dir, err := stateDir()
	if err != nil {
		return nil, err
	}
	st, err := loadSessionState(dir)
	if err != nil {
		return nil, err
	}

	e := &engine{cfg: cfg, state: st, stateDir: dir}

	if st.Token != "" {
		e.gate = identity.NewGateWithToken(st.UserID, st.Token)
	} else {
		e.gate = identity.NewGate()
	}
	// Keep the persisted token in sync with the gate: sign-out and server
	// rejection both clear it.
	e.gate.Subscribe(func(tr identity.Transition) {
		if tr.To == identity.Anonymous {
			e.state.UserID = ""
			e.state.Token = ""
			_ = saveSessionState(e.stateDir, e.state)
		}
	})

	if c.Bool("verbose") {
		e.logger = log.NewLogger(e.sessionMeta())
	}
	e.collector = metrics.NewCollector(st.SessionID, cfg.StorageBackend())

	kv, err := newSnapshotKV(c.Context, cfg, dir)
	if err != nil {
		return nil, err
	}
	e.kv = kv
	e.snaps = snapshot.NewAdapter(kv, e.logger, e.collector)

	clientCfg := cfg.ClientConfig()
	if url := c.String("base-url"); url != "" {
		clientCfg.BaseURL = url
	}
	if clientCfg.BaseURL == "" {
		clientCfg.BaseURL = DefaultBaseURL
	}
	e.client, err = api.New(clientCfg, e.gate, e.logger, e.collector)
	if err != nil {
		return nil, err
	}

	e.store = cart.New(e.client, e.snaps, e.gate, e.logger, e.collector)

	e.events, err = newEventAdapter(cfg)
	if err != nil {
		return nil, err
	}

	return e, nil
}

// resolveConfig loads trolley.yaml from --config, falling back to the
// working directory, falling back to an empty config.
func resolveConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		if _, err := os.Stat("trolley.yaml"); err == nil {
			path = "trolley.yaml"
		}
	}
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// newSnapshotKV builds the configured snapshot backend.
func newSnapshotKV(ctx context.Context, cfg *config.Config, dir string) (snapshot.KV, error) {
	switch cfg.StorageBackend() {
	case "file":
		return snapshot.NewFileKV(filepath.Join(dir, "snapshots"))
	case "redis":
		return snapshot.NewRedisKV(cfg.Storage.URL, cfg.Storage.Prefix)
	case "s3":
		return snapshot.NewS3KV(ctx, snapshot.S3Config{
			Bucket:       cfg.Storage.Bucket,
			Prefix:       cfg.Storage.Prefix,
			Region:       cfg.Storage.Region,
			Endpoint:     cfg.Storage.Endpoint,
			UsePathStyle: cfg.Storage.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %q (must be file, redis, or s3)", cfg.Storage.Backend)
	}
}

// newEventAdapter builds the configured cart event adapter, or nil when
// event publishing is disabled.
func newEventAdapter(cfg *config.Config) (adapter.Adapter, error) {
	switch cfg.Adapter.Type {
	case "":
		return nil, nil
	case "webhook":
		retries := webhookadapter.DefaultRetries
		if cfg.Adapter.Retries != nil {
			retries = *cfg.Adapter.Retries
		}
		return webhookadapter.New(webhookadapter.Config{
			URL:     cfg.Adapter.URL,
			Secret:  cfg.Adapter.Secret,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries,
		})
	case "redis":
		retries := redisadapter.DefaultRetries
		if cfg.Adapter.Retries != nil {
			retries = *cfg.Adapter.Retries
		}
		return redisadapter.New(redisadapter.Config{
			URL:     cfg.Adapter.URL,
			Channel: cfg.Adapter.Channel,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type: %q (must be webhook or redis)", cfg.Adapter.Type)
	}
}

func (e *engine) sessionMeta() *types.SessionMeta {
	meta := &types.SessionMeta{SessionID: e.state.SessionID}
	if e.state.UserID != "" {
		uid := e.state.UserID
		meta.UserID = &uid
	}
	return meta
}

// publish sends a cart change event when an adapter is configured.
// Publishing is best-effort; a failure never fails the command.
func (e *engine) publish(ctx context.Context, action, productID string) {
	if e.events == nil {
		return
	}
	ev := adapter.NewEvent(*e.sessionMeta(), action, productID, e.store.State())
	if err := e.events.Publish(ctx, ev); err != nil && e.logger != nil {
		e.logger.Warn("cart event publish failed", map[string]any{"error": err.Error()})
	}
}

// Close releases engine resources.
func (e *engine) Close() {
	_ = e.client.Close()
	if e.events != nil {
		_ = e.events.Close()
	}
	if closer, ok := e.kv.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
