package cli

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/loom"
	"github.com/aretw0/loom/internal/logging"
	"github.com/aretw0/loom/pkg/adapters/file"
	loamAdapter "github.com/aretw0/loom/pkg/adapters/loam"
	"github.com/aretw0/loom/pkg/adapters/memory"
	"github.com/aretw0/loom/pkg/adapters/redis"
	"github.com/aretw0/loom/pkg/graph"
	"github.com/aretw0/loom/pkg/observability"
	"github.com/aretw0/loom/pkg/persistence/middleware"
	"github.com/aretw0/loom/pkg/ports"
	"github.com/aretw0/loom/pkg/session"
)

// mailboxSize bounds the in-process mailbox kept for run traces.
const mailboxSize = 256

// Setup is an engine wired with the CLI conventions, plus what must be released afterwards.
type Setup struct {
	Engine  *loom.Engine
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Mailbox *memory.Mailbox

	state   ports.StateStore
	locker  ports.DistributedLocker
	closers []func() error
}

// Runner wraps the engine for concurrent callers: runs of one blueprint are serialized,
// across replicas when Redis is configured, and state is checkpointed after each run.
func (s *Setup) Runner() *session.Manager {
	opts := []session.Option{session.WithLogger(s.Logger)}
	if s.state != nil {
		opts = append(opts, session.WithStore(s.state, s.Engine.State().Snapshot))
	}
	if s.locker != nil {
		opts = append(opts, session.WithLocker(s.locker, session.DefaultLockTTL))
	}
	return session.NewManager(s.Engine, opts...)
}

// SaveState writes the engine state to the --state file, if one was given.
func (s *Setup) SaveState() error {
	if s.state == nil {
		return nil
	}
	if err := s.state.Save(s.Engine.State().Snapshot()); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Close releases the external connections.
func (s *Setup) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// createEngine initializes a loom engine with standard CLI conventions:
// - graph from the --graph file, or from a directory of node documents
// - state seeded from (and later saved to) the --state file
// - mail sent to the logger, the in-process mailbox and, when configured, a Redis stream
func createEngine(ctx context.Context, opts Options) (*Setup, error) {
	logger, err := createLogger(opts.LogLevel, opts.LogFormat)
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewMetrics(nil)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	setup := &Setup{
		Logger:  logger,
		Metrics: metrics,
		Mailbox: memory.NewMailbox(mailboxSize),
	}

	mailers := fanoutMailer{logging.NewMailer(logger), setup.Mailbox}

	loader, name, err := openGraph(opts.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	nodes, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	if named, ok := loader.(interface{ Name() string }); ok && name == "" {
		name = named.Name()
	}
	g, err := graph.New(nodes...)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	engineOpts := []loom.Option{
		loom.WithLogger(logger),
		loom.WithName(name),
		loom.WithRunLogs(opts.RunLogs),
		loom.WithPoolSize(opts.PoolSize),
		loom.WithLifecycleHooks(observability.Combine(metrics.Hooks(), createDebugHooks(logger))),
	}
	if opts.Strict {
		engineOpts = append(engineOpts, loom.WithStrictValidation())
	}

	if opts.Env != "" {
		var env map[string]any
		if err := json.Unmarshal([]byte(opts.Env), &env); err != nil {
			return nil, fmt.Errorf("error parsing --env JSON: %w", err)
		}
		engineOpts = append(engineOpts, loom.WithBaseEnvironment(env))
	}

	if opts.StatePath != "" {
		store, err := openState(opts)
		if err != nil {
			return nil, err
		}
		setup.state = store
		initial, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("load state: %w", err)
		}
		engineOpts = append(engineOpts, loom.WithInitialState(initial))
	}

	if opts.RedisAddr != "" {
		rm := redis.New(opts.RedisAddr, "", 0)
		setup.closers = append(setup.closers, rm.Close)
		setup.locker = redis.NewLocker(rm.Client(), rm.Prefix())
		mailers = append(mailers, rm)
	}
	engineOpts = append(engineOpts, loom.WithMailer(mailers))

	engine, err := loom.New(g, engineOpts...)
	if err != nil {
		setup.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	setup.Engine = engine
	return setup, nil
}

// openGraph picks the loader for path. A directory is read as a Loam repository
// named after the directory; the file loader learns its name on Load.
func openGraph(path string) (ports.GraphLoader, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if !info.IsDir() {
		return file.NewLoader(path), "", nil
	}
	loader, err := loamAdapter.Open(path)
	if err != nil {
		return nil, "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	return loader, filepath.Base(abs), nil
}

// openState wraps the --state file with masking and encryption when configured.
func openState(opts Options) (ports.StateStore, error) {
	var mws []middleware.Middleware
	if len(opts.Mask) > 0 {
		pii, err := middleware.NewPIIMiddleware(opts.Mask)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if opts.StateKey != "" {
		key, err := hex.DecodeString(opts.StateKey)
		if err != nil {
			return nil, fmt.Errorf("state key must be hex encoded: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, fmt.Errorf("state key: %w", err)
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(file.NewStateFile(opts.StatePath), mws...), nil
}
