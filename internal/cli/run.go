package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/loom"
)

// Options contains the configuration shared by every command.
type Options struct {
	GraphPath string
	LogLevel  string
	LogFormat string
	RunLogs   bool
	RedisAddr string
	StatePath string
	StateKey  string   // Hex-encoded AES-256 key; the state file is encrypted when set
	Mask      []string // Key patterns whose values are masked in the saved state
	PoolSize  int
	Strict    bool
	Env       string // Raw JSON object merged into every run environment
	Timeout   time.Duration

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// RunOptions configures the 'run' command.
type RunOptions struct {
	Options
	Key     string
	Payload string // Raw JSON; plain text is passed as a string
	Lines   bool
	Quiet   bool
}

func (o *Options) defaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
}

// Execute handles the 'run' command: one run with --payload, or one run per stdin line with --lines.
func Execute(opts RunOptions) error {
	opts.defaults()
	if opts.Key == "" {
		return fmt.Errorf("--key is required")
	}

	sc := NewSignalContext(context.Background())
	defer sc.Cancel()
	ctx := context.Context(sc)
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	setup, err := createEngine(ctx, opts.Options)
	if err != nil {
		return err
	}
	defer setup.Close()

	if opts.Lines {
		runner := &loom.LineRunner{
			Input:  NewInterruptibleReader(opts.Stdin, sc.Done()),
			Output: opts.Stdout,
		}
		err = handleExecutionError(runner.Run(ctx, setup.Engine, opts.Key))
	} else {
		err = runOnce(ctx, setup, opts)
	}
	if err != nil {
		return err
	}

	if err := setup.SaveState(); err != nil {
		return err
	}
	if sig := sc.Signal(); sig != nil && !opts.Quiet {
		printSystemMessage(opts.Stderr, "Interrupted by %v.", sig)
	}
	return nil
}

func runOnce(ctx context.Context, setup *Setup, opts RunOptions) error {
	payload := parsePayload(opts.Payload)
	res, err := setup.Engine.RunBlueprint(ctx, opts.Key, payload)
	if err != nil {
		if isInterrupted(err) {
			return nil
		}
		return fmt.Errorf("run '%s': %w", opts.Key, err)
	}
	enc := json.NewEncoder(opts.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// parsePayload decodes raw as JSON, falling back to the raw text. Empty input yields nil.
func parsePayload(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return raw
	}
	return payload
}
