package loom

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// LineRunner runs a blueprint once per line of input. Each line is a JSON payload and each
// run writes one JSON line to Output: {"run_id", "value", "changes"} or {"error"}.
// This allows for batch processing and easy integration with shell pipelines.
type LineRunner struct {
	Input  io.Reader
	Output io.Writer
	// StopOnError aborts at the first failed run instead of reporting it and moving on.
	StopOnError bool
}

type lineError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// Run executes key for every non-empty input line until EOF.
func (r *LineRunner) Run(ctx context.Context, engine *Engine, key string) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	enc := json.NewEncoder(r.Output)
	scanner := bufio.NewScanner(r.Input)
	scanner.Buffer(make([]byte, 64*1024), 10<<20)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var payload any
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			if err := r.report(enc, line, fmt.Errorf("invalid payload: %w", err)); err != nil {
				return err
			}
			continue
		}

		res, err := engine.RunBlueprint(ctx, key, payload)
		if err != nil {
			if err := r.report(enc, line, err); err != nil {
				return err
			}
			continue
		}
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}
	return nil
}

func (r *LineRunner) report(enc *json.Encoder, line int, runErr error) error {
	if r.StopOnError {
		return fmt.Errorf("line %d: %w", line, runErr)
	}
	if err := enc.Encode(lineError{Line: line, Error: runErr.Error()}); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
