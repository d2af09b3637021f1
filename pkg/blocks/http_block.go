package blocks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/loom/pkg/expr"
)

// maxResponseBody caps how much of a response body is read into the result.
const maxResponseBody = 10 << 20

var httpRequestMeta = Metadata{
	Description: "Performs an HTTP request. The result holds status, headers and the decoded body.",
	Category:    "integration",
	Fields: map[string]FieldSpec{
		"method":  {Description: "HTTP method.", Default: http.MethodGet},
		"url":     {Description: "Target URL.", Required: true},
		"headers": {Description: "JSON object of request headers."},
		"body":    {Description: "Request body; non-string values are sent as JSON."},
	},
	Outcomes: map[string]OutcomeSpec{
		"success":              {Description: "2xx or 3xx response."},
		OutcomeResponseError:   {Description: "The server answered with a 4xx or 5xx status."},
		OutcomeConnectionError: {Description: "The request could not be completed."},
	},
}

type httpConfig struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
}

// NewHTTPRequest returns the httprequest block constructor using client.
func NewHTTPRequest(client *http.Client) Constructor {
	return Func(func(ctx context.Context, inst *Instance) error {
		cfg, err := httpRequestConfig(ctx, inst)
		if err != nil {
			return inst.Fail(err)
		}

		req, err := newRequest(ctx, cfg)
		if err != nil {
			return inst.Fail(err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return inst.FailWith(OutcomeConnectionError, fmt.Errorf("%s %s: %w", cfg.Method, cfg.URL, err))
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return inst.FailWith(OutcomeConnectionError, fmt.Errorf("read response: %w", err))
		}

		headers := make(map[string]any, len(resp.Header))
		for k := range resp.Header {
			headers[k] = resp.Header.Get(k)
		}
		inst.Result = map[string]any{
			"status":  resp.StatusCode,
			"headers": headers,
			"body":    decodeBody(raw),
		}

		if resp.StatusCode >= http.StatusBadRequest {
			inst.Outcome = OutcomeResponseError
			return fmt.Errorf("%s %s: status %d", cfg.Method, cfg.URL, resp.StatusCode)
		}
		inst.Outcome = "success"
		return nil
	})
}

func httpRequestConfig(ctx context.Context, inst *Instance) (httpConfig, error) {
	var cfg httpConfig
	var err error
	if cfg.Method, err = inst.GetString(ctx, "method", false, http.MethodGet); err != nil {
		return cfg, err
	}
	cfg.Method = strings.ToUpper(cfg.Method)
	if cfg.URL, err = inst.GetString(ctx, "url", true, ""); err != nil {
		return cfg, err
	}
	if err = inst.DecodeField(ctx, "headers", &cfg.Headers); err != nil {
		return cfg, err
	}
	if cfg.Body, err = inst.GetField(ctx, "body", false, nil, false); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newRequest(ctx context.Context, cfg httpConfig) (*http.Request, error) {
	var body io.Reader
	isJSON := false
	switch b := cfg.Body.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(encoded)
		isJSON = true
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err == nil {
		return decoded
	}
	return expr.Stringify(raw)
}
