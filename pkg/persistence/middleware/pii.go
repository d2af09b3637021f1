package middleware

import (
	"fmt"
	"regexp"

	"github.com/aretw0/loom/pkg/ports"
	"github.com/mohae/deepcopy"
)

// Mask replaces the values of masked keys.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching the patterns
// before they are saved. The in-memory snapshot is left untouched.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(snapshot map[string]any) error {
	cloned, _ := deepcopy.Copy(snapshot).(map[string]any)
	maskValue(cloned, m.patterns)
	return m.next.Save(cloned)
}

func (m *piiMiddleware) Load() (map[string]any, error) {
	return m.next.Load()
}

func maskValue(v any, patterns []*regexp.Regexp) {
	switch t := v.(type) {
	case map[string]any:
		for k, sub := range t {
			if matchesAny(k, patterns) {
				t[k] = Mask
				continue
			}
			maskValue(sub, patterns)
		}
	case []any:
		for _, item := range t {
			maskValue(item, patterns)
		}
	}
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
