package expr

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Names CEL reserves for keywords or builtin types; state keys using them stay unreachable.
var reserved = map[string]bool{
	"true": true, "false": true, "null": true, "in": true, "as": true, "break": true,
	"const": true, "continue": true, "else": true, "for": true, "function": true,
	"if": true, "import": true, "let": true, "loop": true, "package": true,
	"namespace": true, "return": true, "var": true, "void": true, "while": true,
	"int": true, "uint": true, "double": true, "bool": true, "string": true,
	"bytes": true, "list": true, "map": true, "null_type": true, "type": true, "dyn": true,
}

// Cache bounds. Environments are keyed by the declared variable set, programs by
// that set plus the expression.
const (
	maxEnvs     = 64
	maxPrograms = 1024
)

// programCache memoizes CEL environments and compiled programs in bounded LRUs.
type programCache struct {
	costLimit uint64

	mu       sync.Mutex
	base     *celgo.Env
	envs     *lru.Cache
	programs *lru.Cache
}

func newProgramCache(costLimit uint64) *programCache {
	return &programCache{
		costLimit: costLimit,
		envs:      lru.New(maxEnvs),
		programs:  lru.New(maxPrograms),
	}
}

func (c *programCache) program(expression string, names []string) (celgo.Program, error) {
	sig := strings.Join(names, ",")
	key := sig + "\x00" + expression

	c.mu.Lock()
	p, ok := c.programs.Get(key)
	c.mu.Unlock()
	if ok {
		return p.(celgo.Program), nil
	}

	env, err := c.env(sig, names)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile: %w", issues.Err())
	}
	prg, err := env.Program(ast,
		celgo.CostLimit(c.costLimit),
		celgo.InterruptCheckFrequency(100),
	)
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}

	c.mu.Lock()
	c.programs.Add(key, prg)
	c.mu.Unlock()
	return prg, nil
}

func (c *programCache) env(sig string, names []string) (*celgo.Env, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if env, ok := c.envs.Get(sig); ok {
		return env.(*celgo.Env), nil
	}
	if c.base == nil {
		base, err := celgo.NewEnv(baseOptions()...)
		if err != nil {
			return nil, fmt.Errorf("environment: %w", err)
		}
		c.base = base
	}

	vars := make([]celgo.EnvOption, 0, len(names))
	for _, name := range names {
		vars = append(vars, celgo.Variable(name, celgo.DynType))
	}
	env, err := c.base.Extend(vars...)
	if err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	c.envs.Add(sig, env)
	return env, nil
}

// declarable returns the sorted namespace keys usable as CEL variables.
func declarable(ns map[string]any) []string {
	names := make([]string, 0, len(ns))
	for k := range ns {
		if identifier.MatchString(k) && !reserved[k] {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// toCEL presents Go values to CEL. Maps and slices are copied so that CEL never
// aliases state.
func toCEL(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = toCEL(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = toCEL(val)
		}
		return out
	default:
		return v
	}
}

// fromCEL converts CEL results into JSON-friendly Go values: ref.Val is unwrapped,
// map keys become strings, nested maps and slices are normalized.
func fromCEL(v any) any {
	if _, ok := v.(types.Null); ok {
		return nil
	}
	if rv, ok := v.(ref.Val); ok {
		return fromCEL(rv.Value())
	}
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		return b
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(fromCEL(iter.Key().Interface()))
			out[k] = fromCEL(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = fromCEL(rv.Index(i).Interface())
		}
		return out
	default:
		return v
	}
}
