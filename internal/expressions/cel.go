package expressions

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// CELEngine checks condition expressions using Google's Common Expression
// Language. Thread-safe: compilation results are cached and reused across
// goroutines.
type CELEngine struct {
	env *cel.Env

	mu    sync.RWMutex
	cache map[string]error
}

// NewCELEngine creates a CEL engine with a sandboxed environment. The
// environment exposes the variables a flow condition can reference:
//   - input:  map(string, dyn) — the current input payload
//   - nodes:  map(string, dyn) — upstream node outputs keyed by node ID
//   - flow:   map(string, dyn) — flow metadata
func NewCELEngine() (*CELEngine, error) {
	mapType := cel.MapType(cel.StringType, cel.DynType)

	env, err := cel.NewEnv(
		cel.Variable("input", mapType),
		cel.Variable("nodes", mapType),
		cel.Variable("flow", mapType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &CELEngine{
		env:   env,
		cache: make(map[string]error),
	}, nil
}

// Name returns the engine identifier.
func (e *CELEngine) Name() string {
	return "cel"
}

// Compile checks that the expression parses and type-checks in the sandboxed
// environment. The outcome is cached per expression.
func (e *CELEngine) Compile(expression string) error {
	if expression == "" {
		return fmt.Errorf("empty cel expression")
	}

	e.mu.RLock()
	res, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return res
	}

	_, issues := e.env.Compile(expression)
	var err error
	if issues != nil && issues.Err() != nil {
		err = fmt.Errorf("cel compile %q: %w", expression, issues.Err())
	}

	e.mu.Lock()
	e.cache[expression] = err
	e.mu.Unlock()
	return err
}
