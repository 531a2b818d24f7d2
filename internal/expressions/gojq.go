package expressions

import (
	"fmt"
	"sync"

	"github.com/itchyny/gojq"
)

// GoJQEngine checks jq transform expressions used by process nodes.
// Thread-safe: compilation results are cached and reused across goroutines.
type GoJQEngine struct {
	mu    sync.RWMutex
	cache map[string]error
}

// NewGoJQEngine creates a new GoJQ engine.
func NewGoJQEngine() *GoJQEngine {
	return &GoJQEngine{
		cache: make(map[string]error),
	}
}

// Name returns the engine identifier.
func (e *GoJQEngine) Name() string {
	return "jq"
}

// Compile checks that the expression parses and compiles as a jq program.
func (e *GoJQEngine) Compile(expression string) error {
	if expression == "" {
		return fmt.Errorf("empty jq expression")
	}

	e.mu.RLock()
	res, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return res
	}

	err := e.compile(expression)

	e.mu.Lock()
	e.cache[expression] = err
	e.mu.Unlock()
	return err
}

func (e *GoJQEngine) compile(expression string) error {
	query, err := gojq.Parse(expression)
	if err != nil {
		return fmt.Errorf("jq parse %q: %w", expression, err)
	}
	if _, err := gojq.Compile(query); err != nil {
		return fmt.Errorf("jq compile %q: %w", expression, err)
	}
	return nil
}
