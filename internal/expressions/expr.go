package expressions

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
)

// ExprEngine checks expressions written in expr-lang/expr: let bindings,
// array operations (filter, map, any, all, sum), nil coalescing (??),
// optional chaining (?.) and pipe chaining (|).
// Thread-safe: compilation results are cached and reused across goroutines.
type ExprEngine struct {
	mu    sync.RWMutex
	cache map[string]error
}

// NewExprEngine creates a new Expr engine.
func NewExprEngine() *ExprEngine {
	return &ExprEngine{
		cache: make(map[string]error),
	}
}

// Name returns the engine identifier.
func (e *ExprEngine) Name() string {
	return "expr"
}

// Compile checks that the expression compiles against an open environment.
func (e *ExprEngine) Compile(expression string) error {
	if expression == "" {
		return fmt.Errorf("empty expr expression")
	}

	e.mu.RLock()
	res, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return res
	}

	var err error
	if _, compileErr := expr.Compile(expression, expr.AllowUndefinedVariables()); compileErr != nil {
		err = fmt.Errorf("expr compile %q: %w", expression, compileErr)
	}

	e.mu.Lock()
	e.cache[expression] = err
	e.mu.Unlock()
	return err
}
