package expressions

// Engine statically checks expressions declared on flow nodes.
// Three implementations: CEL (conditions), Expr (logic), GoJQ (transforms).
// Compile never evaluates anything; it only reports whether the expression
// is well-formed for its engine.
type Engine interface {
	Name() string
	Compile(expression string) error
}

// EngineSet bundles the three engines and resolves them by name.
type EngineSet struct {
	cel  *CELEngine
	expr *ExprEngine
	jq   *GoJQEngine
}

// NewEngineSet creates the default engine set.
func NewEngineSet() (*EngineSet, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	return &EngineSet{
		cel:  celEngine,
		expr: NewExprEngine(),
		jq:   NewGoJQEngine(),
	}, nil
}

// ByName returns the engine for the given name, or nil if unknown.
func (s *EngineSet) ByName(name string) Engine {
	switch name {
	case "cel":
		return s.cel
	case "expr":
		return s.expr
	case "jq":
		return s.jq
	default:
		return nil
	}
}
