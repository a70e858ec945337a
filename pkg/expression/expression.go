// Package expression evaluates small, side-effect free expressions over
// execution context variables. Only an explicit allow-list of builtins is
// available; there is no I/O, no environment access and no imports.
package expression

import (
	"errors"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/fieldflow/orchestrator/pkg/models"
)

// AllowedBuiltins lists the builtins re-enabled after disabling all of them.
var AllowedBuiltins = []string{
	// numeric
	"abs", "ceil", "floor", "round", "min", "max", "sum", "mean", "int", "float",
	// string
	"string", "upper", "lower", "trim", "split", "join", "replace",
	"hasPrefix", "hasSuffix", "indexOf",
	// collection
	"len", "keys", "values", "first", "last", "sort", "reverse",
	"filter", "map", "all", "any", "none", "count",
}

const maxCachedPrograms = 1024

var ErrEmptyExpression = errors.New("empty expression")

type Evaluator struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

func NewEvaluator() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

var defaultEvaluator = NewEvaluator()

func Evaluate(source string, env map[string]any) (any, error) {
	return defaultEvaluator.Evaluate(source, env)
}

func EvaluateBool(source string, env map[string]any) (bool, error) {
	return defaultEvaluator.EvaluateBool(source, env)
}

// Evaluate compiles (or reuses) source and runs it against env. Unknown
// identifiers evaluate to nil.
func (e *Evaluator) Evaluate(source string, env map[string]any) (any, error) {
	if source == "" {
		return nil, ErrEmptyExpression
	}

	program, err := e.compile(source)
	if err != nil {
		return nil, err
	}

	if env == nil {
		env = map[string]any{}
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", source, err)
	}

	return out, nil
}

func (e *Evaluator) EvaluateBool(source string, env map[string]any) (bool, error) {
	out, err := e.Evaluate(source, env)
	if err != nil {
		return false, err
	}

	b, err := models.ToBool(out)
	if err != nil {
		return false, fmt.Errorf("expression %q did not produce a boolean: %w", source, err)
	}

	return b, nil
}

func (e *Evaluator) compile(source string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if program, ok := e.programs[source]; ok {
		return program, nil
	}

	options := make([]expr.Option, 0, len(AllowedBuiltins)+2)
	options = append(options, expr.AllowUndefinedVariables(), expr.DisableAllBuiltins())

	for _, name := range AllowedBuiltins {
		options = append(options, expr.EnableBuiltin(name))
	}

	program, err := expr.Compile(source, options...)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", source, err)
	}

	if len(e.programs) >= maxCachedPrograms {
		clear(e.programs)
	}

	e.programs[source] = program

	return program, nil
}
