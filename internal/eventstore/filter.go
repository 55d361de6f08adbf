package eventstore

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	pdderrors "github.com/livp123/pddash/pkg/errors"
)

// CompileFilter compiles an expr-lang expression into a Filter.
// The expression sees the decoded event as `event` and, for JSON objects, each
// top-level key as a variable. Missing keys evaluate to nil.
// An empty expression yields a nil Filter (no filtering).
// CompileFilter 将 expr-lang 表达式编译为 Filter。
func CompileFilter(src string) (Filter, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, nil
	}

	program, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, pdderrors.NewFilterError(src, err)
	}

	return func(e Event) bool {
		return matches(program, e)
	}, nil
}

func matches(program *vm.Program, e Event) bool {
	v, err := e.Decode()
	if err != nil {
		return false
	}

	env := map[string]any{"event": v}
	if obj, ok := v.(map[string]any); ok {
		for k, val := range obj {
			if k == "event" {
				continue
			}
			env[k] = val
		}
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false
	}
	matched, ok := out.(bool)
	return ok && matched
}
