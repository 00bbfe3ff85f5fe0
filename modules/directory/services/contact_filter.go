package services

import (
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

// contactFilter evaluates boolean CEL expressions over a contact, e.g.
// `contact.type == "person" && contact.department.startsWith("Agri")`.
// Compiled programs are cached per expression.
type contactFilter struct {
	env      *cel.Env
	programs sync.Map
}

var newContactFilterEnv = func() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable("contact", cel.MapType(cel.StringType, cel.StringType)))
}

func newContactFilter() (*contactFilter, error) {
	env, err := newContactFilterEnv()
	if err != nil {
		return nil, err
	}
	return &contactFilter{env: env}, nil
}

func filterError(msg string) error {
	return &hierarchy.ValidationError{Field: "filter", Message: msg}
}

func (f *contactFilter) program(expr string) (cel.Program, error) {
	if cached, ok := f.programs.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	ast, issues := f.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, filterError(issues.Err().Error())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, filterError("expression must evaluate to a boolean")
	}
	program, err := f.env.Program(ast)
	if err != nil {
		return nil, filterError(err.Error())
	}
	f.programs.Store(expr, program)
	return program, nil
}

// Compile checks expr without evaluating it.
func (f *contactFilter) Compile(expr string) error {
	_, err := f.program(strings.TrimSpace(expr))
	return err
}

func (f *contactFilter) Match(expr string, v ContactView) (bool, error) {
	program, err := f.program(strings.TrimSpace(expr))
	if err != nil {
		return false, err
	}
	out, _, err := program.Eval(map[string]any{"contact": v.celFields()})
	if err != nil {
		return false, filterError(err.Error())
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, filterError("expression must evaluate to a boolean")
	}
	return matched, nil
}
