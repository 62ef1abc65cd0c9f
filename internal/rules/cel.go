package rules

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"burnish/internal/config"
	"burnish/internal/gateway"
	"burnish/internal/services"
	"burnish/internal/submission"
)

// newExpressionRule compiles a configured CEL predicate into a rule. The
// expression sees two map variables, `candidate` and `submission`, and must
// evaluate to a boolean: true means the check passes, false fires the
// configured violation reason. Compilation happens once at load; a runtime
// evaluation failure is a pipeline defect, not a rejection.
func newExpressionRule(expr config.RuleExpression) (Rule, error) {
	name := strings.TrimSpace(expr.Name)
	if name == "" {
		return Rule{}, services.Wrap(services.ErrConfiguration, "rules", "compile", "expression rule requires a name", nil)
	}
	reason := strings.TrimSpace(expr.Reason)
	if reason == "" {
		reason = name + "-violation"
	}

	env, err := cel.NewEnv(
		cel.Variable("candidate", cel.MapType(cel.StringType, cel.AnyType)),
		cel.Variable("submission", cel.MapType(cel.StringType, cel.AnyType)),
	)
	if err != nil {
		return Rule{}, services.Wrap(services.ErrConfiguration, "rules", "compile", "create expression environment", err)
	}
	ast, issues := env.Compile(expr.Expression)
	if issues != nil && issues.Err() != nil {
		return Rule{}, services.Wrap(services.ErrConfiguration, "rules", "compile",
			fmt.Sprintf("compile expression rule %q", name), issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return Rule{}, services.Wrap(services.ErrConfiguration, "rules", "compile",
			fmt.Sprintf("expression rule %q must evaluate to a boolean, got %s", name, ast.OutputType()), nil)
	}
	program, err := env.Program(ast)
	if err != nil {
		return Rule{}, services.Wrap(services.ErrConfiguration, "rules", "compile",
			fmt.Sprintf("build program for expression rule %q", name), err)
	}

	return Rule{
		Name: name,
		Check: func(candidate gateway.Candidate, sub submission.Submission) (string, error) {
			out, _, err := program.Eval(map[string]any{
				"candidate":  candidateVars(candidate),
				"submission": submissionVars(sub),
			})
			if err != nil {
				return "", fmt.Errorf("evaluate expression: %w", err)
			}
			pass, ok := out.Value().(bool)
			if !ok {
				return "", fmt.Errorf("expression returned %T, want bool", out.Value())
			}
			if !pass {
				return reason, nil
			}
			return "", nil
		},
	}, nil
}

func candidateVars(candidate gateway.Candidate) map[string]any {
	return map[string]any{
		"title":       candidate.Title,
		"description": candidate.Description,
		"tags":        candidate.Tags,
		"confidence":  candidate.Confidence,
		"provider":    candidate.Provider,
		"model":       candidate.Model,
	}
}

func submissionVars(sub submission.Submission) map[string]any {
	return map[string]any{
		"id":          sub.ID,
		"title":       sub.Title,
		"description": sub.Description,
		"tags":        sub.Tags,
		"transcript":  sub.Transcript,
	}
}
