// Package rules implements the content moderation policy as an ordered set
// of pure predicates over generated metadata.
package rules

import (
	"fmt"

	"burnish/internal/gateway"
	"burnish/internal/submission"
)

// CheckFunc inspects a candidate (and the originating submission) and
// returns a violation reason, or "" when the check passes. A non-nil error
// means the rule could not be evaluated at all, which is a pipeline defect
// rather than a moderation outcome.
type CheckFunc func(candidate gateway.Candidate, sub submission.Submission) (string, error)

// Rule is a single named moderation check. Rules are immutable after
// construction and must be pure functions of their inputs.
type Rule struct {
	Name  string
	Check CheckFunc
}

// EvaluationError reports a rule that failed to execute. It is distinct from
// a policy violation and must never be folded into a rejected verdict.
type EvaluationError struct {
	Rule string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("rule %q evaluation failed: %v", e.Rule, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Set is a fixed, ordered collection of rules. Evaluation order is the
// declaration order, so violation lists are reproducible. A Set is read-only
// and safe for concurrent use.
type Set struct {
	rules []Rule
}

// NewSet builds a set from the given rules, preserving order.
func NewSet(ruleList ...Rule) *Set {
	copied := make([]Rule, len(ruleList))
	copy(copied, ruleList)
	return &Set{rules: copied}
}

// Len reports the number of rules in the set.
func (s *Set) Len() int { return len(s.rules) }

// Names lists the rule names in evaluation order.
func (s *Set) Names() []string {
	names := make([]string, len(s.rules))
	for i, rule := range s.rules {
		names[i] = rule.Name
	}
	return names
}

// Evaluate runs every rule against the candidate in declaration order and
// collects violation reasons. An empty slice means the candidate passed. The
// first rule that fails to execute aborts evaluation with an
// *EvaluationError.
func (s *Set) Evaluate(candidate gateway.Candidate, sub submission.Submission) ([]string, error) {
	var violations []string
	for _, rule := range s.rules {
		reason, err := rule.Check(candidate, sub)
		if err != nil {
			return nil, &EvaluationError{Rule: rule.Name, Err: err}
		}
		if reason != "" {
			violations = append(violations, reason)
		}
	}
	return violations, nil
}
