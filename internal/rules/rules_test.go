package rules

import (
	"errors"
	"reflect"
	"testing"

	"burnish/internal/config"
	"burnish/internal/gateway"
	"burnish/internal/submission"
)

func policyConfig() config.Rules {
	return config.Rules{
		MinConfidence:  0.5,
		TitleMinLength: 3,
		TitleMaxLength: 40,
		MaxTags:        5,
		BannedTags:     []string{"violence", "gore"},
		BannedTerms:    []string{"free money"},
	}
}

func cleanCandidate() gateway.Candidate {
	return gateway.Candidate{
		Title:       "Cat Video Highlights",
		Description: "A compilation of calm cat moments.",
		Tags:        []string{"cats", "pets"},
		Confidence:  0.9,
	}
}

func TestEvaluateCleanCandidatePasses(t *testing.T) {
	set, err := NewSetFromConfig(policyConfig())
	if err != nil {
		t.Fatalf("NewSetFromConfig returned error: %v", err)
	}
	violations, err := set.Evaluate(cleanCandidate(), submission.Submission{ID: "v1"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestEvaluateBannedTagFires(t *testing.T) {
	set, err := NewSetFromConfig(policyConfig())
	if err != nil {
		t.Fatalf("NewSetFromConfig returned error: %v", err)
	}
	candidate := cleanCandidate()
	candidate.Tags = append(candidate.Tags, "violence")

	violations, err := set.Evaluate(candidate, submission.Submission{ID: "v1", Title: "cat video"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	want := []string{"violence-tag-present"}
	if !reflect.DeepEqual(violations, want) {
		t.Fatalf("expected %v, got %v", want, violations)
	}
}

func TestEvaluateCollectsViolationsInOrder(t *testing.T) {
	set, err := NewSetFromConfig(policyConfig())
	if err != nil {
		t.Fatalf("NewSetFromConfig returned error: %v", err)
	}
	candidate := gateway.Candidate{
		Title:       "ab",
		Description: "claim your free money now",
		Tags:        []string{"gore"},
		Confidence:  0.2,
	}
	violations, err := set.Evaluate(candidate, submission.Submission{ID: "v1"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	want := []string{"title-too-short", "gore-tag-present", "banned-term-free money", "confidence-below-threshold"}
	if !reflect.DeepEqual(violations, want) {
		t.Fatalf("expected %v, got %v", want, violations)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	set, err := NewSetFromConfig(policyConfig())
	if err != nil {
		t.Fatalf("NewSetFromConfig returned error: %v", err)
	}
	candidate := cleanCandidate()
	candidate.Tags = []string{"violence", "gore"}
	candidate.Confidence = 0.1
	sub := submission.Submission{ID: "v1"}

	first, err := set.Evaluate(candidate, sub)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := set.Evaluate(candidate, sub)
		if err != nil {
			t.Fatalf("Evaluate returned error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged: %v vs %v", i, first, again)
		}
	}
}

func TestEvaluateSurfacesEvaluationError(t *testing.T) {
	set, err := NewSetFromConfig(policyConfig())
	if err != nil {
		t.Fatalf("NewSetFromConfig returned error: %v", err)
	}
	candidate := cleanCandidate()
	candidate.Confidence = 1.5

	_, err = set.Evaluate(candidate, submission.Submission{ID: "v1"})
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected *EvaluationError, got %v", err)
	}
	if evalErr.Rule != "min-confidence" {
		t.Fatalf("unexpected failing rule %q", evalErr.Rule)
	}
}

func TestExpressionRulePassAndFail(t *testing.T) {
	cfg := config.Rules{
		Expressions: []config.RuleExpression{
			{
				Name:       "description-required",
				Expression: `candidate.description != ""`,
				Reason:     "description-missing",
			},
		},
	}
	set, err := NewSetFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewSetFromConfig returned error: %v", err)
	}

	candidate := cleanCandidate()
	violations, err := set.Evaluate(candidate, submission.Submission{ID: "v1"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestExpressionRuleFires(t *testing.T) {
	cfg := config.Rules{
		Expressions: []config.RuleExpression{
			{
				Name:       "description-required",
				Expression: `candidate.description != ""`,
				Reason:     "description-missing",
			},
		},
	}
	set, err := NewSetFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewSetFromConfig returned error: %v", err)
	}

	candidate := cleanCandidate()
	candidate.Description = ""
	violations, err := set.Evaluate(candidate, submission.Submission{ID: "v1"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	want := []string{"description-missing"}
	if !reflect.DeepEqual(violations, want) {
		t.Fatalf("expected %v, got %v", want, violations)
	}
}

func TestExpressionRuleCompileError(t *testing.T) {
	cfg := config.Rules{
		Expressions: []config.RuleExpression{
			{Name: "broken", Expression: `candidate.`},
		},
	}
	if _, err := NewSetFromConfig(cfg); err == nil {
		t.Fatal("expected compile error for malformed expression")
	}
}

func TestExpressionRuleNonBooleanRejectedAtLoad(t *testing.T) {
	cfg := config.Rules{
		Expressions: []config.RuleExpression{
			{Name: "not-bool", Expression: `candidate.title`},
		},
	}
	if _, err := NewSetFromConfig(cfg); err == nil {
		t.Fatal("expected load error for non-boolean expression")
	}
}
