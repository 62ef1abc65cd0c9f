package rules

import (
	"errors"
	"fmt"
	"strings"

	"burnish/internal/config"
	"burnish/internal/gateway"
	"burnish/internal/submission"
)

// NewSetFromConfig assembles the moderation policy from configuration. The
// builtin checks run first in a fixed order, followed by any configured CEL
// expressions in declaration order, so violation ordering is stable for a
// given configuration.
func NewSetFromConfig(cfg config.Rules) (*Set, error) {
	var ruleList []Rule
	ruleList = append(ruleList, requiredTitleRule())
	if cfg.TitleMinLength > 0 || cfg.TitleMaxLength > 0 {
		ruleList = append(ruleList, titleLengthRule(cfg.TitleMinLength, cfg.TitleMaxLength))
	}
	if cfg.MaxTags > 0 {
		ruleList = append(ruleList, maxTagsRule(cfg.MaxTags))
	}
	if len(cfg.BannedTags) > 0 {
		ruleList = append(ruleList, bannedTagsRule(cfg.BannedTags))
	}
	if len(cfg.BannedTerms) > 0 {
		ruleList = append(ruleList, bannedTermsRule(cfg.BannedTerms))
	}
	if cfg.MinConfidence > 0 {
		ruleList = append(ruleList, minConfidenceRule(cfg.MinConfidence))
	}
	for _, expr := range cfg.Expressions {
		rule, err := newExpressionRule(expr)
		if err != nil {
			return nil, err
		}
		ruleList = append(ruleList, rule)
	}
	return NewSet(ruleList...), nil
}

func requiredTitleRule() Rule {
	return Rule{
		Name: "required-title",
		Check: func(candidate gateway.Candidate, _ submission.Submission) (string, error) {
			if strings.TrimSpace(candidate.Title) == "" {
				return "title-missing", nil
			}
			return "", nil
		},
	}
}

func titleLengthRule(minLength, maxLength int) Rule {
	return Rule{
		Name: "title-length",
		Check: func(candidate gateway.Candidate, _ submission.Submission) (string, error) {
			length := len([]rune(strings.TrimSpace(candidate.Title)))
			if length == 0 {
				// required-title owns the missing case.
				return "", nil
			}
			if minLength > 0 && length < minLength {
				return "title-too-short", nil
			}
			if maxLength > 0 && length > maxLength {
				return "title-too-long", nil
			}
			return "", nil
		},
	}
}

func maxTagsRule(maxTags int) Rule {
	return Rule{
		Name: "max-tags",
		Check: func(candidate gateway.Candidate, _ submission.Submission) (string, error) {
			if len(candidate.Tags) > maxTags {
				return "too-many-tags", nil
			}
			return "", nil
		},
	}
}

func bannedTagsRule(banned []string) Rule {
	lookup := make(map[string]struct{}, len(banned))
	for _, tag := range banned {
		lookup[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	return Rule{
		Name: "banned-tags",
		Check: func(candidate gateway.Candidate, _ submission.Submission) (string, error) {
			for _, tag := range candidate.Tags {
				if _, hit := lookup[strings.ToLower(strings.TrimSpace(tag))]; hit {
					return fmt.Sprintf("%s-tag-present", strings.ToLower(strings.TrimSpace(tag))), nil
				}
			}
			return "", nil
		},
	}
}

func bannedTermsRule(terms []string) Rule {
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		if trimmed := strings.ToLower(strings.TrimSpace(term)); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return Rule{
		Name: "banned-terms",
		Check: func(candidate gateway.Candidate, _ submission.Submission) (string, error) {
			haystack := strings.ToLower(candidate.Title + " " + candidate.Description)
			for _, term := range cleaned {
				if strings.Contains(haystack, term) {
					return fmt.Sprintf("banned-term-%s", term), nil
				}
			}
			return "", nil
		},
	}
}

func minConfidenceRule(minimum float64) Rule {
	return Rule{
		Name: "min-confidence",
		Check: func(candidate gateway.Candidate, _ submission.Submission) (string, error) {
			if candidate.Confidence < 0 || candidate.Confidence > 1 {
				return "", errors.New("confidence out of range")
			}
			if candidate.Confidence < minimum {
				return "confidence-below-threshold", nil
			}
			return "", nil
		},
	}
}
