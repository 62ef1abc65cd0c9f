package submission_test

import (
	"errors"
	"testing"

	"burnish/internal/services"
	"burnish/internal/submission"
)

func TestValidateRequiresID(t *testing.T) {
	sub := submission.Submission{Title: "cat video"}
	err := sub.Validate()
	if err == nil {
		t.Fatal("expected error for missing id")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestValidateRequiresMetadata(t *testing.T) {
	sub := submission.Submission{ID: "v1", Tags: []string{"  "}}
	if err := sub.Validate(); err == nil {
		t.Fatal("expected error for empty metadata")
	}
}

func TestValidateAcceptsAnyPopulatedField(t *testing.T) {
	cases := []submission.Submission{
		{ID: "v1", Title: "cat video"},
		{ID: "v2", Description: "a video about cats"},
		{ID: "v3", Transcript: "meow"},
		{ID: "v4", Tags: []string{"cats"}},
	}
	for _, sub := range cases {
		if err := sub.Validate(); err != nil {
			t.Fatalf("expected %q to validate, got %v", sub.ID, err)
		}
	}
}
