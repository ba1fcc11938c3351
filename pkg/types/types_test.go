// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"
)

func TestNewQueryRequiresProvider(t *testing.T) {
	_, err := NewQuery("  ", "rust", nil)
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("NewQuery with blank provider: err = %v, want ErrInvalidQuery", err)
	}
}

func TestQueryIsImmutable(t *testing.T) {
	src := map[string]string{"category": "backend"}
	q, err := NewQuery("serper", "rust", src)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}

	// Mutating the source map or a returned copy must not leak into the query.
	src["category"] = "mutated"
	got := q.Params()
	got["category"] = "also mutated"

	if q.Param("category") != "backend" {
		t.Errorf("Param(category) = %q, want %q", q.Param("category"), "backend")
	}
	if q.Param("topic") != "rust" {
		t.Errorf("Param(topic) = %q, want %q", q.Param("topic"), "rust")
	}
}

func TestResearchRequestValidate(t *testing.T) {
	if err := (ResearchRequest{Topic: "rust"}).Validate(); err != nil {
		t.Errorf("Validate() with topic = %v, want nil", err)
	}
	if err := (ResearchRequest{Topic: " \t"}).Validate(); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("Validate() without topic = %v, want ErrInvalidQuery", err)
	}
}
