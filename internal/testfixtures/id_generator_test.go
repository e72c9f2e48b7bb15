package testfixtures

import (
	"testing"

	"github.com/google/uuid"
)

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("res")

	if first, second := gen.Next(), gen.Next(); first != "res-1" || second != "res-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}

	gen.Reset()
	if next := gen.Next(); next != "res-1" {
		t.Fatalf("expected res-1 after reset, got %q", next)
	}
}

func TestNilIDGeneratorFallsBackToUUID(t *testing.T) {
	var gen *IDGenerator
	id := gen.NextFunc()()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected a uuid, got %q: %v", id, err)
	}
}
