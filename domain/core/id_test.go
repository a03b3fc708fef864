package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseDatasetID tests dataset ID parsing
func TestParseDatasetID(t *testing.T) {
	valid := NewDatasetID().String()

	tests := []struct {
		input    string
		hasError bool
	}{
		{valid, false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, tt := range tests {
		got, err := ParseDatasetID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseDatasetID(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDatasetID(%q) unexpected error: %v", tt.input, err)
		}
		if got.String() != tt.input {
			t.Errorf("ParseDatasetID(%q) = %q", tt.input, got)
		}
	}
}

// TestSchemaHashOrderSensitive verifies column order changes the fingerprint
func TestSchemaHashOrderSensitive(t *testing.T) {
	a := SchemaHash([]string{"x", "y"}, []string{"numeric", "text"})
	b := SchemaHash([]string{"y", "x"}, []string{"text", "numeric"})
	c := SchemaHash([]string{"x", "y"}, []string{"numeric", "text"})

	if a == b {
		t.Error("Expected different hashes for reordered columns")
	}
	if a != c {
		t.Error("Expected identical schemas to hash identically")
	}
	if len(a.Short()) != 12 {
		t.Errorf("Expected 12-character short hash, got %q", a.Short())
	}
}
