// ABOUTME: Tests for Document construction
// ABOUTME: Verifies fresh documents get unique IDs and timestamps
package models

import "testing"

func TestNewDocument(t *testing.T) {
	a := NewDocument("Title", "The Economist", "body text")
	b := NewDocument("Title", "The Economist", "body text")

	if a.ID == "" {
		t.Fatal("ID should not be empty")
	}
	if a.ID == b.ID {
		t.Errorf("IDs should be unique, both were %q", a.ID)
	}
	if a.AddedAt.IsZero() {
		t.Error("AddedAt should be set")
	}
	if a.Source != "The Economist" || a.Title != "Title" || a.Text != "body text" {
		t.Errorf("fields not copied: %+v", a)
	}
}
