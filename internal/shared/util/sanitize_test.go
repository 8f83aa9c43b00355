package util

import "testing"

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName(" voice/answer.webm ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "voice_answer.webm" {
		t.Fatalf("expected voice_answer.webm, got %q", got)
	}
}

func TestSanitizeFileNameRejectsTraversal(t *testing.T) {
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatalf("expected error for traversal pattern")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatalf("expected error for blank name")
	}
}
