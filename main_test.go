package main

import (
	"reflect"
	"strings"
	"testing"
)

func TestReadSelection(t *testing.T) {
	input := strings.NewReader(`
/library/a.jpg

# a comment
sub/b.jpg
  /library/c.jpg
`)

	got, err := readSelection(input)
	if err != nil {
		t.Fatalf("readSelection failed: %v", err)
	}

	want := []string{"/library/a.jpg", "sub/b.jpg", "/library/c.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("readSelection = %v, want %v", got, want)
	}
}

func TestReadSelectionEmpty(t *testing.T) {
	got, err := readSelection(strings.NewReader("\n# only comments\n"))
	if err != nil {
		t.Fatalf("readSelection failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Expected empty selection, got %v", got)
	}
}

func TestPluralize(t *testing.T) {
	if got := pluralize(1, "photo", "photos"); got != "photo" {
		t.Errorf("pluralize(1) = %q", got)
	}
	if got := pluralize(2, "photo", "photos"); got != "photos" {
		t.Errorf("pluralize(2) = %q", got)
	}
	if got := pluralize(0, "photo", "photos"); got != "photos" {
		t.Errorf("pluralize(0) = %q", got)
	}
}
