package testrunner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverFindsFixtures(t *testing.T) {
	paths, err := Discover(filepath.Join("..", "..", "testdata"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(paths) == 0 {
		t.Fatalf("Discover found no .vhpt fixtures under testdata")
	}
}

func TestSpecScenarios(t *testing.T) {
	root := filepath.Join("..", "..", "testdata")
	paths, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	for _, path := range paths {
		path := path
		t.Run(path, func(t *testing.T) {
			tc, err := ParseFile(path)
			if err != nil {
				t.Fatalf("ParseFile: %v", err)
			}
			res := Run(tc)
			if res.Skipped {
				t.Skipf("skipped: %s", res.Reason)
			}
			if !res.Passed {
				t.Fatalf("got %q, err=%v", res.Got, res.Err)
			}
		})
	}
}

func TestMatchExpectF(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		actual  string
		want    bool
	}{
		{"literal match", "7", "7", true},
		{"digit wildcard", "%d", "42", true},
		{"digit wildcard rejects letters", "%d", "abc", false},
		{"any wildcard spans newlines", "7%a", "7\nmore", true},
		{"string wildcard is non-greedy", "a%sb", "axxxb", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExpectF(tt.pattern, tt.actual); got != tt.want {
				t.Errorf("matchExpectF(%q, %q) = %v, want %v", tt.pattern, tt.actual, got, tt.want)
			}
		})
	}
}

func TestNormalizeFoldsCRLFAndTrims(t *testing.T) {
	got := normalize("  a\r\nb\r\n  ")
	if got != "a\nb" {
		t.Errorf("normalize = %q, want %q", got, "a\nb")
	}
}

func TestParseFileRequiresTestSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.vhpt")
	if err := os.WriteFile(path, []byte("--FILE--\n<?php echo 1;\n--EXPECT--\n1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ParseFile(path); err == nil {
		t.Fatalf("expected an error for a fixture missing --TEST--")
	}
}
