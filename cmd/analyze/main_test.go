package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mask-the-sequence/game/engine"
)

func writeRuleSet(t *testing.T, dir, name string, rules *engine.RuleSet) string {
	t.Helper()
	data, err := json.Marshal(rules)
	if err != nil {
		t.Fatalf("Failed to marshal rule set: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write rule set: %v", err)
	}
	return path
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{
			name: "Defaults",
			args: nil,
			want: options{path: "configs", rounds: 1000, seed: 1, bot: "greedy"},
		},
		{
			name: "Overrides",
			args: []string{"-config", "x.json", "-rounds", "10", "-seed", "9", "-bot", "random"},
			want: options{path: "x.json", rounds: 10, seed: 9, bot: "random"},
		},
		{
			name:    "Zero rounds",
			args:    []string{"-rounds", "0"},
			wantErr: true,
		},
		{
			name:    "Unknown flag",
			args:    []string{"-nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestRuleSetFiles(t *testing.T) {
	dir := t.TempDir()
	writeRuleSet(t, dir, "b.json", engine.DefaultRuleSet())
	writeRuleSet(t, dir, "a.yaml", engine.DefaultRuleSet())
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := ruleSetFiles(dir)
	if err != nil {
		t.Fatalf("ruleSetFiles failed: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.yaml" || filepath.Base(files[1]) != "b.json" {
		t.Errorf("Unexpected files: %v", files)
	}

	single, err := ruleSetFiles(files[1])
	if err != nil || len(single) != 1 {
		t.Errorf("Expected the single file back, got %v (%v)", single, err)
	}

	if _, err := ruleSetFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing path")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeRuleSet(t, dir, "classic.json", engine.DefaultRuleSet())
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run([]string{"-config", dir, "-rounds", "20"}, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"=== Analyzing broken.json ===", "Error:", "=== Analyzing classic.json ===", "Name: classic", "WIN RATE", "tier_1", "tier_3"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output:\n%s", want, text)
		}
	}
}

func TestRunErrors(t *testing.T) {
	empty := t.TempDir()

	var out bytes.Buffer
	if err := run([]string{"-config", empty}, &out); err == nil {
		t.Error("Expected error for empty directory")
	}

	dir := t.TempDir()
	writeRuleSet(t, dir, "classic.json", engine.DefaultRuleSet())
	if err := run([]string{"-config", dir, "-bot", "oracle"}, &out); err == nil {
		t.Error("Expected error for unknown bot")
	}
}
