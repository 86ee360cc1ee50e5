package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/a11yscan/internal/config"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	if cmd.Use != "init" {
		t.Errorf("expected use 'init', got %q", cmd.Use)
	}
	flag := cmd.Flags().Lookup("output")
	if flag == nil || flag.Shorthand != "o" || flag.DefValue != config.DefaultConfigFile {
		t.Errorf("unexpected output flag %+v", flag)
	}
	flag = cmd.Flags().Lookup("force")
	if flag == nil || flag.Shorthand != "f" || flag.DefValue != "false" {
		t.Errorf("unexpected force flag %+v", flag)
	}
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "nested", ".a11yscan")
		out, err := executeCmd(t, "init", "-o", outputPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, outputPath) {
			t.Errorf("output does not name the file: %s", out)
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			t.Fatalf("expected config file to be created: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
		}

		file, err := config.LoadConfigFile(outputPath)
		if err != nil {
			t.Fatalf("template does not parse: %v", err)
		}
		if file.Defaults.Depth != config.DefaultCrawlDepth {
			t.Errorf("template depth = %d", file.Defaults.Depth)
		}
		if file.ReportModes["contrast"] != "aggregate" {
			t.Errorf("template report modes = %v", file.ReportModes)
		}

		cfg := config.NewConfig()
		cfg.Targets = []string{"."}
		cfg.ApplyFile(file)
		if err := cfg.Validate(); err != nil {
			t.Errorf("template settings do not validate: %v", err)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".a11yscan")
		if err := os.WriteFile(outputPath, []byte("custom"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := executeCmd(t, "init", "-o", outputPath); err == nil {
			t.Fatal("expected error for existing file")
		}
		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "custom" {
			t.Error("existing file was modified")
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".a11yscan")
		if err := os.WriteFile(outputPath, []byte("custom"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := executeCmd(t, "init", "-o", outputPath, "-f"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "reportModes:") {
			t.Error("expected the template content")
		}
	})
}
