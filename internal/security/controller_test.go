package security

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

func hasRule(findings []finding.Finding, id string, level finding.RiskLevel) bool {
	for _, f := range findings {
		if f.RuleID == id && f.Level == level {
			return true
		}
	}
	return false
}

func hasRulePrefix(findings []finding.Finding, prefix string) bool {
	for _, f := range findings {
		if strings.HasPrefix(f.RuleID, prefix) {
			return true
		}
	}
	return false
}

func TestScanner_DirectEval(t *testing.T) {
	for _, code := range []string{`eval("1+1")`, "x = input()\nexec(x)"} {
		r := NewScanner(nil).Scan(code)
		assert.True(t, r.Blocked, code)
		assert.True(t, hasRule(r.Issues, "EXEC001", finding.LevelCritical), code)
		assert.Equal(t, ParseOK, r.Parse)
	}
}

func TestScanner_AliasedSystem(t *testing.T) {
	r := NewScanner(nil).Scan(`from os import system as s; s("whoami")`)
	assert.True(t, r.Blocked)
	assert.True(t, hasRule(r.Issues, "PROC001", finding.LevelCritical))
}

func TestScanner_ShellCellMagic(t *testing.T) {
	for _, code := range []string{
		"%%bash\nrm -rf /",
		"%%sh\necho hi",
		"%%script bash\nls",
		"%%bash\nimport os\nprint(os.getcwd())",
	} {
		t.Run(code, func(t *testing.T) {
			r := NewScanner(nil).Scan(code)
			assert.True(t, r.Blocked)
			assert.True(t, strings.HasPrefix(r.BlockReason, "[pre-parse] "), r.BlockReason)
			assert.Equal(t, ParseNotAttempted, r.Parse)
			assert.Equal(t, "MAGIC001", r.Issues[0].RuleID)
		})
	}
}

func TestScanner_EnvironAssignment(t *testing.T) {
	r := NewScanner(nil).Scan("import os\nos.environ[\"PATH\"] = \"/evil\"")
	assert.True(t, r.Blocked)
	assert.True(t, hasRulePrefix(r.Issues, "ENV"))
}

func TestScanner_SubprocessShell(t *testing.T) {
	shell := NewScanner(nil).Scan("import subprocess\nsubprocess.run(\"ls\", shell=True)")
	assert.True(t, shell.Blocked)
	assert.True(t, hasRule(shell.Issues, "PROC002", finding.LevelCritical))

	relaxed := NewScanner(&Policy{BlockHighRisk: false})
	noShell := relaxed.Scan("import subprocess\nsubprocess.run([\"ls\"])")
	assert.False(t, noShell.Blocked)
	assert.False(t, noShell.IsSafe)
	assert.True(t, hasRule(noShell.Issues, "PROC003", finding.LevelHigh))

	assert.True(t, NewScanner(nil).Scan("import subprocess\nsubprocess.run([\"ls\"])").Blocked)
}

func TestScanner_Benign(t *testing.T) {
	r := NewScanner(nil).Scan("import numpy as np\nx = np.array([1,2,3])\nprint(x.mean())")
	assert.True(t, r.IsSafe)
	assert.False(t, r.Blocked)
	assert.Empty(t, r.Issues)
	assert.Empty(t, r.BlockReason)
	assert.Equal(t, ParseOK, r.Parse)
}

func TestScanner_EmptyInput(t *testing.T) {
	for _, code := range []string{"", "   \n\t "} {
		r := NewScanner(nil).Scan(code)
		assert.True(t, r.IsSafe)
		assert.False(t, r.Blocked)
		assert.Empty(t, r.Issues)
		assert.Equal(t, ParseNotAttempted, r.Parse)
	}
}

func TestScanner_Idempotent(t *testing.T) {
	s := NewScanner(nil)
	inputs := []string{
		"import os\nos.system('ls')\nimport threading\n",
		"!ls\nimport pickle\npickle.loads(b)",
		"%%html\n<b>x</b>",
		"def broken(:",
	}
	for _, code := range inputs {
		assert.Equal(t, s.Scan(code), s.Scan(code), code)
	}
}

func TestScanner_CriticalBeatsHigh(t *testing.T) {
	code := "import yaml\nyaml.load(s)\neval('1')"
	r := NewScanner(nil).Scan(code)
	require.True(t, r.Blocked)
	assert.True(t, hasRule(r.Issues, "PICKLE002", finding.LevelHigh))
	assert.True(t, strings.HasPrefix(r.BlockReason, "Direct call to a dynamic code execution builtin"), r.BlockReason)
}

func TestScanner_ThreadImportVersusInstantiation(t *testing.T) {
	s := NewScanner(nil)

	imported := s.Scan("from threading import Thread")
	require.Len(t, imported.Issues, 1)
	assert.Equal(t, finding.LevelHigh, imported.Issues[0].Level)

	created := s.Scan("threading.Thread(target=f)")
	require.Len(t, created.Issues, 1)
	assert.Equal(t, finding.LevelCritical, created.Issues[0].Level)
	assert.Greater(t, created.Issues[0].Level, imported.Issues[0].Level)
}

func TestScanner_MediumOnly(t *testing.T) {
	r := NewScanner(nil).Scan("import subprocess")
	assert.False(t, r.Blocked)
	assert.False(t, r.IsSafe)

	strict := NewScanner(&Policy{BlockHighRisk: true, BlockMediumRisk: true})
	assert.True(t, strict.Scan("import subprocess").Blocked)
}

func TestScanner_EscapeLinesCarriedForward(t *testing.T) {
	r := NewScanner(nil).Scan("!pip install requests\nimport os\nos.system('id')")
	require.True(t, r.Blocked)
	require.Len(t, r.Issues, 2)
	assert.Equal(t, "SHELL004", r.Issues[0].RuleID)
	assert.Equal(t, "PROC001", r.Issues[1].RuleID)
	assert.Equal(t, 3, r.Issues[1].Line)
	assert.Equal(t, ParseOK, r.Parse)
	assert.False(t, strings.HasPrefix(r.BlockReason, "[pre-parse]"))
}

func TestScanner_ContinuationLinesDoNotHideCode(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"not-equal continuation", "import os\nx = (1\n!= 2)\nos.system('rm -rf /')\n"},
		{"modulo continuation", "import os\nn = 3\ny = (10\n%n)\nos.system('rm -rf /')\n"},
		{"backslash continuation", "import os\nn = 3\ny = 10 \\\n%n\nos.system('rm -rf /')\n"},
		{"escape before continuation", "!pip install x\nx = (1\n!= 2)\nimport os\nos.system('id')\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewScanner(nil).Scan(tt.code)
			assert.True(t, r.Blocked)
			assert.Equal(t, ParseOK, r.Parse)
			assert.True(t, hasRule(r.Issues, "PROC001", finding.LevelCritical))
		})
	}

	r := NewScanner(nil).Scan("import os\nx = (1\n!= 2)\nos.system('rm -rf /')\n")
	assert.False(t, hasRulePrefix(r.Issues, "SHELL"))
}

func TestScanner_LineMagicDoesNotHideCode(t *testing.T) {
	r := NewScanner(nil).Scan("%matplotlib inline\neval(x)")
	assert.True(t, r.Blocked)
	assert.Equal(t, ParseOK, r.Parse)
}

func TestScanner_PythonCellMagicBodyScanned(t *testing.T) {
	r := NewScanner(nil).Scan("%%capture\nimport os\nos.system('id')")
	assert.True(t, r.Blocked)
	assert.True(t, hasRule(r.Issues, "PROC001", finding.LevelCritical))
}

func TestScanner_ApprovedMagicBody(t *testing.T) {
	r := NewScanner(nil).Scan("%%html\n<script>alert(1)</script>")
	assert.False(t, r.Blocked)
	assert.Equal(t, ParseMagicBody, r.Parse)
	require.Len(t, r.Issues, 1)
	assert.Equal(t, "MAGIC002", r.Issues[0].RuleID)
}

func TestScanner_Unparsable(t *testing.T) {
	code := "eval('x')\n)\n"

	r := NewScanner(nil).Scan(code)
	assert.True(t, r.IsSafe)
	assert.False(t, r.Blocked)
	assert.Equal(t, ParseUnparsable, r.Parse)

	opted := NewScanner(&Policy{BlockHighRisk: true, AnalyzeUnparsable: true}).Scan(code)
	assert.Equal(t, ParseUnparsable, opted.Parse)
	assert.True(t, opted.Blocked)
	assert.True(t, hasRulePrefix(opted.Issues, "EXEC"))
}

func TestScanner_PolicyIsCopied(t *testing.T) {
	p := DefaultPolicy()
	s := NewScanner(p)
	p.BlockHighRisk = false

	assert.True(t, s.Policy().BlockHighRisk)
	assert.True(t, s.Scan("import subprocess\nsubprocess.run(['ls'])").Blocked)
}

func TestScanner_Concurrent(t *testing.T) {
	s := NewScanner(nil)
	code := "import os\nos.environ['A'] = '1'\n!ls\n"
	want := s.Scan(code)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, s.Scan(code))
		}()
	}
	wg.Wait()
}

func TestScanner_JSONShape(t *testing.T) {
	r := NewScanner(nil).Scan("eval('1')")
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["blocked"])
	assert.Equal(t, "parsed", decoded["parse"])

	issues := decoded["issues"].([]any)
	first := issues[0].(map[string]any)
	assert.Equal(t, "EXEC001", first["rule_id"])
	assert.Equal(t, "CRITICAL", first["level"])
	assert.EqualValues(t, 1, first["line"])

	safe, err := json.Marshal(NewScanner(nil).Scan("x = 1"))
	require.NoError(t, err)
	assert.NotContains(t, string(safe), "block_reason")
	assert.Contains(t, string(safe), `"issues":[]`)
}

func TestScanner_SnippetTruncated(t *testing.T) {
	code := "eval('" + strings.Repeat("a", 300) + "')"
	r := NewScanner(nil).Scan(code)
	require.NotEmpty(t, r.Issues)
	assert.LessOrEqual(t, len(r.Issues[0].Code), finding.MaxSnippetLen)
	assert.True(t, strings.HasSuffix(r.Issues[0].Code, "..."))
}

func TestScanner_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewScanner(nil, WithLogger(zap.New(core)))

	s.Scan("eval('1')")
	s.Scan("%%bash\nls")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "scan complete", entries[0].Message)
	assert.Equal(t, "blocked before parsing", entries[1].Message)
}

func TestScanSource(t *testing.T) {
	assert.True(t, ScanSource("exec('x')").Blocked)
}
