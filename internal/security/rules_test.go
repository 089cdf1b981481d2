package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lin-Jiong-HDU/cellguard/internal/finding"
)

func TestRules(t *testing.T) {
	rules := Rules()
	require.Len(t, rules, 38)

	assert.Equal(t, "MAGIC001", rules[0].ID)
	assert.Equal(t, finding.LayerPreParse, rules[0].Layer)
	assert.Equal(t, finding.LayerAST, rules[len(rules)-1].Layer)

	seen := make(map[string]bool)
	for _, r := range rules {
		assert.False(t, seen[r.ID], "duplicate %s", r.ID)
		seen[r.ID] = true
		assert.NotEmpty(t, r.Description, r.ID)
		assert.NotEmpty(t, r.Suggestion, r.ID)
	}
}

func TestLookupRule(t *testing.T) {
	r, ok := LookupRule("SHELL003")
	require.True(t, ok)
	assert.Equal(t, finding.LevelCritical, r.Level)

	r, ok = LookupRule("THREAD006")
	require.True(t, ok)
	assert.Equal(t, finding.LevelHigh, r.Level)

	_, ok = LookupRule("NOPE001")
	assert.False(t, ok)
}

func TestEveryFindingComesFromCatalog(t *testing.T) {
	s := NewScanner(&Policy{})
	inputs := []string{
		"!ls\n!sudo x\n%%html",
		"import os, subprocess, threading, pickle, yaml, shutil\n" +
			"os.environ['X'] = '1'\nos.system('crontab -l')\nsubprocess.run(['ls'])\n" +
			"shutil.rmtree('x')\npickle.loads(b)\nyaml.load(s)\nthreading.Timer(1, f)\n",
	}
	for _, code := range inputs {
		for _, f := range s.Scan(code).Issues {
			r, ok := LookupRule(f.RuleID)
			require.True(t, ok, f.RuleID)
			assert.Equal(t, r.Level, f.Level, f.RuleID)
			assert.Equal(t, r.Suggestion, f.Suggestion, f.RuleID)
		}
	}
}
