package pyscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTable(t *testing.T, src string) *AliasTable {
	t.Helper()
	m, err := Parse([]byte(src))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return BuildAliasTable(m.Root(), m.Source())
}

func TestAliasTable_Resolve(t *testing.T) {
	table := buildTable(t, `
import os
import subprocess as sp
import os.path
import xml.etree.ElementTree as ET
from os import system as s, environ
from shutil import rmtree
`)

	tests := []struct {
		name string
		want string
	}{
		{"os", "os"},
		{"sp", "subprocess"},
		{"ET", "xml.etree.ElementTree"},
		{"s", "os.system"},
		{"environ", "os.environ"},
		{"rmtree", "shutil.rmtree"},
		{"os.path", "os.path"},
		{"unknown_name", "unknown_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Resolve(tt.name))
		})
	}
}

func TestAliasTable_IsFromModule(t *testing.T) {
	table := buildTable(t, "from os import system as run_it\nimport subprocess as sp\n")

	assert.True(t, table.IsFromModule("run_it", "os"))
	assert.True(t, table.IsFromModule("sp", "subprocess"))
	assert.False(t, table.IsFromModule("sp", "sub"))
	assert.False(t, table.IsFromModule("print", "os"))
}

func TestAliasTable_LaterBindingWins(t *testing.T) {
	table := buildTable(t, "import os as x\nimport sys as x\n")
	assert.Equal(t, "sys", table.Resolve("x"))
}

func TestAliasTable_NestedImports(t *testing.T) {
	table := buildTable(t, `
def f():
    from os import popen as p
    return p("ls")
`)
	assert.Equal(t, "os.popen", table.Resolve("p"))
}

func TestAliasTable_StarModules(t *testing.T) {
	table := buildTable(t, "from threading import *\nfrom os import *\n")
	assert.Equal(t, []string{"threading", "os"}, table.StarModules())
	assert.False(t, table.Known("Thread"))
}

func TestAliasTable_Empty(t *testing.T) {
	table := NewAliasTable()
	assert.Equal(t, "eval", table.Resolve("eval"))
	assert.Empty(t, table.StarModules())
}
