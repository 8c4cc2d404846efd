package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLines(t *testing.T) {
	lines, err := parseLines(" 3, 10,42")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 10, 42}, lines)

	lines, err = parseLines("")
	require.NoError(t, err)
	assert.Nil(t, lines)

	_, err = parseLines("3,x")
	assert.Error(t, err)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"add", "analyze", "requeue", "status", "list", "graph", "deps", "cycles", "impact", "search"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, analyzeCmd.Flags().Lookup("metrics-addr"))
}
