package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSolveCommand(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	SolveCmd.SetOut(&out)
	SolveCmd.SetErr(&out)
	SolveCmd.SetArgs(args)
	require.NoError(t, SolveCmd.Execute())
	return out.String()
}

func TestSolveCommandResolvesDemoBindings(t *testing.T) {
	out := runSolveCommand(t)

	assert.Contains(t, out, "message : string")
	assert.Contains(t, out, "tag : string")
	assert.Contains(t, out, "numbers : Pair")
	assert.Contains(t, out, "greet : ")
	assert.NotContains(t, out, "solver stalled")
	assert.NotContains(t, out, "internal failure")
}

func TestSolveCommandIsShuffleInvariant(t *testing.T) {
	baseline := runSolveCommand(t)
	shuffled := runSolveCommand(t, "--shuffle", "1337")

	assert.Equal(t, baseline, shuffled)
}
