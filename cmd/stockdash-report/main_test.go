package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockdash/internal/dashboard"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReport_MemorySource(t *testing.T) {
	out, _, err := execute(t, "demo", "--source", "memory", "--no-color", "--statement", "income_statement", "--timeframe", "5d")
	require.NoError(t, err)

	assert.Contains(t, out, "Demo Industries Ltd (DEMO)")
	assert.Contains(t, out, "INCOME STATEMENT")
	assert.Contains(t, out, "Total Revenue")
	assert.Contains(t, out, "CLOSE (5d)")
}

func TestReport_UnknownTicker(t *testing.T) {
	_, stderr, err := execute(t, "NOPE", "--source", "memory")
	require.Error(t, err)
	assert.Contains(t, stderr, dashboard.MsgBadTicker)
}

func TestReport_InvalidFlags(t *testing.T) {
	_, _, err := execute(t, "DEMO", "--source", "memory", "--statement", "ledger")
	assert.Error(t, err)

	_, _, err = execute(t, "DEMO", "--source", "memory", "--timeframe", "2w")
	assert.Error(t, err)

	_, _, err = execute(t, "DEMO", "--source", "bloomberg")
	assert.Error(t, err)
}

func TestReport_RequiresSymbol(t *testing.T) {
	_, _, err := execute(t)
	assert.Error(t, err)
}

func TestReport_EnvBinding(t *testing.T) {
	t.Setenv("STOCKDASH_SOURCE", "memory")
	t.Setenv("STOCKDASH_TIMEFRAME", "1y")

	out, _, err := execute(t, "DEMO", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "CLOSE (1y)")
}
