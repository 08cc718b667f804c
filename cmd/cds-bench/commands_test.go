package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunCommand(t *testing.T) {
	out, _, err := execute(t, "run", "-n", "4", "-d", "2", "-k", "2", "--seed", "bench")
	require.NoError(t, err)
	require.Contains(t, out, "proof bytes")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	fields := strings.Fields(lines[1])
	require.Equal(t, []string{"ed25519", "4", "2", "3"}, fields[:4])
	require.Equal(t, "2/2", fields[len(fields)-1])
}

func TestRunCommandSeededSize(t *testing.T) {
	first, _, err := execute(t, "run", "-c", "secp256k1", "-n", "3", "-k", "1", "--seed", "same")
	require.NoError(t, err)
	second, _, err := execute(t, "run", "-c", "secp256k1", "-n", "3", "-k", "1", "--seed", "same")
	require.NoError(t, err)

	size := func(out string) string {
		lines := strings.Split(strings.TrimSpace(out), "\n")
		fields := strings.Fields(lines[len(lines)-1])
		return fields[len(fields)-2]
	}
	require.Equal(t, size(first), size(second))
}

func TestSweepCommand(t *testing.T) {
	out, _, err := execute(t, "sweep", "-d", "2", "--from", "2", "--to", "6", "--step", "2", "-k", "1", "-p", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
}

func TestVerboseLogsAuditEvents(t *testing.T) {
	_, errOut, err := execute(t, "run", "-n", "2", "-k", "1", "-v")
	require.NoError(t, err)
	require.Contains(t, errOut, "verifier accepted")
}

func TestCommandErrors(t *testing.T) {
	_, _, err := execute(t, "run", "-n", "2", "-d", "3")
	require.Error(t, err)

	_, _, err = execute(t, "run", "-c", "p256")
	require.Error(t, err)

	_, _, err = execute(t, "sweep", "--step", "0")
	require.Error(t, err)

	_, _, err = execute(t, "run", "-k", "0")
	require.Error(t, err)
}
