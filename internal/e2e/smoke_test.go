package e2e

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	stdout, stderr, err := runSubs(t, binaryPath, home, "status", "--json")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, false, decode(t, stdout)["valid"])

	_, stderr, err = runSubs(t, binaryPath, home, "purchase", "yearly", "--json")
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err = runSubs(t, binaryPath, home, "status", "--json")
	require.NoError(t, err, "stderr: %s", stderr)
	status := decode(t, stdout)
	assert.Equal(t, true, status["valid"])
	assert.Equal(t, "syntrafit_sub_yearly_2", status["product_id"])

	ledger, err := os.ReadFile(filepath.Join(home, ".syntrafit", "store-ledger.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(ledger), "syntrafit_sub_yearly_2")

	stdout, stderr, err = runSubs(t, binaryPath, home, "check", "ai_agent")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "ai_agent: allowed\n", stdout)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "subs-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/subs")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build subs binary: %s", string(output))
	return binaryPath
}

func runSubs(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)
	cmd.Dir = home

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out), raw)
	return out
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
