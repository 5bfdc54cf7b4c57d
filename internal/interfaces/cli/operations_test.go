package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsweep/mailsweep/internal/batch"
	"github.com/mailsweep/mailsweep/internal/config"
)

func TestReadIDsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ids.txt")
	content := "msg-1\n\n# a comment\n  msg-2  \nmsg-3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	ids, err := readIDsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"msg-1", "msg-2", "msg-3"}, ids)
}

func TestReadIDsFile_Missing(t *testing.T) {
	_, err := readIDsFile(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestOrchestratorConfig_MapsAllFields(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Batch.InitialModifySize = 25
	cfg.CircuitBreaker.FailureThreshold = 7

	got := orchestratorConfig(cfg)
	assert.Equal(t, 1000, got.DeleteChunkSize)
	assert.Equal(t, 25, got.InitialModifySize)
	assert.Equal(t, 7, got.FailureThreshold)
	assert.Equal(t, 500*time.Millisecond, got.InterBatchDelay)
	assert.Equal(t, 2.5, got.BackoffMultiplier)
	assert.Equal(t, 5*time.Second, got.MaxBreakerWait)
}

func TestPrintResult_JSON(t *testing.T) {
	res := batch.NewOperationResult(batch.OpTypeDelete)
	res.AddSuccess("m1")
	res.AddFailure("m2", "rate limit")
	res.IncrementBatchesProcessed()
	res.MarkCompleted()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, printResult(cmd, "json", res))

	var summary resultSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, "delete", summary.Operation)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 50.0, summary.SuccessRate)
	assert.Equal(t, []string{"m2"}, summary.RetryableIDs)
}

func TestPrintResult_Table(t *testing.T) {
	res := batch.NewOperationResult(batch.OpTypeModify)
	res.AddSuccess("m1")
	res.IncrementBatchesProcessed()
	res.MarkCompleted()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, printResult(cmd, "table", res))
	assert.Contains(t, out.String(), "Operation:")
	assert.Contains(t, out.String(), "modify")
	assert.Contains(t, out.String(), "100.0%")
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := map[string]bool{}
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["delete"])
	assert.True(t, names["modify"])
}

func TestCommands_HaveFailOnPartialFlag(t *testing.T) {
	root := NewRootCommand()
	for _, sub := range root.Commands() {
		switch sub.Name() {
		case "delete", "modify":
			assert.NotNil(t, sub.Flags().Lookup("fail-on-partial"), sub.Name())
		}
	}
}
