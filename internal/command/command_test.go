package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutput(t *testing.T) {
	runner := ExecRunner{}

	out, err := runner.Output(context.Background(), "", "sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestOutputFailureIncludesStderr(t *testing.T) {
	runner := ExecRunner{}

	_, err := runner.Output(context.Background(), "", "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestStream(t *testing.T) {
	runner := ExecRunner{}
	var buf bytes.Buffer

	err := runner.Stream(context.Background(), &buf, "", "sh", "-c", "printf data")
	require.NoError(t, err)
	assert.Equal(t, "data", buf.String())
}

func TestRunFailure(t *testing.T) {
	runner := ExecRunner{}

	err := runner.Run(context.Background(), "", "sh", "-c", "exit 1")
	require.Error(t, err)
}

func TestRunRespectsDir(t *testing.T) {
	runner := ExecRunner{}
	dir := t.TempDir()

	out, err := runner.Output(context.Background(), dir, "pwd")
	require.NoError(t, err)
	assert.Contains(t, string(out), dir)
}
