package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertFileContent checks that the file at name, relative to the test
// directory, holds exactly want.
func AssertFileContent(t *testing.T, result *HarnessResult, name string, want []byte) {
	t.Helper()

	got, err := os.ReadFile(result.Path(name))
	require.NoError(t, err, "expected file '%s' to exist", name)
	require.Equal(t, want, got, "unexpected content in '%s'", name)
}

// AssertNoFile checks that name, relative to the test directory, does not exist.
func AssertNoFile(t *testing.T, result *HarnessResult, name string) {
	t.Helper()

	_, err := os.Stat(result.Path(name))
	require.True(t, os.IsNotExist(err), "expected '%s' not to exist", name)
}
