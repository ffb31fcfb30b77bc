// test_helpers.go
package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

// runCapture invokes run() with the given args and returns exit code, stdout,
// and stderr.
func runCapture(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// requireCleanRun asserts the run succeeded and produced no stderr output.
func requireCleanRun(t *testing.T, code int, stderr string) {
	t.Helper()
	require.Equal(t, 0, code)
	require.Empty(t, stderr)
}
