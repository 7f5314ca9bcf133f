package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFile_reopen(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "newsfeed.log")
	f, err := NewLogFile(fname)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	_, err = f.Write([]byte("first\n"))
	require.NoError(t, err)
	require.NoError(t, os.Rename(fname, fname+".1"))
	require.NoError(t, os.Remove(fname+".1"))

	_, err = f.Write([]byte("second\n"))
	require.NoError(t, err)

	b, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(b))
}
