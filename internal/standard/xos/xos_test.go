// Copyright 2026 Peter Edge
//
// All rights reserved.

package xos

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	t.Parallel()
	homeDirPath, err := os.UserHomeDir()
	require.NoError(t, err)
	path, err := ExpandHome("~/statements")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(homeDirPath, "statements"), path)
	path, err = ExpandHome("~")
	require.NoError(t, err)
	require.Equal(t, homeDirPath, path)
	// Only a leading ~ path element is expanded.
	path, err = ExpandHome("~other/statements")
	require.NoError(t, err)
	require.Equal(t, "~other/statements", path)
}

func TestReadFileString(t *testing.T) {
	t.Parallel()
	filePath := filepath.Join(t.TempDir(), "nested", "file.csv")
	require.NoError(t, MkdirAllForFile(filePath))
	require.NoError(t, os.WriteFile(filePath, []byte("a,b\n"), 0o600))
	data, err := ReadFileString(filePath)
	require.NoError(t, err)
	require.Equal(t, "a,b\n", data)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()
	filePath := filepath.Join(t.TempDir(), "reports", "out.csv")
	require.NoError(t, WriteFile(filePath, func(writer io.Writer) error {
		_, err := io.WriteString(writer, "symbol,date,pnl\n")
		return err
	}))
	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	require.Equal(t, "symbol,date,pnl\n", string(data))

	writeErr := errors.New("write failed")
	require.ErrorIs(t, WriteFile(filePath, func(io.Writer) error { return writeErr }), writeErr)
}
