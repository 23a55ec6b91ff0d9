// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package xos provides extensions to the standard os package.
package xos

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading ~ in a path to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDirPath, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get home directory: %w", err)
	}
	return filepath.Join(homeDirPath, path[1:]), nil
}

// ReadFileString reads the file at path, after expanding a leading ~, as a string.
func ReadFileString(path string) (string, error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MkdirAllForFile creates the parent directory of filePath if it does not exist.
func MkdirAllForFile(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0o755)
}

// WriteFile creates or truncates the file at path, after expanding a leading ~
// and creating its parent directory, and calls write with it.
func WriteFile(path string, write func(io.Writer) error) (retErr error) {
	expanded, err := ExpandHome(path)
	if err != nil {
		return err
	}
	if err := MkdirAllForFile(expanded); err != nil {
		return err
	}
	file, err := os.Create(expanded)
	if err != nil {
		return err
	}
	defer func() {
		retErr = errors.Join(retErr, file.Close())
	}()
	return write(file)
}
