package utils

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const defaultDirMode fs.FileMode = os.FileMode(0755) // 'rwxr-xr-x'

// ReCreate removes dir and any children it contains and creates new dir
// on the same path
func ReCreate(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("can't delete unusable dir: %w", err)
	}
	if err := os.MkdirAll(path, defaultDirMode); err != nil {
		return fmt.Errorf("unable to create repo dir err:%w", err)
	}
	return nil
}

// MkdirAll creates path and any missing parents with the default mode
func MkdirAll(path string) error {
	if err := os.MkdirAll(path, defaultDirMode); err != nil {
		return fmt.Errorf("unable to create dir err:%w", err)
	}
	return nil
}

// DirIsEmpty returns true if dir at path has no entries
func DirIsEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil {
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// HasHomeShorthand returns true if path still contains an unexpanded '~'
func HasHomeShorthand(path string) bool {
	return strings.Contains(path, "~")
}
