package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const defaultFileMode os.FileMode = 0o644

// FileState captures the state of a target file prior to modification.
type FileState struct {
	Path        string
	Exists      bool
	Permissions os.FileMode
	Content     string
}

// ReadState snapshots a file's existence, permissions, and content. A
// missing file is not an error; callers inspect Exists.
func ReadState(path string) (*FileState, error) {
	state := &FileState{Path: path, Permissions: defaultFileMode}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return nil, err
	}

	state.Exists = true
	state.Permissions = info.Mode().Perm()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	state.Content = string(data)
	return state, nil
}

// WriteAtomic writes data to path via a temp file and rename so readers
// never observe a partially written config file.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".boardtune-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	return nil
}

// CreateBackup writes a timestamped sibling copy of content and returns the
// backup path for a later Restore.
func CreateBackup(path string, content []byte, perm os.FileMode) (string, error) {
	targetDir := filepath.Dir(path)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", err
	}

	base := filepath.Base(path)
	timestamp := time.Now().UTC().Format("20060102T150405")
	backupPath := filepath.Join(targetDir, fmt.Sprintf("%s.%s.bak", base, timestamp))

	if err := os.WriteFile(backupPath, content, perm); err != nil {
		return "", err
	}

	return backupPath, nil
}

// Restore copies the backup back over the original, byte for byte, and
// removes the backup on success.
func Restore(backupPath, originalPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return err
	}

	perm := defaultFileMode
	if info, err := os.Stat(backupPath); err == nil {
		perm = info.Mode().Perm()
	}

	if err := WriteAtomic(originalPath, data, perm); err != nil {
		return err
	}
	return os.Remove(backupPath)
}
