package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileRotator is an io.Writer that rotates the target file by renaming
// generations: file -> file.1 -> file.2 ... up to maxBackups, dropping
// the oldest. Rotation happens before a write that would push the file
// over the threshold, so the entry being written always lands in the
// fresh file.
type FileRotator struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	file       *os.File
	size       int64
}

// NewFileRotator opens (or creates) the log file for appending.
func NewFileRotator(path string, maxSize int64, maxBackups int) (*FileRotator, error) {
	if maxBackups < 1 {
		maxBackups = 1
	}
	r := &FileRotator{
		path:       path,
		maxSize:    maxSize,
		maxBackups: maxBackups,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := r.openFile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRotator) openFile() error {
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	r.file = file
	r.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (r *FileRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.openFile(); err != nil {
			return 0, err
		}
	}

	if r.size+int64(len(p)) > r.maxSize && r.size > 0 {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// rotate shifts each generation up by one and reopens a fresh file.
func (r *FileRotator) rotate() error {
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return fmt.Errorf("close current log: %w", err)
		}
		r.file = nil
	}

	// Oldest generation falls off the end.
	oldest := fmt.Sprintf("%s.%d", r.path, r.maxBackups)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("drop oldest generation: %w", err)
	}

	for n := r.maxBackups - 1; n >= 1; n-- {
		from := fmt.Sprintf("%s.%d", r.path, n)
		to := fmt.Sprintf("%s.%d", r.path, n+1)
		if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("shift generation %d: %w", n, err)
		}
	}

	if err := os.Rename(r.path, r.path+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename active log: %w", err)
	}

	return r.openFile()
}

// Size returns the current size of the active file.
func (r *FileRotator) Size() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Sync flushes buffered data to disk.
func (r *FileRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		return r.file.Sync()
	}
	return nil
}

// Close closes the active file.
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}
