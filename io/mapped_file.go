//go:build unix

package io

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var (
	ErrFileTooSmall = errors.New("file is smaller than expected")
	ErrFileLocked   = errors.New("file is held by another open table")
	ErrNotMapped    = errors.New("file not mapped")
)

// MappedFile is a whole file mapped read-write and shared, so stores into
// Bytes() land in the file. The file is flock'ed for as long as it is
// mapped, a second MappedFile over the same path fails with ErrFileLocked.
type MappedFile struct {
	path string
	file *os.File
	data []byte

	mapped bool
}

// CreateMapped creates a new zero-filled file of size bytes and maps it.
// An existing file at path is an error.
func CreateMapped(path string, size int) (*MappedFile, error) {

	var perm os.FileMode = 0644

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return nil, err
	}

	m := &MappedFile{path: path, file: file}

	if lockErr := m.lock(); lockErr != nil {
		file.Close()
		return nil, lockErr
	}

	// sparse zeroes, an all-zero record is an empty slot
	if truncErr := file.Truncate(int64(size)); truncErr != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("unable to size %s to %d bytes: %w", path, size, truncErr)
	}

	if mapErr := m.mapAll(size); mapErr != nil {
		file.Close()
		os.Remove(path)
		return nil, mapErr
	}

	return m, nil
}

// OpenMapped maps an existing file, which must hold at least minSize bytes.
func OpenMapped(path string, minSize int) (*MappedFile, error) {

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	m := &MappedFile{path: path, file: file}

	if lockErr := m.lock(); lockErr != nil {
		file.Close()
		return nil, lockErr
	}

	info, statErr := file.Stat()
	if statErr != nil {
		file.Close()
		return nil, statErr
	}

	if info.Size() < int64(minSize) || info.Size() == 0 {
		file.Close()
		return nil, fmt.Errorf("%w: %s has %d bytes, need %d", ErrFileTooSmall, path, info.Size(), minSize)
	}

	if mapErr := m.mapAll(int(info.Size())); mapErr != nil {
		file.Close()
		return nil, mapErr
	}

	return m, nil
}

func (m *MappedFile) lock() error {
	err := unix.Flock(int(m.file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return fmt.Errorf("%w: %s", ErrFileLocked, m.path)
	}
	return err
}

func (m *MappedFile) mapAll(size int) error {
	data, err := unix.Mmap(int(m.file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("unable to map %s: %w", m.path, err)
	}

	m.data = data
	m.mapped = true

	return nil
}

func (m *MappedFile) Path() string {
	return m.path
}

func (m *MappedFile) Bytes() []byte {
	return m.data
}

func (m *MappedFile) Size() int {
	return len(m.data)
}

// Sync flushes dirty pages to the file.
func (m *MappedFile) Sync() error {
	if !m.mapped {
		return ErrNotMapped
	}
	return unix.Msync(m.data, unix.MS_SYNC)
}

// Close syncs, unmaps and releases the file. Calling it twice is a no-op.
func (m *MappedFile) Close() error {
	if !m.mapped {
		return nil
	}

	syncErr := unix.Msync(m.data, unix.MS_SYNC)
	unmapErr := unix.Munmap(m.data)

	m.data = nil
	m.mapped = false

	closeErr := m.file.Close()

	return errors.Join(syncErr, unmapErr, closeErr)
}

// Rename moves the file while it stays mapped, the mapping follows the inode.
func (m *MappedFile) Rename(newPath string) error {
	if err := os.Rename(m.path, newPath); err != nil {
		return err
	}
	m.path = newPath
	return nil
}
