package manager

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/dot5enko/simple-hash-db/table"
)

func (m *Manager) getAbsStoragePath(segments ...string) string {

	pathSegments := []string{m.config.PathToStorage}
	pathSegments = append(pathSegments, segments...)

	return filepath.Join(pathSegments...)
}

// Open returns the registered table or maps its file from storage.
// Concurrent calls for one name share a single open.
func (m *Manager) Open(name string) (table.Table, error) {

	if t, ok := m.Find(name); ok {
		return t, nil
	}

	v, err, _ := m.openGroup.Do(name, func() (any, error) {

		if t, ok := m.Find(name); ok {
			return t, nil
		}

		ft, openErr := table.OpenFileTable(m.config.PathToStorage, name)
		if openErr != nil {
			return nil, openErr
		}

		m.lock.Lock()
		m.tables[name] = ft
		m.lock.Unlock()

		m.log.Info("loaded table from disk", "table", name, "rows", ft.Size(), "capacity", ft.Capacity())

		return ft, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(table.Table), nil
}

// LoadTablesFromDisk opens every table file in storage. A file that fails
// to open is logged and skipped. Leftovers of an interrupted rehash are
// removed, the table file they were built from is still intact.
func (m *Manager) LoadTablesFromDisk() error {

	entries, err := os.ReadDir(m.getAbsStoragePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) { // no tables yet
			return nil
		}
		return err
	}

	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), table.RehashSuffix) {
			leftover := m.getAbsStoragePath(e.Name())
			m.log.Warn("removing unfinished rehash file", "file", leftover)
			if removeErr := os.Remove(leftover); removeErr != nil {
				m.log.Warn("unable to remove rehash file", "file", leftover, "err", removeErr)
			}
			continue
		}

		if e.IsDir() || !strings.HasSuffix(e.Name(), table.FileExtension) {
			continue
		}

		name := strings.TrimSuffix(e.Name(), table.FileExtension)

		if _, openErr := m.Open(name); openErr != nil {
			m.log.Warn("unable to load table", "file", m.getAbsStoragePath(e.Name()), "err", openErr)
		}
	}

	return nil
}
