package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dot5enko/simple-hash-db/dberr"
	"github.com/dot5enko/simple-hash-db/schema"
	"github.com/dot5enko/simple-hash-db/table"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"
)

type ManagerConfig struct {
	// folder holding <table>.bin files
	PathToStorage string

	// CREATE without TEMPORARY makes file tables when set
	Persistent bool

	ExportPath string

	Logger *slog.Logger
}

// Manager is the table registry. Names are unique across both engines.
type Manager struct {
	tables map[string]table.Table
	lock   sync.RWMutex

	openGroup singleflight.Group

	config ManagerConfig
	log    *slog.Logger
}

func New(config ManagerConfig) *Manager {

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		tables: map[string]table.Table{},
		config: config,
		log:    logger.With("component", "manager"),
	}
}

func (m *Manager) Config() ManagerConfig {
	return m.config
}

// DefaultKind is the engine used for a table not marked temporary.
func (m *Manager) DefaultKind() table.EngineKind {
	if m.config.Persistent {
		return table.FileEngine
	}
	return table.MemoryEngine
}

func (m *Manager) CreateTable(name string, s *schema.Schema, kind table.EngineKind) (table.Table, error) {

	m.lock.Lock()
	defer m.lock.Unlock()

	if _, exists := m.tables[name]; exists {
		return nil, fmt.Errorf("%w: table `%s` already exists", dberr.ErrKeyConflict, name)
	}

	var (
		created table.Table
		err     error
	)

	switch kind {
	case table.MemoryEngine:
		created = table.NewMemoryTable(name, s)
	case table.FileEngine:
		created, err = table.CreateFileTable(m.config.PathToStorage, name, s)
	default:
		err = fmt.Errorf("unknown engine kind %d", kind)
	}

	if err != nil {
		return nil, err
	}

	m.tables[name] = created
	m.log.Info("table created", "table", name, "engine", kind.String(), "columns", len(s.Columns))

	return created, nil
}

func (m *Manager) Find(name string) (table.Table, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	t, ok := m.tables[name]
	return t, ok
}

func (m *Manager) Exists(name string) bool {
	_, ok := m.Find(name)
	return ok
}

// MustFind is Find with ErrNotFound for a missing name.
func (m *Manager) MustFind(name string) (table.Table, error) {
	t, ok := m.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: table `%s` does not exist", dberr.ErrNotFound, name)
	}
	return t, nil
}

// Drop closes the table, deletes its file if it has one and returns the
// number of rows it held.
func (m *Manager) Drop(name string) (int, error) {

	m.lock.Lock()
	defer m.lock.Unlock()

	t, ok := m.tables[name]
	if !ok {
		return 0, fmt.Errorf("%w: table `%s` does not exist", dberr.ErrNotFound, name)
	}

	rows := t.Size()

	if closeErr := t.Close(); closeErr != nil {
		return 0, fmt.Errorf("unable to close table `%s`: %w", name, closeErr)
	}

	delete(m.tables, name)

	if ft, isFile := t.(*table.FileTable); isFile {
		if removeErr := os.Remove(ft.Path()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			return rows, fmt.Errorf("table `%s` dropped but its file stays: %w", name, removeErr)
		}
	}

	m.log.Info("table dropped", "table", name, "rows", rows)

	return rows, nil
}

// Sync flushes a file table to disk. Memory tables have nothing to flush.
func (m *Manager) Sync(name string) error {
	t, err := m.MustFind(name)
	if err != nil {
		return err
	}

	if ft, isFile := t.(*table.FileTable); isFile {
		if syncErr := ft.Sync(); syncErr != nil {
			return fmt.Errorf("unable to sync table `%s`: %w", name, syncErr)
		}
	}

	return nil
}

// Tables lists registered tables ordered by name.
func (m *Manager) Tables() []table.Table {
	m.lock.RLock()
	list := make([]table.Table, 0, len(m.tables))
	for _, t := range m.tables {
		list = append(list, t)
	}
	m.lock.RUnlock()

	slices.SortFunc(list, func(a, b table.Table) int {
		return strings.Compare(a.Name(), b.Name())
	})

	return list
}

// FreeName returns base when unused, otherwise the first free base_1,
// base_2, ...
func (m *Manager) FreeName(base string) string {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if _, taken := m.tables[base]; !taken {
		return base
	}

	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if _, taken := m.tables[candidate]; !taken {
			return candidate
		}
	}
}

func (m *Manager) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	var errs []error
	for name, t := range m.tables {
		if err := t.Close(); err != nil {
			errs = append(errs, fmt.Errorf("table `%s`: %w", name, err))
		}
		delete(m.tables, name)
	}

	return errors.Join(errs...)
}
