package library

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Config configures a Manager.
type Config struct {
	// Root is the directory holding one file per table.
	Root string
	// ValidateInserts decodes rows of catalog tables before appending them.
	ValidateInserts bool
	// Logger is optional; nil discards.
	Logger *slog.Logger
}

// Manager is a thin façade over the Store, keeping CLI code simple.
// Operations are serialized within the process; nothing guards against
// other processes writing the same root.
type Manager struct {
	mu     sync.Mutex
	store  *Store
	logger *slog.Logger

	validateInserts bool
}

// NewManager opens (or creates) the table directory described by cfg.
func NewManager(cfg Config) (*Manager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store, err := NewStore(cfg.Root)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened table store", "root", store.Root())
	return &Manager{store: store, logger: logger, validateInserts: cfg.ValidateInserts}, nil
}

// Store exposes the underlying table files.
func (m *Manager) Store() *Store { return m.store }

// ------------------ Table lifecycle ------------------

// CreateTable creates an empty table.
func (m *Manager) CreateTable(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Create(name); err != nil {
		return err
	}
	m.logger.Debug("created table", "table", name)
	return nil
}

// DropTable removes a table and all its rows.
func (m *Manager) DropTable(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Remove(name); err != nil {
		return err
	}
	m.logger.Debug("dropped table", "table", name)
	return nil
}

// TableExists reports whether the table file is present.
func (m *Manager) TableExists(name string) bool { return m.store.Exists(name) }

// ------------------ Rows ------------------

// Insert appends row verbatim to an existing table.
func (m *Manager) Insert(name, row string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.validateInserts {
		if s, ok := Lookup(name); ok {
			if _, err := s.Decode(row); err != nil {
				return err
			}
		}
	}
	if err := m.store.Append(name, row); err != nil {
		return err
	}
	m.logger.Debug("inserted row", "table", name)
	return nil
}

// InsertRecord encodes r and appends it to the table of its kind.
func (m *Manager) InsertRecord(r Record) error {
	line, err := Encode(r)
	if err != nil {
		return err
	}
	return m.Insert(string(r.Kind()), line)
}

// ReadTable returns the raw lines of a table.
func (m *Manager) ReadTable(name string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.ReadAll(name)
}

// Update replaces the attributes of the row keyed by key. On ErrRecordNotFound
// the table file is unchanged.
func (m *Manager) Update(name, key, attrs string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.UpdateRow(name, key, attrs)
	m.logRewrite("update", name, key, err)
	return err
}

// DeleteRow removes the row keyed by key. On ErrRecordNotFound the table
// file is unchanged.
func (m *Manager) DeleteRow(name, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.DeleteRow(name, key)
	m.logRewrite("delete", name, key, err)
	return err
}

func (m *Manager) logRewrite(op, name, key string, err error) {
	if err != nil {
		m.logger.Warn("rewrite discarded", "op", op, "table", name, "key", key, "error", err)
		return
	}
	m.logger.Debug("rewrote table", "op", op, "table", name, "key", key)
}

// ------------------ Select ------------------

// Select returns the records of a catalog table matching cond, in file
// order. An invalid condition yields no rows and ErrConditionInvalid. A line
// that fails to decode aborts the scan with a *MalformedRecordError.
func (m *Manager) Select(name string, cond Condition) ([]Record, error) {
	s, ok := Lookup(name)
	if !ok {
		return nil, &UnknownKindError{Name: name}
	}
	match, err := compileCondition(s, cond)
	if err != nil {
		return []Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Record
	err = m.scan(s, func(r Record) {
		if match.match(r) {
			out = append(out, r)
		}
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("selected rows", "table", name, "condition", cond.String(), "rows", len(out))
	return out, nil
}

// Scan returns every record of a catalog table in file order.
func (m *Manager) Scan(name string) ([]Record, error) {
	s, ok := Lookup(name)
	if !ok {
		return nil, &UnknownKindError{Name: name}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Record
	if err := m.scan(s, func(r Record) { out = append(out, r) }); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Manager) scan(s *Schema, emit func(Record)) error {
	return m.store.Scan(string(s.Kind), func(n int, line string) error {
		r, err := s.Decode(line)
		if err != nil {
			var me *MalformedRecordError
			if errors.As(err, &me) {
				me.Line = n
			}
			return err
		}
		emit(r)
		return nil
	})
}

// ------------------ Database file ------------------

// WriteDatabaseFile writes every existing table into a new file called
// name. It fails with ErrNameCollision if name is an existing table kind
// and with ErrNoTablesFound if no table exists; in both cases no file is
// left behind.
func (m *Manager) WriteDatabaseFile(name string) ([]Kind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kinds, err := m.store.WriteDump(name)
	if err != nil {
		m.logger.Warn("database file not written", "file", name, "error", err)
		return nil, err
	}
	m.logger.Debug("wrote database file", "file", name, "tables", len(kinds))
	return kinds, nil
}

// LoadDump recreates tables from a parsed database file. Existing tables
// fail with ErrAlreadyExists unless replace is set, in which case they are
// dropped first. It returns the number of rows inserted per kind.
func (m *Manager) LoadDump(sections []DumpSection, replace bool) (map[Kind]int, error) {
	counts := make(map[Kind]int, len(sections))
	for _, sec := range sections {
		name := string(sec.Kind)
		if replace && m.TableExists(name) {
			if err := m.DropTable(name); err != nil {
				return counts, err
			}
		}
		if err := m.CreateTable(name); err != nil {
			return counts, err
		}
		counts[sec.Kind] = 0
		for _, line := range sec.Lines {
			if err := m.Insert(name, line); err != nil {
				return counts, fmt.Errorf("load %s: %w", name, err)
			}
			counts[sec.Kind]++
		}
	}
	return counts, nil
}
