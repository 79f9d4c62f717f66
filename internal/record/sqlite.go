package record

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
)

type (
	// SQLite records steps into a `steps` and an `actions` table.
	SQLite struct {
		*sql.DB
		tables    []*table
		steps     *table
		actions   *table
		batchSize int
		pending   int
		closed    bool
	}
	table struct {
		name    string
		columns []string
		rows    [][]any
	}
	stepRow struct {
		Run               string
		Policy            string
		Step              int
		ElapsedNS         int64
		Page              int
		Write             bool
		Outcome           string
		ReferencesCleared bool
		Active            string
		Inactive          string
		Free              int
		Capacity          int
	}
	actionRow struct {
		Run      string
		Step     int
		Sequence int
		Page     int
		Kind     string
		Dirty    bool
	}
)

// OpenSQLite creates the database path + ".sqlite3".
// If path is empty, a unique name is generated.
// An existing database is never reused.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = defaultName("pagesim_run")
	}
	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists: %w", filename, os.ErrExist)
	}
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}
	s, err := NewSQLiteWithDB(db)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return s, nil
}

// NewSQLiteWithDB records into an already opened database.
// The tables are created if they do not exist.
func NewSQLiteWithDB(db *sql.DB) (*SQLite, error) {
	s := &SQLite{
		DB:        db,
		batchSize: 10000,
		steps:     newTable("steps", stepRow{}),
		actions:   newTable("actions", actionRow{}),
	}
	s.tables = []*table{s.steps, s.actions}
	for _, t := range s.tables {
		createSQL := `CREATE TABLE IF NOT EXISTS ` + t.name +
			` (` + "\n\t" + strings.Join(t.columns, ", \n\t") + "\n" + `);`
		if _, err := db.Exec(createSQL); err != nil {
			return nil, fmt.Errorf("could not create table %s: %w", t.name, err)
		}
	}
	return s, nil
}

func newTable(name string, sample any) *table {
	return &table{
		name:    name,
		columns: structs.Names(sample),
	}
}

func (t *table) insertSQL() string {
	marks := make([]string, len(t.columns))
	for i := range marks {
		marks[i] = "?"
	}
	return "INSERT INTO " + t.name + " VALUES (" + strings.Join(marks, ", ") + ")"
}

// Record buffers step, writing the batch once it is full.
func (s *SQLite) Record(step Step) error {
	var (
		event    = step.Event
		snapshot = step.Snapshot
	)
	s.steps.rows = append(s.steps.rows, structs.Values(stepRow{
		Run:               step.Run,
		Policy:            step.Policy,
		Step:              step.Index,
		ElapsedNS:         int64(step.Elapsed),
		Page:              event.ID,
		Write:             event.Write,
		Outcome:           event.Outcome.String(),
		ReferencesCleared: event.ReferencesCleared,
		Active:            joinIDs(snapshot.Active),
		Inactive:          joinIDs(snapshot.Inactive),
		Free:              snapshot.Free,
		Capacity:          snapshot.Capacity,
	}))
	for i, action := range event.Actions {
		s.actions.rows = append(s.actions.rows, structs.Values(actionRow{
			Run:      step.Run,
			Step:     step.Index,
			Sequence: i,
			Page:     action.ID,
			Kind:     action.Kind.String(),
			Dirty:    action.Dirty,
		}))
	}
	s.pending++
	if s.pending >= s.batchSize {
		return s.Flush()
	}
	return nil
}

// Flush writes the buffered steps in a single transaction.
func (s *SQLite) Flush() error {
	if s.pending == 0 {
		return nil
	}
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	for _, t := range s.tables {
		if err := insertRows(tx, t); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for _, t := range s.tables {
		t.rows = nil
	}
	s.pending = 0
	return nil
}

func insertRows(tx *sql.Tx, t *table) error {
	if len(t.rows) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(t.insertSQL())
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, row := range t.rows {
		if _, err := stmt.Exec(row...); err != nil {
			return fmt.Errorf("insert into %s: %w", t.name, err)
		}
	}
	return nil
}

// Close flushes the sink and closes the database.
func (s *SQLite) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.Flush(), s.DB.Close())
}
