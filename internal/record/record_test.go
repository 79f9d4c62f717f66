package record_test

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/djdv/go-pagereplace"
	"github.com/djdv/go-pagereplace/internal/record"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSteps() []record.Step {
	return []record.Step{
		{
			Run: "run", Policy: "aging", Index: 0,
			Elapsed: 150 * time.Millisecond,
			Event: pagereplace.Event[int]{
				ID: 1, Outcome: pagereplace.HardFault,
			},
			Snapshot: pagereplace.Snapshot[int]{
				Active: []int{1}, Free: 4, Capacity: 5,
			},
		},
		{
			Run: "run", Policy: "aging", Index: 1,
			Elapsed: 300 * time.Millisecond,
			Event: pagereplace.Event[int]{
				ID: 2, Write: true, Outcome: pagereplace.HardFault,
				Actions: []pagereplace.Action[int]{
					{ID: 1, Kind: pagereplace.Demoted},
					{ID: 1, Kind: pagereplace.ForcedEvicted, Dirty: true},
				},
			},
			Snapshot: pagereplace.Snapshot[int]{
				Active: []int{2}, Free: 4, Capacity: 5,
			},
		},
	}
}

func recordAll(t *testing.T, sink record.Sink, steps []record.Step) {
	t.Helper()
	for _, step := range steps {
		require.NoError(t, sink.Record(step))
	}
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	sink, err := record.NewCSV(&buf)
	require.NoError(t, err)
	recordAll(t, sink, sampleSteps())
	assert.Zero(t, buf.Len(), "steps should be buffered until flushed")

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close(), "second close")

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "outcome", rows[0][6])
	assert.Equal(t, []string{
		"run", "aging", "1", "300000000",
		"2", "true", "hard fault",
		"demoted 1; forced eviction 1 (written back)",
		"2", "", "4", "5",
	}, rows[2])
}

func TestCreateCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace")
	sink, err := record.CreateCSV(path)
	require.NoError(t, err)
	recordAll(t, sink, sampleSteps())
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path + ".csv")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"))

	_, err = record.CreateCSV(path)
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run")
	sink, err := record.OpenSQLite(path)
	require.NoError(t, err)
	recordAll(t, sink, sampleSteps())

	var count int
	require.NoError(t, sink.QueryRow("SELECT COUNT(*) FROM steps").Scan(&count))
	assert.Zero(t, count, "steps should be buffered until flushed")

	require.NoError(t, sink.Flush())
	require.NoError(t, sink.QueryRow("SELECT COUNT(*) FROM steps").Scan(&count))
	assert.Equal(t, 2, count)

	var (
		outcome, active string
		write           bool
	)
	require.NoError(t, sink.QueryRow(
		"SELECT Outcome, Active, Write FROM steps WHERE Step = 1",
	).Scan(&outcome, &active, &write))
	assert.Equal(t, "hard fault", outcome)
	assert.Equal(t, "2", active)
	assert.True(t, write)

	rows, err := sink.Query("SELECT Kind, Dirty FROM actions ORDER BY Sequence")
	require.NoError(t, err)
	var kinds []string
	var dirty []bool
	for rows.Next() {
		var (
			kind string
			d    bool
		)
		require.NoError(t, rows.Scan(&kind, &d))
		kinds = append(kinds, kind)
		dirty = append(dirty, d)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"demoted", "forced eviction"}, kinds)
	assert.Equal(t, []bool{false, true}, dirty)

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close(), "second close")

	_, err = record.OpenSQLite(path)
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestSQLite_WithDB(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "shared.sqlite3"))
	require.NoError(t, err)
	first, err := record.NewSQLiteWithDB(db)
	require.NoError(t, err)
	recordAll(t, first, sampleSteps())
	require.NoError(t, first.Flush())

	second, err := record.NewSQLiteWithDB(db)
	require.NoError(t, err, "tables should be reused")
	recordAll(t, second, sampleSteps())
	require.NoError(t, second.Close())

	_, err = db.Exec("SELECT 1")
	assert.Error(t, err, "database should be closed")
}

func TestMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagesim.prom")
	sink := record.NewMetrics(path)
	recordAll(t, sink, sampleSteps())

	const accesses = `
# HELP pagesim_accesses_total Page accesses by policy and outcome.
# TYPE pagesim_accesses_total counter
pagesim_accesses_total{outcome="hard fault",policy="aging",run="run"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(sink.Registry(),
		strings.NewReader(accesses), "pagesim_accesses_total"))

	const actions = `
# HELP pagesim_actions_total Replacement actions by policy and kind.
# TYPE pagesim_actions_total counter
pagesim_actions_total{kind="demoted",policy="aging",run="run"} 1
pagesim_actions_total{kind="forced eviction",policy="aging",run="run"} 1
pagesim_actions_total{kind="write back",policy="aging",run="run"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(sink.Registry(),
		strings.NewReader(actions), "pagesim_actions_total"))

	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist, "nothing should be written before a flush")
	require.NoError(t, sink.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pagesim_free_units{policy="aging",run="run"} 4`)
	assert.Contains(t, string(data), `pagesim_elapsed_seconds{policy="aging",run="run"} 0.3`)
}

type failingSink struct {
	err   error
	calls int
}

func (f *failingSink) Record(record.Step) error { f.calls++; return f.err }
func (f *failingSink) Flush() error             { f.calls++; return f.err }
func (f *failingSink) Close() error             { f.calls++; return f.err }

func TestMulti(t *testing.T) {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		first     = &failingSink{err: errFirst}
		healthy   = &failingSink{}
		second    = &failingSink{err: errSecond}
		multi     = record.Multi{first, healthy, second}
	)
	err := multi.Record(sampleSteps()[0])
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errSecond)
	require.NoError(t, record.Multi{healthy}.Flush())
	assert.Error(t, multi.Close())
	assert.Equal(t, 2, first.calls)
	assert.Equal(t, 3, healthy.calls)
	assert.Equal(t, 2, second.calls)
}

func TestNewRunID(t *testing.T) {
	a, b := record.NewRunID(), record.NewRunID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 20)
}
