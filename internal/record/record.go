// Package record stores the steps of a simulation run.
package record

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/djdv/go-pagereplace"
	"github.com/rs/xid"
)

type (
	// Step is one access served by a policy, with the state it left behind.
	Step struct {
		Run      string
		Policy   string
		Event    pagereplace.Event[int]
		Snapshot pagereplace.Snapshot[int]
		Index    int
		Elapsed  time.Duration
	}
	// Sink is a backend that can record the steps of a run.
	Sink interface {
		// Record buffers or writes step.
		Record(step Step) error
		// Flush writes any buffered steps.
		Flush() error
		// Close flushes and releases the sink.
		// Calling Close more than once is allowed.
		Close() error
	}
	// Multi records every step to each of its sinks.
	Multi []Sink
)

// NewRunID returns a unique, sortable run identifier.
func NewRunID() string { return xid.New().String() }

// defaultName returns prefix followed by a new run identifier.
func defaultName(prefix string) string {
	return prefix + "_" + xid.New().String()
}

// createExclusive creates path, refusing to overwrite an existing file.
func createExclusive(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("file %s already exists: %w", path, err)
		}
		return nil, err
	}
	return file, nil
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

// Record forwards step to every sink.
func (m Multi) Record(step Step) error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.Record(step))
	}
	return errors.Join(errs...)
}

// Flush flushes every sink.
func (m Multi) Flush() error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.Flush())
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m Multi) Close() error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.Close())
	}
	return errors.Join(errs...)
}
