package record

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// CSV writes one row per step.
type CSV struct {
	closer     io.Closer
	writer     *csv.Writer
	steps      []Step
	bufferSize int
	closed     bool
}

var csvHeader = []string{
	"run", "policy", "step", "elapsed_ns",
	"page", "write", "outcome", "actions",
	"active", "inactive", "free", "capacity",
}

// NewCSV creates a CSV sink writing to w.
// If w is an [io.Closer], it is closed by [CSV.Close].
func NewCSV(w io.Writer) (*CSV, error) {
	c := &CSV{
		writer:     csv.NewWriter(w),
		bufferSize: 1000,
	}
	if closer, ok := w.(io.Closer); ok {
		c.closer = closer
	}
	if err := c.writer.Write(csvHeader); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCSV creates the file path + ".csv" and returns a sink writing to it.
// If path is empty, a unique name is generated.
// An existing file is never overwritten.
func CreateCSV(path string) (*CSV, error) {
	if path == "" {
		path = defaultName("pagesim_trace")
	}
	file, err := createExclusive(path + ".csv")
	if err != nil {
		return nil, err
	}
	return NewCSV(file)
}

// Record buffers step, writing the buffer once it is full.
func (c *CSV) Record(step Step) error {
	c.steps = append(c.steps, step)
	if len(c.steps) >= c.bufferSize {
		return c.Flush()
	}
	return nil
}

// Flush writes the buffered steps.
func (c *CSV) Flush() error {
	for _, step := range c.steps {
		if err := c.writer.Write(csvRow(step)); err != nil {
			return err
		}
	}
	c.steps = c.steps[:0]
	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes the sink and closes the underlying writer.
func (c *CSV) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.Flush()
	if c.closer != nil {
		if cErr := c.closer.Close(); err == nil {
			err = cErr
		}
	}
	return err
}

func csvRow(step Step) []string {
	var (
		event    = step.Event
		snapshot = step.Snapshot
		actions  = make([]string, len(event.Actions))
	)
	for i, action := range event.Actions {
		actions[i] = action.String()
	}
	return []string{
		step.Run,
		step.Policy,
		strconv.Itoa(step.Index),
		strconv.FormatInt(int64(step.Elapsed), 10),
		strconv.Itoa(event.ID),
		strconv.FormatBool(event.Write),
		event.Outcome.String(),
		strings.Join(actions, "; "),
		joinIDs(snapshot.Active),
		joinIDs(snapshot.Inactive),
		strconv.Itoa(snapshot.Free),
		strconv.Itoa(snapshot.Capacity),
	}
}
