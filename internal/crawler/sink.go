package crawler

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sjsage522/recruitcrawler/logger"
	"sjsage522/recruitcrawler/pkg/errors"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Sink writes records as a delimited text file
type Sink struct {
	Delimiter rune // defaults to ','
	BOM       bool // prefix a UTF-8 byte order mark so spreadsheet tools pick the encoding
	Provider  string
}

// NewSink returns the sink every source writes with: comma separated, BOM prefixed
func NewSink(provider string) *Sink {
	return &Sink{Delimiter: ',', BOM: true, Provider: provider}
}

// Header returns the output columns: the first record's keys in order, then
// keys first seen in later records
func Header(records []*Record) []string {
	seen := make(map[string]bool)
	var header []string
	for _, rec := range records {
		for _, k := range rec.Keys() {
			if seen[k] {
				continue
			}
			seen[k] = true
			header = append(header, k)
		}
	}
	return header
}

// Row flattens rec against header; missing keys become ""
func Row(rec *Record, header []string) []string {
	row := make([]string, len(header))
	for i, k := range header {
		if v, ok := rec.Get(k); ok {
			row[i] = FlattenValue(v)
		}
	}
	return row
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Encode writes records to w and returns the bytes written
func (s *Sink) Encode(w io.Writer, records []*Record) (int64, error) {
	cw := &countingWriter{w: w}
	var out io.Writer = cw
	var bom io.WriteCloser
	if s.BOM {
		bom = transform.NewWriter(cw, unicode.UTF8BOM.NewEncoder())
		out = bom
	}

	cs := csv.NewWriter(out)
	if s.Delimiter != 0 {
		cs.Comma = s.Delimiter
	}

	header := Header(records)
	if err := cs.Write(header); err != nil {
		return cw.n, err
	}
	for _, rec := range records {
		if err := cs.Write(Row(rec, header)); err != nil {
			return cw.n, err
		}
	}
	cs.Flush()
	if err := cs.Error(); err != nil {
		return cw.n, err
	}
	if bom != nil {
		if err := bom.Close(); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// Write replaces path with records and returns the bytes written
func (s *Sink) Write(records []*Record, path string) (int64, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, errors.NewWrite(s.Provider, "failed to create output directory", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, errors.NewWrite(s.Provider, "failed to open "+path, err)
	}

	n, err := s.Encode(f, records)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, errors.NewWrite(s.Provider, "failed to write "+path, err)
	}

	logger.ForSink().Info().
		Str("path", path).
		Int("records", len(records)).
		Int64("bytes", n).
		Msg("Output written")
	return n, nil
}

// Checkpointer writes the records gathered so far every Every records, to
// <Base>_<batch>.csv, so a long browser run can be resumed after a crash.
type Checkpointer struct {
	Sink  *Sink
	Base  string // path without extension
	Every int

	batch int
	seen  int
}

// Path returns the checkpoint file for batch
func (c *Checkpointer) Path(batch int) string {
	return fmt.Sprintf("%s_%d.csv", c.Base, batch)
}

// Observe is called after every record; records holds everything so far
func (c *Checkpointer) Observe(records []*Record) error {
	if c == nil || c.Every <= 0 {
		return nil
	}
	c.seen++
	if c.seen%c.Every != 0 {
		return nil
	}
	return c.write(records)
}

// Flush writes a final checkpoint when records arrived after the last one
func (c *Checkpointer) Flush(records []*Record) error {
	if c == nil || c.Every <= 0 || c.seen%c.Every == 0 {
		return nil
	}
	return c.write(records)
}

func (c *Checkpointer) write(records []*Record) error {
	c.batch++
	_, err := c.Sink.Write(records, c.Path(c.batch))
	return err
}
