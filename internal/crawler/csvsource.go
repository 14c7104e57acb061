package crawler

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"sjsage522/recruitcrawler/pkg/errors"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVSource yields the URLs of an input file's column as fixed-size pages.
// Rows whose value does not start with "http" are dropped, then the first
// Start URLs are skipped so an interrupted run can resume.
type CSVSource struct {
	Path     string
	Column   string
	Start    int
	Provider string

	urls []string
	read bool
}

// ReadURLs loads the column from the input file
func (s *CSVSource) ReadURLs() ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.NewDecode(s.Provider, "failed to open input "+s.Path, err)
	}
	defer f.Close()
	return s.decode(f)
}

func (s *CSVSource) decode(r io.Reader) ([]string, error) {
	// the BOM-aware decoder drops a leading byte order mark
	cr := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.NewDecode(s.Provider, "failed to read input header", err)
	}
	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == s.Column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.NewValidation(s.Provider, "input has no "+s.Column+" column")
	}

	var urls []string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewDecode(s.Provider, "failed to read input row", err)
		}
		if col >= len(row) {
			continue
		}
		if u := strings.TrimSpace(row[col]); strings.HasPrefix(u, "http") {
			urls = append(urls, u)
		}
	}

	if s.Start >= len(urls) {
		return nil, nil
	}
	return urls[s.Start:], nil
}

// Page returns chunk cur.Index of pageSize URLs. The file is read on the
// first call.
func (s *CSVSource) Page(pageSize int) PageFunc[string] {
	return func(_ context.Context, cur Cursor) ([]string, error) {
		if !s.read {
			urls, err := s.ReadURLs()
			if err != nil {
				return nil, err
			}
			s.urls, s.read = urls, true
		}
		lo := cur.Index * pageSize
		if lo >= len(s.urls) {
			return nil, nil
		}
		return s.urls[lo:min(lo+pageSize, len(s.urls))], nil
	}
}
