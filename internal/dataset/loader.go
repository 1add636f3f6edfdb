package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/floreser-dashboard/internal/domain"
)

var (
	// ErrUnreadable reports that the dataset file could not be opened or read.
	ErrUnreadable = errors.New("dataset unreadable")
	// ErrMissingHeader reports that the dataset has no header row.
	ErrMissingHeader = errors.New("dataset header missing")
)

// Required column names, matched case-insensitively after trimming.
const (
	ColumnState = "state"
	ColumnName  = "name"
	ColumnYear  = "year"
	ColumnArea  = "area"
)

const (
	utf8BOM       = "\ufeff"
	ctxCheckEvery = 1024
)

// Snapshot is an immutable parsed copy of the dataset file.
type Snapshot struct {
	Path        string
	Records     []domain.Record
	RowWarnings int
	ModTime     time.Time
	Size        int64
	LoadedAt    time.Time
}

func (s *Snapshot) matches(info os.FileInfo) bool {
	return s.Size == info.Size() && s.ModTime.Equal(info.ModTime())
}

// Load reads and parses the dataset at path.
func Load(ctx context.Context, path string, logger *slog.Logger) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	res, err := Parse(ctx, f, logger.With("path", path))
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Path:        path,
		Records:     res.Records,
		RowWarnings: res.Warnings,
		ModTime:     info.ModTime(),
		Size:        info.Size(),
		LoadedAt:    clock.Now(),
	}, nil
}

// ParseResult is the outcome of Parse.
type ParseResult struct {
	Records []domain.Record
	// Header holds the normalized header names in file order.
	Header []string
	// Missing lists required columns absent from the header.
	Missing []string
	// Warnings counts skipped rows, unparsable fields and missing columns.
	Warnings int
}

type columns struct {
	state, name, year, area int
}

// Parse reads comma-separated records from r. The first row is the header;
// columns may appear in any order and unknown columns are ignored. Rows the
// CSV reader rejects are skipped. Unparsable year or area values are logged
// and the field is left at zero; the row is kept.
func Parse(ctx context.Context, r io.Reader, logger *slog.Logger) (ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ParseResult{}, ErrMissingHeader
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return ParseResult{}, fmt.Errorf("%w: %w", ErrMissingHeader, err)
		}
		return ParseResult{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	res := ParseResult{Records: make([]domain.Record, 0), Header: normalizeHeader(header)}
	cols := indexColumns(res.Header)
	res.Missing = cols.missing()
	if len(res.Missing) > 0 {
		logger.Warn("dataset missing required columns, fields default to zero", "columns", res.Missing)
		res.Warnings++
	}

	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return ParseResult{}, err
			}
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				logger.Warn("skipping malformed row", "line", pe.Line, "error", pe.Err)
				res.Warnings++
				continue
			}
			return ParseResult{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}

		line, _ := cr.FieldPos(0)
		rec := domain.Record{
			State: strings.TrimSpace(field(row, cols.state)),
			Name:  strings.TrimSpace(field(row, cols.name)),
		}
		if cols.year >= 0 {
			year, ok := parseYear(field(row, cols.year))
			if !ok {
				logger.Warn("unparsable year, using 0", "line", line, "column", ColumnYear, "value", field(row, cols.year))
				res.Warnings++
			}
			rec.Year = year
		}
		if cols.area >= 0 {
			area, ok := parseArea(field(row, cols.area))
			if !ok {
				logger.Warn("unparsable area, using 0", "line", line, "column", ColumnArea, "value", field(row, cols.area))
				res.Warnings++
			}
			rec.Area = area
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

func indexColumns(header []string) columns {
	cols := columns{state: -1, name: -1, year: -1, area: -1}
	for i, h := range header {
		var dst *int
		switch h {
		case ColumnState:
			dst = &cols.state
		case ColumnName:
			dst = &cols.name
		case ColumnYear:
			dst = &cols.year
		case ColumnArea:
			dst = &cols.area
		default:
			continue
		}
		if *dst < 0 {
			*dst = i
		}
	}
	return cols
}

func (c columns) missing() []string {
	var out []string
	for _, col := range []struct {
		name string
		idx  int
	}{
		{ColumnState, c.state},
		{ColumnName, c.name},
		{ColumnYear, c.year},
		{ColumnArea, c.area},
	} {
		if col.idx < 0 {
			out = append(out, col.name)
		}
	}
	return out
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseYear accepts integers and integral decimals such as "2020.0" that fit
// in 32 bits.
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// parseArea rejects non-finite and negative values.
func parseArea(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}
