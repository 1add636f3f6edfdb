// Command validate checks a FLORESER dataset CSV before it is deployed:
// required columns, row parsing, year coverage, duplicate keys, and that the
// municipality ranking conserves the area it aggregates.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dataset dataset/floreser-9-22-1-ages-sf.csv \
//	  -start 2008 -end 2023
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/floreser-dashboard/internal/dataset"
	"github.com/couchcryptid/floreser-dashboard/internal/domain"
)

// phase tracks pass/fail for a validation phase. Notes are reported but do
// not fail the phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("dataset", "", "path to the dataset CSV")
	start := flag.Int("start", 2008, "first year the dataset must cover")
	end := flag.Int("end", 2023, "last year the dataset must cover")
	verbose := flag.Bool("v", false, "log every row warning to stderr")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	if code := run(*path, domain.YearRange{Start: *start, End: *end}, logger, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(path string, years domain.YearRange, logger *slog.Logger, out io.Writer) int {
	fmt.Fprintln(out, "=== FLORESER Dataset Validation ===")
	fmt.Fprintln(out)

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(out, "FATAL: open dataset: %v\n", err)
		return 1
	}
	defer f.Close()

	res, err := dataset.Parse(context.Background(), f, logger)
	if err != nil {
		fmt.Fprintf(out, "FATAL: parse dataset: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateColumns(res),
		validateRows(res),
		validateCoverage(res.Records, years),
		validateDuplicates(res.Records),
		validateRanking(res.Records, years),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d rows, %d states, %d row warnings\n",
		len(res.Records), len(domain.DistinctStates(res.Records)), res.Warnings)

	for _, p := range phases {
		if p.passed() && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(out, "  Note: %s\n", n)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateColumns(res dataset.ParseResult) *phase {
	p := &phase{name: "Phase 1: Required columns"}
	for _, col := range res.Missing {
		p.errorf("missing column %q (header: %v)", col, res.Header)
	}
	if len(res.Records) == 0 {
		p.errorf("dataset has no data rows")
	}
	return p
}

func validateRows(res dataset.ParseResult) *phase {
	p := &phase{name: "Phase 2: Row parsing"}
	// Missing columns already count as one warning and fail phase 1.
	warnings := res.Warnings
	if len(res.Missing) > 0 {
		warnings--
	}
	if warnings > 0 {
		p.errorf("%d row warning(s); rerun with -v to list them", warnings)
	}
	for i, r := range res.Records {
		if r.State == "" || r.Name == "" {
			p.notef("record %d has an empty state or municipality and is excluded from rankings", i+1)
		}
	}
	return p
}

func validateCoverage(records []domain.Record, years domain.YearRange) *phase {
	p := &phase{name: "Phase 3: Year coverage"}
	seen := make(map[int]bool)
	outside := 0
	for _, r := range records {
		seen[r.Year] = true
		if !years.Contains(r.Year) {
			outside++
		}
	}
	for y := years.Start; y <= years.End; y++ {
		if !seen[y] {
			p.errorf("no records for year %d", y)
		}
	}
	if outside > 0 {
		p.notef("%d record(s) fall outside %d-%d", outside, years.Start, years.End)
	}
	return p
}

type recordKey struct {
	state, name string
	year        int
}

// Duplicate keys are legal and summed by the aggregations, so they are only
// reported.
func validateDuplicates(records []domain.Record) *phase {
	p := &phase{name: "Phase 4: Duplicate keys"}
	counts := make(map[recordKey]int)
	var order []recordKey
	for _, r := range records {
		k := recordKey{state: r.State, name: r.Name, year: r.Year}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	dupes := 0
	for _, k := range order {
		if counts[k] > 1 {
			dupes++
		}
	}
	if dupes > 0 {
		p.notef("%d (state, municipality, year) key(s) appear more than once; their areas are summed", dupes)
	}
	return p
}

func validateRanking(records []domain.Record, years domain.YearRange) *phase {
	p := &phase{name: "Phase 5: Ranking conservation"}
	totals := domain.RankedMunicipalityTotals(records, domain.TotalsQuery{Years: years})

	var want float64
	for _, r := range records {
		if years.Contains(r.Year) && r.State != "" && r.Name != "" {
			want += r.Area
		}
	}
	var got float64
	for i, t := range totals {
		got += t.TotalArea
		if i > 0 && totals[i-1].TotalArea < t.TotalArea {
			p.errorf("ranking not sorted at position %d: %.2f < %.2f", i, totals[i-1].TotalArea, t.TotalArea)
		}
	}
	if math.Abs(want-got) > 1e-6*math.Max(1, math.Abs(want)) {
		p.errorf("ranked totals sum to %.4f, records sum to %.4f", got, want)
	}
	return p
}
