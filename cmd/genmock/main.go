// Command genmock writes a deterministic synthetic secondary-forest dataset
// in the FLORESER CSV layout, for local runs and tests. The same seed always
// produces the same file.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out dataset/floreser-9-22-1-ages-sf.csv \
//	  -seed 42 -start 2008 -end 2023 -municipalities 20
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
)

type municipality struct {
	state string
	name  string
}

// Legal Amazon municipalities with large secondary-forest areas.
var municipalities = []municipality{
	{"Pará", "Altamira"},
	{"Pará", "São Félix do Xingu"},
	{"Amazonas", "Lábrea"},
	{"Mato Grosso", "Colniza"},
	{"Rondônia", "Porto Velho"},
	{"Pará", "Marabá"},
	{"Pará", "Paragominas"},
	{"Amazonas", "Apuí"},
	{"Acre", "Feijó"},
	{"Maranhão", "Barra do Corda"},
	{"Pará", "Novo Repartimento"},
	{"Mato Grosso", "Aripuanã"},
	{"Amazonas", "Manicoré"},
	{"Rondônia", "Machadinho D'Oeste"},
	{"Pará", "Itaituba"},
	{"Acre", "Tarauacá"},
	{"Tocantins", "Araguaína"},
	{"Maranhão", "Grajaú"},
	{"Roraima", "Caracaraí"},
	{"Amapá", "Laranjal do Jari"},
	{"Mato Grosso", "Juara"},
	{"Amazonas", "Humaitá"},
	{"Pará", "Pacajá"},
	{"Acre", "Sena Madureira"},
	{"Pará", "Portel"},
}

type options struct {
	seed           uint64
	start, end     int
	municipalities int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated CSV")
	seed := flag.Uint64("seed", 42, "random seed")
	start := flag.Int("start", 2008, "first year")
	end := flag.Int("end", 2023, "last year")
	count := flag.Int("municipalities", len(municipalities), "number of municipalities to include")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return errors.New("missing required flag: -out")
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	rows, err := generate(f, options{seed: *seed, start: *start, end: *end, municipalities: *count})
	if err != nil {
		return err
	}
	log.Printf("wrote %d rows to %s", rows, *out)
	return nil
}

// generate writes the header and one row per municipality per year, and
// returns the number of data rows written.
func generate(w io.Writer, opts options) (int, error) {
	if opts.end < opts.start {
		return 0, fmt.Errorf("end year %d before start year %d", opts.end, opts.start)
	}
	if opts.municipalities < 1 || opts.municipalities > len(municipalities) {
		return 0, fmt.Errorf("municipalities must be 1-%d", len(municipalities))
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"state", "name", "year", "area"}); err != nil {
		return 0, err
	}

	rows := 0
	for _, m := range municipalities[:opts.municipalities] {
		// Each municipality regrows at its own pace from its own base area.
		area := 500 + rng.Float64()*20000
		growth := 0.95 + rng.Float64()*0.15
		for year := opts.start; year <= opts.end; year++ {
			area *= growth
			row := []string{m.state, m.name, strconv.Itoa(year), strconv.FormatFloat(math.Round(area*100)/100, 'f', 2, 64)}
			if err := cw.Write(row); err != nil {
				return rows, err
			}
			rows++
		}
	}

	cw.Flush()
	return rows, cw.Error()
}
