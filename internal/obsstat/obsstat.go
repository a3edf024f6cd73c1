// Package obsstat reads per-altitude statistics tables in the layout of the
// Emmons aircraft campaign composites.
package obsstat

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Column positions within a statistics row.
const (
	colAlt = iota
	colN
	colP25
	colMedian
	colMean
	colStdDev
	colP75
	numCols
)

// ErrNoRows is returned when a file holds no data rows.
var ErrNoRows = errors.New("no data rows")

// Profile is one vertical profile of observed (or pre-sampled model)
// statistics. Values absent from a row are NaN.
type Profile struct {
	Title  string
	Alt    []float64 // km
	N      []float64
	P25    []float64
	Median []float64
	Mean   []float64
	StdDev []float64
	P75    []float64
}

// Len returns the number of altitude rows.
func (p *Profile) Len() int { return len(p.Alt) }

// SDBounds returns mean-stddev and mean+stddev per row.
func (p *Profile) SDBounds() (lower, upper []float64) {
	lower = make([]float64, len(p.Mean))
	upper = make([]float64, len(p.Mean))
	for i, m := range p.Mean {
		lower[i] = m - p.StdDev[i]
		upper[i] = m + p.StdDev[i]
	}
	return lower, upper
}

func (p *Profile) cols() []*[]float64 {
	return []*[]float64{&p.Alt, &p.N, &p.P25, &p.Median, &p.Mean, &p.StdDev, &p.P75}
}

func (p *Profile) add(row []float64) {
	for i, c := range p.cols() {
		v := math.NaN()
		if i < len(row) {
			v = row[i]
		}
		*c = append(*c, v)
	}
}

// Read loads a statistics file. Files ending in .csv are comma separated
// with one header row; anything else is whitespace separated with '#'
// comments. A "# title: ..." comment names the profile.
func Read(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p *Profile
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		p, err = readCSV(f)
	} else {
		p, err = readText(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRows)
	}
	if p.Title == "" {
		p.Title = Stem(path, "")
	}
	return p, nil
}

func readCSV(r io.Reader) (*Profile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	p := &Profile{}
	for i, rec := range recs {
		if i == 0 {
			continue
		}
		row, ok := parseRow(rec)
		if !ok {
			return nil, fmt.Errorf("row %d: non-numeric altitude %q", i+1, rec[0])
		}
		p.add(row)
	}
	return p, nil
}

func readText(r io.Reader) (*Profile, error) {
	p := &Profile{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if c, ok := strings.CutPrefix(text, "#"); ok {
			if title, ok := cutKey(c, "title:"); ok {
				p.Title = title
			}
			continue
		}
		row, ok := parseRow(strings.Fields(text))
		if !ok {
			// Column header.
			if p.Len() == 0 {
				continue
			}
			return nil, fmt.Errorf("line %d: non-numeric altitude in %q", line, text)
		}
		p.add(row)
	}
	return p, sc.Err()
}

func cutKey(comment, key string) (string, bool) {
	c := strings.TrimSpace(comment)
	if len(c) < len(key) || !strings.EqualFold(c[:len(key)], key) {
		return "", false
	}
	return strings.TrimSpace(c[len(key):]), true
}

// parseRow converts the leading statistics columns. Unparsable values past
// the altitude become NaN; an unparsable altitude rejects the row.
func parseRow(tokens []string) ([]float64, bool) {
	if len(tokens) == 0 {
		return nil, false
	}
	n := min(len(tokens), numCols)
	row := make([]float64, n)
	for i := range n {
		v, err := strconv.ParseFloat(strings.TrimSpace(tokens[i]), 64)
		if err != nil {
			if i == colAlt {
				return nil, false
			}
			v = math.NaN()
		}
		row[i] = v
	}
	return row, true
}

// Pair is a model statistics file and the observation file sharing its stem.
type Pair struct {
	Name  string
	Model string
	Obs   string
}

// Stem strips the directory and suffix from a file name. With an empty
// suffix the extension is stripped.
func Stem(path, suffix string) string {
	base := filepath.Base(path)
	if suffix == "" {
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.TrimSuffix(base, suffix)
}

// MatchByBasename pairs <modelDir>/<stem><modelSuffix> with
// <obsDir>/<stem><obsSuffix>, sorted by stem. Files without a partner are
// ignored.
func MatchByBasename(modelDir, obsDir, modelSuffix, obsSuffix string) ([]Pair, error) {
	models, err := filepath.Glob(filepath.Join(modelDir, "*"+modelSuffix))
	if err != nil {
		return nil, err
	}
	var pairs []Pair
	for _, m := range models {
		stem := Stem(m, modelSuffix)
		obs := filepath.Join(obsDir, stem+obsSuffix)
		if _, err := os.Stat(obs); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		pairs = append(pairs, Pair{Name: stem, Model: m, Obs: obs})
	}
	slices.SortFunc(pairs, func(a, b Pair) int { return strings.Compare(a.Name, b.Name) })
	return pairs, nil
}
