package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hazyhaar/product-name-normalizer/pkg/dict"
)

func init() {
	Register(&csvFormat{})
}

// csvFormat reads "canonical;variant|variant" records. A first record whose
// canonical column reads "canonical" or "correct" is a header and is skipped.
// Lines starting with '#' are comments.
type csvFormat struct{}

func (csvFormat) Name() string         { return "csv" }
func (csvFormat) Extensions() []string { return []string{".csv", ".txt"} }

func (csvFormat) Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.Comment = '#'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var rows []Row
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("csv line %d: %w", perr.Line, perr.Err)
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if first {
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
			first = false
			if isHeader(record[0]) {
				continue
			}
		}

		canonical := dict.TrimTerm(record[0])
		if canonical == "" {
			continue
		}
		var variants []string
		for _, field := range record[1:] {
			for _, v := range strings.Split(field, "|") {
				if v = dict.TrimTerm(v); v != "" {
					variants = append(variants, v)
				}
			}
		}
		rows = append(rows, Row{Canonical: canonical, Variants: variants, Line: line})
	}
	return rows, nil
}

func isHeader(field string) bool {
	f := dict.TrimTerm(field)
	return dict.EqualFold(f, "canonical") || dict.EqualFold(f, "correct")
}
