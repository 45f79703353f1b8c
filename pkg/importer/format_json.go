package importer

import (
	"fmt"
	"io"

	"github.com/hazyhaar/product-name-normalizer/pkg/dict"
)

func init() {
	Register(&jsonFormat{})
}

// jsonFormat reads a dictionary in the terms-file format, e.g. another
// machine's terms file.
type jsonFormat struct{}

func (jsonFormat) Name() string         { return "json" }
func (jsonFormat) Extensions() []string { return []string{".json"} }

func (jsonFormat) Parse(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	terms, _, err := dict.ParseTerms(data)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, terms.Len())
	terms.Each(func(canonical string, variants []string) {
		rows = append(rows, Row{Canonical: canonical, Variants: variants})
	})
	return rows, nil
}
