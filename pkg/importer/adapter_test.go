package importer

import (
	"strings"
	"testing"
)

func TestRegistry(t *testing.T) {
	var names []string
	for _, f := range All() {
		names = append(names, f.Name())
	}
	if got := strings.Join(names, ","); got != "csv,json,yaml" {
		t.Errorf("All() = %s, want csv,json,yaml", got)
	}

	if _, err := Get("CSV"); err != nil {
		t.Errorf("Get is case-insensitive: %v", err)
	}
	if _, err := Get("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"terms.csv", "csv"},
		{"/tmp/TERMS.TXT", "csv"},
		{"product-terms.json", "json"},
		{"terms.yml", "yaml"},
		{"https://example.com/lists/terms.yaml", "yaml"},
	}
	for _, tt := range tests {
		f, err := ForPath(tt.path)
		if err != nil {
			t.Errorf("ForPath(%q): %v", tt.path, err)
			continue
		}
		if f.Name() != tt.want {
			t.Errorf("ForPath(%q) = %s, want %s", tt.path, f.Name(), tt.want)
		}
	}

	if _, err := ForPath("terms.xlsx"); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func parseWith(t *testing.T, name, input string) []Row {
	t.Helper()
	f, err := Get(name)
	if err != nil {
		t.Fatalf("Get(%s): %v", name, err)
	}
	rows, err := f.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse %s: %v", name, err)
	}
	return rows
}

func TestCSVFormat(t *testing.T) {
	input := "\ufeffcanonical;variants\n" +
		"# comment\n" +
		"Claude Code;Cloudcode|Cloud Code\n" +
		"  Cursor ; Curser | | \n" +
		";orphan\n" +
		"GitHub\n" +
		"Windsurf;WindSurf;Wind Surf\n"

	rows := parseWith(t, "csv", input)
	want := []Row{
		{Canonical: "Claude Code", Variants: []string{"Cloudcode", "Cloud Code"}},
		{Canonical: "Cursor", Variants: []string{"Curser"}},
		{Canonical: "GitHub"},
		{Canonical: "Windsurf", Variants: []string{"WindSurf", "Wind Surf"}},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i := range want {
		if rows[i].Canonical != want[i].Canonical || strings.Join(rows[i].Variants, ",") != strings.Join(want[i].Variants, ",") {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
	if rows[0].Line != 3 {
		t.Errorf("first row line = %d, want 3", rows[0].Line)
	}
}

func TestCSVFormat_NoHeader(t *testing.T) {
	rows := parseWith(t, "csv", "Lovable;Loveable\n")
	if len(rows) != 1 || rows[0].Canonical != "Lovable" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestJSONFormat(t *testing.T) {
	rows := parseWith(t, "json", `{"Zed": ["zedd"], "Alpha": "bad", "Mid": []}`)
	if len(rows) != 3 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Canonical != "Zed" || rows[1].Canonical != "Alpha" || rows[2].Canonical != "Mid" {
		t.Errorf("document order not kept: %+v", rows)
	}
	if len(rows[1].Variants) != 0 {
		t.Errorf("malformed entry should have no variants, got %v", rows[1].Variants)
	}

	f, _ := Get("json")
	if _, err := f.Parse(strings.NewReader(`["not", "an", "object"]`)); err == nil {
		t.Error("expected error for non-object JSON")
	}
}

func TestYAMLFormat(t *testing.T) {
	input := "Firecrawl:\n  - Fire Crawl\n  - FireCrawl\nReplit: [Repl.it]\nGitHub: ~\n"
	rows := parseWith(t, "yaml", input)
	if len(rows) != 3 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Canonical != "Firecrawl" || strings.Join(rows[0].Variants, ",") != "Fire Crawl,FireCrawl" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Canonical != "Replit" || len(rows[1].Variants) != 1 {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if rows[2].Canonical != "GitHub" || len(rows[2].Variants) != 0 {
		t.Errorf("row 2 = %+v", rows[2])
	}

	f, _ := Get("yaml")
	if _, err := f.Parse(strings.NewReader("- a\n- b\n")); err == nil {
		t.Error("expected error for a top-level sequence")
	}
	if rows, err := f.Parse(strings.NewReader("")); err != nil || len(rows) != 0 {
		t.Errorf("empty yaml = %v, %v", rows, err)
	}
}
