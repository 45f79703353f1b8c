// CLAUDE:SUMMARY File-backed JSON term dictionary: bootstrap with defaults, permissive ordered parse, atomic save, mtime version tag.
package dict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/buger/jsonparser"
)

// Version identifies one state of the dictionary file on disk.
type Version struct {
	ModTime int64 // UnixNano
	Size    int64
}

// Store owns the dictionary file at a single path.
type Store struct {
	path   string
	logger *slog.Logger
	stat   func(string) (os.FileInfo, error) // os.Stat; replaced in tests
}

// NewStore returns a store for the dictionary at path. A nil logger means slog.Default().
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger, stat: os.Stat}
}

// Path returns the dictionary file location.
func (s *Store) Path() string {
	return s.path
}

// EnsureExists writes the default dictionary if no file exists yet.
func (s *Store) EnsureExists() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat terms file: %w", err)
	}
	s.logger.Info("creating terms file with defaults", "path", s.path)
	return s.Save(DefaultTerms())
}

// Load reads the dictionary, creating it first if needed.
func (s *Store) Load() (*TermMap, error) {
	if err := s.EnsureExists(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read terms file: %w", err)
	}
	terms, malformed, err := ParseTerms(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if len(malformed) > 0 {
		s.logger.Warn("terms with invalid variant lists treated as empty", "path", s.path, "terms", malformed)
	}
	return terms, nil
}

// Save writes terms with sorted keys through a temporary sibling file and a rename.
func (s *Store) Save(terms *TermMap) error {
	data, err := EncodeTerms(terms)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create terms dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace terms file: %w", err)
	}
	return nil
}

// Version returns the current version tag of the file. It is never cached.
func (s *Store) Version() (Version, error) {
	fi, err := s.stat(s.path)
	if err != nil {
		return Version{}, err
	}
	return Version{ModTime: fi.ModTime().UnixNano(), Size: fi.Size()}, nil
}

// ParseTerms decodes a dictionary document, keeping key order.
// Values that are not arrays of strings become empty variant lists; their keys
// are returned in malformed.
func ParseTerms(data []byte) (terms *TermMap, malformed []string, err error) {
	if !json.Valid(data) {
		return nil, nil, fmt.Errorf("%w: invalid JSON", ErrFormat)
	}
	_, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if typ != jsonparser.Object {
		return nil, nil, fmt.Errorf("%w: got %s", ErrFormat, typ)
	}

	terms = NewTermMap()
	err = jsonparser.ObjectEach(data, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		canonical := string(key)
		variants, ok := parseVariants(value, vt)
		if !ok {
			malformed = append(malformed, canonical)
		}
		terms.Set(canonical, variants)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return terms, malformed, nil
}

func parseVariants(value []byte, vt jsonparser.ValueType) ([]string, bool) {
	if vt != jsonparser.Array {
		return []string{}, false
	}
	variants := []string{}
	ok := true
	_, err := jsonparser.ArrayEach(value, func(item []byte, it jsonparser.ValueType, _ int, err error) {
		if !ok || err != nil || it != jsonparser.String {
			ok = false
			return
		}
		s, perr := jsonparser.ParseString(item)
		if perr != nil {
			ok = false
			return
		}
		variants = append(variants, s)
	})
	if err != nil || !ok {
		return []string{}, false
	}
	return variants, true
}

// EncodeTerms renders terms as indented JSON with sorted keys and a trailing newline.
func EncodeTerms(terms *TermMap) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(terms.Plain()); err != nil {
		return nil, fmt.Errorf("encode terms: %w", err)
	}
	return buf.Bytes(), nil
}
