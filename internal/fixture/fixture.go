// Package fixture reads tabular contact input rows used by parameterized checks.
package fixture

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Row is one set of contact inputs. Empty fields are absent values.
type Row struct {
	Line        int
	FirstName   string
	LastName    string
	PhoneNumber string
}

// String formats the row for use in check names.
func (r Row) String() string {
	return fmt.Sprintf("%s|%s|%s", orNull(r.FirstName), orNull(r.LastName), orNull(r.PhoneNumber))
}

func orNull(s string) string {
	if s == "" {
		return "<null>"
	}
	return s
}

// ErrUnsupportedFormat indicates a fixture file extension with no parser.
var ErrUnsupportedFormat = errors.New("fixture: unsupported format")

var header = []string{"firstname", "lastname", "phonenumber"}

// ParseCSV reads rows of firstName,lastName,phoneNumber. Lines starting with
// '#' are comments. A leading header row is skipped.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var rows []Row
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fixture: parsing csv: %w", err)
		}
		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, Row{
			Line:        line,
			FirstName:   strings.TrimSpace(rec[0]),
			LastName:    strings.TrimSpace(rec[1]),
			PhoneNumber: strings.TrimSpace(rec[2]),
		})
	}
	return rows, nil
}

func isHeader(rec []string) bool {
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(rec[i])) != h {
			return false
		}
	}
	return true
}

type yamlFile struct {
	Contacts []yamlRow `yaml:"contacts"`
}

type yamlRow struct {
	FirstName   *string `yaml:"firstName"`
	LastName    *string `yaml:"lastName"`
	PhoneNumber *string `yaml:"phoneNumber"`
}

// ParseYAML reads a document holding a top-level contacts list.
// Unknown keys are rejected; null or missing keys are absent values.
// Values are kept verbatim so blank strings reach the registry as given.
func ParseYAML(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("fixture: reading yaml: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	// Decode into nodes first so each row keeps its source line.
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fixture: parsing yaml: %w", err)
	}

	var f yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("fixture: parsing yaml: %w", err)
	}

	lines := contactLines(&doc)
	rows := make([]Row, len(f.Contacts))
	for i, c := range f.Contacts {
		rows[i] = Row{
			FirstName:   deref(c.FirstName),
			LastName:    deref(c.LastName),
			PhoneNumber: deref(c.PhoneNumber),
		}
		if i < len(lines) {
			rows[i].Line = lines[i]
		}
	}
	return rows, nil
}

// contactLines returns the line of each entry under the top-level contacts key.
func contactLines(doc *yaml.Node) []int {
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "contacts" {
			continue
		}
		seq := root.Content[i+1]
		lines := make([]int, len(seq.Content))
		for j, n := range seq.Content {
			lines[j] = n.Line
		}
		return lines
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Load reads the named fixture from fsys, choosing a parser by extension.
func Load(fsys fs.FS, name string) ([]Row, error) {
	var parse func(io.Reader) ([]Row, error)
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		parse = ParseCSV
	case ".yaml", ".yml":
		parse = ParseYAML
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}

	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("fixture: opening %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, name)
	}
	return rows, nil
}
