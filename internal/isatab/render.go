// Package isatab hands extracted metadata to the ISA-Tab stage.
package isatab

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ISA-tools/mzml2isa/internal/meta"
)

// ErrNoAssayName means a dictionary has no usable MS Assay Name
var ErrNoAssayName = errors.New("isatab: document has no MS Assay Name")

// ErrDuplicateAssay means two documents would be written to the same file
var ErrDuplicateAssay = errors.New("isatab: duplicate MS Assay Name")

// Renderer writes the metadata of a study. datatype is "mzML" or "imzML".
// When splitByPolarity is set, documents are grouped by scan polarity.
type Renderer interface {
	Render(docs []*meta.Dictionary, datatype string, splitByPolarity bool) error
}

// JSONRenderer writes every document as <MS Assay Name>.json into Dir,
// and an index of the written files as a_<datatype>.json.
type JSONRenderer struct {
	Dir string
	// ISANames writes the fields under their ISA-Tab column names.
	ISANames bool
}

type index struct {
	Datatype string              `json:"datatype"`
	Assays   map[string][]string `json:"assays"`
}

// PolarityTag returns the short name of the scan polarity of d, used to
// group documents: POS, NEG, ALT, NA, or NOP without polarity.
func PolarityTag(d *meta.Dictionary) string {
	e, ok := d.Get("Scan polarity")
	if !ok {
		return "NOP"
	}
	var name string
	switch e := e.(type) {
	case meta.CvTerm:
		name = e.Name
	case meta.Scalar:
		name = e.Value.Text()
	}
	var tag []rune
	for _, r := range strings.ToUpper(name) {
		if len(tag) == 3 || r == ' ' {
			break
		}
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			tag = append(tag, r)
		}
	}
	if len(tag) == 0 {
		return "NOP"
	}
	return string(tag)
}

func assayName(d *meta.Dictionary) (string, error) {
	e, ok := d.Get("MS Assay Name")
	s, isScalar := e.(meta.Scalar)
	if !ok || !isScalar {
		return "", ErrNoAssayName
	}
	name := filepath.Base(s.Value.Text())
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", ErrNoAssayName
	}
	return name, nil
}

// Render implements Renderer.
func (r *JSONRenderer) Render(docs []*meta.Dictionary, datatype string, splitByPolarity bool) error {
	idx := index{Datatype: datatype, Assays: make(map[string][]string)}
	groups := make([]string, len(docs))
	rels := make([]string, len(docs))
	seen := make(map[string]bool, len(docs))
	// Nothing is written when two documents share a file
	for i, d := range docs {
		name, err := assayName(d)
		if err != nil {
			return err
		}
		if splitByPolarity {
			groups[i] = PolarityTag(d)
		}
		rels[i] = filepath.Join(groups[i], name+".json")
		if seen[rels[i]] {
			return fmt.Errorf("%w: %s", ErrDuplicateAssay, filepath.ToSlash(rels[i]))
		}
		seen[rels[i]] = true
	}
	for i, d := range docs {
		group, rel := groups[i], rels[i]
		out := d
		if r.ISANames {
			out = meta.ISAView(d)
		}
		if err := writeJSON(filepath.Join(r.Dir, rel), out); err != nil {
			return err
		}
		idx.Assays[group] = append(idx.Assays[group], filepath.ToSlash(rel))
	}
	return writeJSON(filepath.Join(r.Dir, fmt.Sprintf("a_%s.json", datatype)), idx)
}

func writeJSON(file string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, append(b, '\n'), 0o644)
}
