package obo

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	initialTermCapacity = 4096    // psi-ms.obo has ~3k terms
	scannerBufferSize   = 1 << 20 // 1 MB
)

// ParseOBO parses an OBO flat-file vocabulary from the given reader.
// Only [Term] stanzas are kept; is_a edges become parent links.
func ParseOBO(r io.Reader) (*Ontology, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	terms := make([]*Term, 0, initialTermCapacity)
	var header Header

	inHeader := true
	line, ok := nextLine(scanner)
	for ok {
		switch {
		case line == "[Term]":
			inHeader = false
			var term *Term
			// A stanza may end at the header of the next one
			term, line, ok = parseTerm(scanner)
			if term.ID != "" {
				terms = append(terms, term)
			}
			continue
		case strings.HasPrefix(line, "["):
			inHeader = false
			// Skip other stanza types
		case inHeader:
			parseHeaderLine(&header, line)
		}
		line, ok = nextLine(scanner)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obo: %w", err)
	}
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}
	ont := New(terms...)
	ont.Header = header
	return ont, nil
}

func parseHeaderLine(h *Header, line string) {
	key, val, ok := strings.Cut(line, ": ")
	if !ok {
		return
	}
	switch key {
	case "format-version":
		h.FormatVersion = val
	case "data-version":
		h.DataVersion = val
	case "ontology":
		h.Ontology = val
	}
}

func nextLine(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

// parseTerm reads the lines of one stanza, up to the blank line or the
// stanza header ending it. A header is returned as the next line to parse.
func parseTerm(scanner *bufio.Scanner) (t *Term, next string, ok bool) {
	t = &Term{}
	for {
		line, more := nextLine(scanner)
		if !more {
			return t, "", false
		}
		if line == "" {
			return t, "", true // End of stanza
		}
		if strings.HasPrefix(line, "[") {
			return t, line, true
		}
		key, val, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		switch key {
		case "id":
			t.ID = val
		case "name":
			t.Name = val
		case "namespace":
			t.Namespace = val
		case "is_a":
			t.Parents = append(t.Parents, parseIsA(val))
		case "is_obsolete":
			t.Obsolete = val == "true"
		}
	}
}

// parseIsA parses: "MS:1000031 ! instrument model", possibly followed by
// a trailing modifier block.
func parseIsA(val string) string {
	id, _, _ := strings.Cut(val, " ! ")
	id, _, _ = strings.Cut(id, " {")
	return strings.TrimSpace(id)
}
