package mzml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Scan lists hold one child per spectrum or chromatogram. Only the first
// child is kept in the tree; the others are read again by StreamElements.
var prunedLists = map[string]bool{
	"spectrumList":     true,
	"chromatogramList": true,
}

func newDecoder(reader io.Reader) *xml.Decoder {
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel
	return d
}

func syntaxErr(err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %v", ErrNotXML, err)
	}
	return err
}

// Read reads the element tree of an mzML file from an io.Reader.
// Scan lists are pruned to their first element, so the memory used does
// not depend on the number of spectra.
func Read(reader io.Reader) (*Document, error) {
	doc := &Document{
		top:    &Node{},
		Pruned: make(map[string]int),
	}
	d := newDecoder(reader)

	for {
		t, tokenErr := d.Token()
		if tokenErr != nil {
			if tokenErr == io.EOF {
				break
			}
			return nil, syntaxErr(tokenErr)
		}
		if t, ok := t.(xml.StartElement); ok {
			root, err := readElement(d, t, doc.top, doc.Pruned)
			if err != nil {
				return nil, syntaxErr(err)
			}
			doc.top.Children = append(doc.top.Children, root)
			// Anything after the root element is not of interest
			break
		}
	}
	if len(doc.top.Children) == 0 {
		return nil, ErrNoRoot
	}
	return doc, nil
}

// readElement builds the subtree of start. When pruned is non-nil, scan
// lists keep only their first child and the skipped ones are counted.
func readElement(d *xml.Decoder, start xml.StartElement, parent *Node,
	pruned map[string]int) (*Node, error) {
	n := &Node{
		Name:   start.Name.Local,
		Attrs:  start.Attr,
		Parent: parent,
	}
	prune := pruned != nil && prunedLists[n.Name]
	for {
		t, err := d.Token()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch t := t.(type) {
		case xml.StartElement:
			if prune && len(n.Children) > 0 {
				if err := d.Skip(); err != nil {
					return nil, err
				}
				pruned[n.Name]++
				continue
			}
			child, err := readElement(d, t, n, pruned)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		case xml.EndElement:
			return n, nil
		}
	}
}

// StreamElements calls fn for every element with the given local name, in
// document order. Each subtree is built, handed to fn and then released, so
// only one element is held in memory at a time. The nodes passed to fn have
// no parent. Returning an error from fn stops the stream.
func StreamElements(reader io.Reader, name string, fn func(*Node) error) error {
	if name == "" {
		return nil
	}
	d := newDecoder(reader)
	for {
		t, tokenErr := d.Token()
		if tokenErr != nil {
			if tokenErr == io.EOF {
				return nil
			}
			return syntaxErr(tokenErr)
		}
		if t, ok := t.(xml.StartElement); ok && t.Name.Local == name {
			n, err := readElement(d, t, nil, nil)
			if err != nil {
				return syntaxErr(err)
			}
			if err := fn(n); err != nil {
				return err
			}
		}
	}
}
