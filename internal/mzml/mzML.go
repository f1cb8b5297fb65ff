package mzml

import (
	"encoding/xml"
	"errors"
	"strings"
)

// Node is an element of a parsed mzML (or imzML) document. Only element
// structure and attributes are kept; character data is dropped because
// none of the metadata lives in text content.
type Node struct {
	Name     string
	Attrs    []xml.Attr
	Children []*Node
	Parent   *Node
}

// Document is the element tree of an mzML file, with the scan lists pruned
// to their first element. The top node is a synthetic node without a name
// whose only child is the XML root element.
type Document struct {
	top *Node
	// Pruned counts the scan elements that were skipped per list element
	// name while reading.
	Pruned map[string]int
}

// CVParam contains values and attributes of a mzML Controlled Vocabulary term
// (http://www.peptideatlas.org/tmp/mzML1.1.0.html)
type CVParam struct {
	Accession     string
	Name          string
	Value         string
	CvRef         string
	UnitCvRef     string
	UnitAccession string
	UnitName      string
}

var (
	// ErrNotXML means the input could not be parsed as XML
	ErrNotXML = errors.New("MzML: document is not valid XML")
	// ErrNoRoot means the input did not contain any element
	ErrNoRoot = errors.New("MzML: document has no root element")
)

// Top returns the synthetic node above the document root element.
func (doc *Document) Top() *Node {
	return doc.top
}

// Find returns the nodes matching a slash separated path of local names,
// starting at the synthetic top node. See Node.Find.
func (doc *Document) Find(path string) []*Node {
	return doc.top.Find(path)
}

// Exists reports whether at least one node matches path.
func (doc *Document) Exists(path string) bool {
	return doc.top.First(path) != nil
}

// Attr returns the value of the attribute with the given local name.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value, or def when the attribute is absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// Find returns all descendants of n reachable by the slash separated path
// of element names, in document order. A path with an empty segment never
// matches, so a query built from an unresolved name yields nothing.
func (n *Node) Find(path string) []*Node {
	if n == nil || path == "" {
		return nil
	}
	cur := []*Node{n}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return nil
		}
		var next []*Node
		for _, c := range cur {
			for _, child := range c.Children {
				if child.Name == seg {
					next = append(next, child)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		cur = next
	}
	return cur
}

// First returns the first node matching path, or nil.
func (n *Node) First(path string) *Node {
	if found := n.Find(path); len(found) > 0 {
		return found[0]
	}
	return nil
}

// Child returns the first direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// CVParam returns the controlled vocabulary attributes of n. Elements that
// are not cvParam (for example softwareParam) are read the same way.
func (n *Node) CVParam() CVParam {
	return CVParam{
		Accession:     n.AttrOr("accession", ""),
		Name:          n.AttrOr("name", ""),
		Value:         n.AttrOr("value", ""),
		CvRef:         n.AttrOr("cvRef", ""),
		UnitCvRef:     n.AttrOr("unitCvRef", ""),
		UnitAccession: n.AttrOr("unitAccession", ""),
		UnitName:      n.AttrOr("unitName", ""),
	}
}

// CVParams returns the cvParam children of n.
func (n *Node) CVParams() []CVParam {
	if n == nil {
		return nil
	}
	var pars []CVParam
	for _, c := range n.Children {
		if c.Name == "cvParam" {
			pars = append(pars, c.CVParam())
		}
	}
	return pars
}

// HasUnit reports whether the parameter carries any unit attribute.
func (p CVParam) HasUnit() bool {
	return p.UnitName != "" || p.UnitAccession != "" || p.UnitCvRef != ""
}

// Ref returns the CV reference of the parameter. When the cvRef attribute
// is missing, the namespace prefix of the accession is used.
func (p CVParam) Ref() string {
	if p.CvRef != "" {
		return p.CvRef
	}
	ns, _, _ := strings.Cut(p.Accession, ":")
	return ns
}

// UnitRef returns the unit CV reference, falling back to the namespace
// of the unit accession.
func (p CVParam) UnitRef() string {
	if p.UnitCvRef != "" {
		return p.UnitCvRef
	}
	ns, _, _ := strings.Cut(p.UnitAccession, ":")
	return ns
}
