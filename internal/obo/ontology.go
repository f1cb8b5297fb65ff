// Package obo loads OBO vocabularies (psi-ms.obo, imagingMS.obo) into a
// term graph answering lookup, parent, child, ancestor and descendant
// queries.
package obo

import (
	"cmp"
	"errors"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// ErrNoTerms means a vocabulary file did not contain a single term
var ErrNoTerms = errors.New("OBO: no terms found")

// Term is a vocabulary concept.
type Term struct {
	ID        string
	Name      string
	Namespace string
	// Parents holds the is_a targets in declaration order.
	Parents  []string
	Obsolete bool
}

// Header holds the OBO header fields of interest.
type Header struct {
	FormatVersion string
	DataVersion   string
	Ontology      string
}

// Ontology is an immutable term graph. Edges point from parent to child.
// It is safe for concurrent use.
type Ontology struct {
	Header Header

	terms  []*Term
	byID   map[string]int64
	byName map[string]int64
	g      *simple.DirectedGraph
}

// New builds an ontology from terms. Parent links to ids that are not
// among the terms are ignored; a later term with the same id replaces an
// earlier one.
func New(terms ...*Term) *Ontology {
	o := &Ontology{
		byID:   make(map[string]int64, len(terms)),
		byName: make(map[string]int64, len(terms)),
		g:      simple.NewDirectedGraph(),
	}
	for _, t := range terms {
		if id, ok := o.byID[t.ID]; ok {
			o.terms[id] = t
			continue
		}
		id := int64(len(o.terms))
		o.terms = append(o.terms, t)
		o.byID[t.ID] = id
		o.g.AddNode(simple.Node(id))
	}
	for id, t := range o.terms {
		if _, ok := o.byName[t.Name]; !ok && t.Name != "" {
			o.byName[t.Name] = int64(id)
		}
		for _, p := range t.Parents {
			pid, ok := o.byID[p]
			if !ok || pid == int64(id) {
				continue
			}
			o.g.SetEdge(o.g.NewEdge(simple.Node(pid), simple.Node(int64(id))))
		}
	}
	return o
}

// Merge combines vocabularies into one graph, so that terms of an
// extension vocabulary can refer to parents in the base vocabulary.
// On duplicate ids the later vocabulary wins.
func Merge(onts ...*Ontology) *Ontology {
	var terms []*Term
	var header Header
	for _, o := range onts {
		if o == nil {
			continue
		}
		if header.Ontology == "" {
			header = o.Header
		}
		terms = append(terms, o.terms...)
	}
	merged := New(terms...)
	merged.Header = header
	return merged
}

// Len returns the number of terms.
func (o *Ontology) Len() int {
	return len(o.terms)
}

// Term returns the term with the given id.
func (o *Ontology) Term(id string) (*Term, bool) {
	n, ok := o.byID[id]
	if !ok {
		return nil, false
	}
	return o.terms[n], true
}

// TermByName returns the first term declared with the given name.
func (o *Ontology) TermByName(name string) (*Term, bool) {
	n, ok := o.byName[name]
	if !ok {
		return nil, false
	}
	return o.terms[n], true
}

// Parents returns the ids of the direct parents of id that are part of
// the ontology, in declaration order.
func (o *Ontology) Parents(id string) []string {
	n, ok := o.byID[id]
	if !ok {
		return nil
	}
	return o.ids(orderedParents(o, n))
}

// Children returns the ids of the direct children of id, in the order the
// children were declared.
func (o *Ontology) Children(id string) []string {
	n, ok := o.byID[id]
	if !ok {
		return nil
	}
	nodes := graph.NodesOf(o.g.From(n))
	slices.SortFunc(nodes, func(a, b graph.Node) int { return cmp.Compare(a.ID(), b.ID()) })
	return o.ids(nodes)
}

// Descendants returns the ids of all terms reachable from id through child
// edges, not including id itself.
func (o *Ontology) Descendants(id string) []string {
	n, ok := o.byID[id]
	if !ok {
		return nil
	}
	return o.walk(o.g, n)
}

// Ancestors returns the ids of all terms reachable from id through parent
// edges, nearest first, not including id itself. Parents are visited in
// declaration order so the result is stable.
func (o *Ontology) Ancestors(id string) []string {
	n, ok := o.byID[id]
	if !ok {
		return nil
	}
	return o.walk(reverse{o}, n)
}

// IsDescendant reports whether id is a strict descendant of root.
func (o *Ontology) IsDescendant(id, root string) bool {
	for _, a := range o.Ancestors(id) {
		if a == root {
			return true
		}
	}
	return false
}

func (o *Ontology) walk(g traverse.Graph, from int64) []string {
	var ids []string
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != from {
				ids = append(ids, o.terms[n.ID()].ID)
			}
		},
	}
	bf.Walk(g, simple.Node(from), nil)
	return ids
}

func (o *Ontology) ids(nodes []graph.Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, o.terms[n.ID()].ID)
	}
	return ids
}

func orderedParents(o *Ontology, n int64) []graph.Node {
	var nodes []graph.Node
	for _, p := range o.terms[n].Parents {
		if pid, ok := o.byID[p]; ok && o.g.HasEdgeFromTo(pid, n) {
			nodes = append(nodes, simple.Node(pid))
		}
	}
	return nodes
}

// reverse implements the traverse.Graph reversing the direction of edges.
type reverse struct {
	o *Ontology
}

func (r reverse) From(id int64) graph.Nodes {
	return iterator.NewOrderedNodes(orderedParents(r.o, id))
}

func (r reverse) Edge(uid, vid int64) graph.Edge { return r.o.g.Edge(vid, uid) }
