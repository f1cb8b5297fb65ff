package extract

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ISA-tools/mzml2isa/internal/obo"
)

// Vocabulary is the read-only ontology queried during extraction.
// *obo.Ontology implements it.
type Vocabulary interface {
	Term(id string) (*obo.Term, bool)
	Parents(id string) []string
	Descendants(id string) []string
	Ancestors(id string) []string
}

// DefaultCacheSize bounds the number of descendant sets kept in memory.
const DefaultCacheSize = 512

type termSet map[string]struct{}

// TermIndex answers "is this accession in the family of that root"
// questions. Descendant sets are computed once per root and cached; the
// cache is safe for concurrent use, so one TermIndex serves every worker.
type TermIndex struct {
	vocab Vocabulary
	cache *lru.Cache[string, termSet]
}

// NewTermIndex returns an index over vocab keeping at most size
// descendant sets.
func NewTermIndex(vocab Vocabulary, size int) (*TermIndex, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, termSet](size)
	if err != nil {
		return nil, err
	}
	return &TermIndex{vocab: vocab, cache: cache}, nil
}

// Vocabulary returns the indexed vocabulary.
func (ix *TermIndex) Vocabulary() Vocabulary {
	return ix.vocab
}

// family returns the descendants of root together with root.
func (ix *TermIndex) family(root string) termSet {
	if s, ok := ix.cache.Get(root); ok {
		return s
	}
	desc := ix.vocab.Descendants(root)
	s := make(termSet, len(desc)+1)
	s[root] = struct{}{}
	for _, id := range desc {
		s[id] = struct{}{}
	}
	// Two workers may compute the same set; either result is correct
	ix.cache.Add(root, s)
	return s
}

// Matches reports whether accession is root or one of its descendants.
func (ix *TermIndex) Matches(root, accession string) bool {
	if accession == "" {
		return false
	}
	if root == accession {
		return true
	}
	_, ok := ix.family(root)[accession]
	return ok
}
