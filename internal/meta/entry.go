package meta

import (
	"encoding/json"
	"slices"
)

// Entry is the value of one metadata field. It is one of Scalar, CvTerm,
// CvTermWithValue or EntryList.
type Entry interface {
	isEntry()
}

// Unit is the unit of measure attached to a value.
type Unit struct {
	Name      string `json:"name"`
	Ref       string `json:"ref"`
	Accession string `json:"accession"`
}

// Scalar is a plain value, possibly with a unit.
type Scalar struct {
	Value Value `json:"value"`
	Unit  *Unit `json:"unit,omitempty"`
}

// CvTerm is a controlled vocabulary term.
type CvTerm struct {
	Accession string `json:"accession"`
	Name      string `json:"name"`
	Ref       string `json:"ref"`
	Unit      *Unit  `json:"unit,omitempty"`
}

// CvTermWithValue is a controlled vocabulary term carrying a value.
type CvTermWithValue struct {
	CvTerm
	Value Value `json:"value"`
}

// Record is one element of an EntryList. Any field may be missing: term
// fields are left out when they only repeat the field name.
type Record struct {
	Accession string `json:"accession,omitempty"`
	Name      string `json:"name,omitempty"`
	Ref       string `json:"ref,omitempty"`
	Value     *Value `json:"value,omitempty"`
	Unit      *Unit  `json:"unit,omitempty"`
}

// EntryList holds the occurrences of a repeatable field.
type EntryList []Record

func (Scalar) isEntry()          {}
func (CvTerm) isEntry()          {}
func (CvTermWithValue) isEntry() {}
func (EntryList) isEntry()       {}

// Record returns the term as an entry list element.
func (t CvTerm) Record() Record {
	return Record{Accession: t.Accession, Name: t.Name, Ref: t.Ref, Unit: t.Unit}
}

// Equal reports whether r and o hold the same fields and values.
func (r Record) Equal(o Record) bool {
	if r.Accession != o.Accession || r.Name != o.Name || r.Ref != o.Ref {
		return false
	}
	if (r.Value == nil) != (o.Value == nil) || (r.Value != nil && *r.Value != *o.Value) {
		return false
	}
	if (r.Unit == nil) != (o.Unit == nil) || (r.Unit != nil && *r.Unit != *o.Unit) {
		return false
	}
	return true
}

// Contains reports whether an equal Record is already in the list.
func (l EntryList) Contains(r Record) bool {
	return slices.ContainsFunc(l, r.Equal)
}

// MarshalJSON wraps the records in an entry_list object.
func (l EntryList) MarshalJSON() ([]byte, error) {
	records := []Record(l)
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(struct {
		EntryList []Record `json:"entry_list"`
	}{records})
}

// mapAccessions returns a copy of e with every accession passed
// through f, including unit accessions and list records.
func mapAccessions(e Entry, f func(string) string) Entry {
	unit := func(u *Unit) *Unit {
		if u == nil {
			return nil
		}
		c := *u
		c.Accession = f(c.Accession)
		return &c
	}
	switch e := e.(type) {
	case Scalar:
		e.Unit = unit(e.Unit)
		return e
	case CvTerm:
		e.Accession = f(e.Accession)
		e.Unit = unit(e.Unit)
		return e
	case CvTermWithValue:
		e.Accession = f(e.Accession)
		e.Unit = unit(e.Unit)
		return e
	case EntryList:
		l := make(EntryList, len(e))
		for i, r := range e {
			if r.Accession != "" {
				r.Accession = f(r.Accession)
			}
			r.Unit = unit(r.Unit)
			l[i] = r
		}
		return l
	}
	return e
}
