package extract

import (
	"strings"

	"github.com/ISA-tools/mzml2isa/internal/meta"
	"github.com/ISA-tools/mzml2isa/internal/mzml"
)

// softwareFunc resolves the software of a processing step for a field.
type softwareFunc func(n *mzml.Node, field string)

// ExtractCV applies descs to every cvParam node, in document order, and
// records the matches into d. Nodes whose accession matches no descriptor
// are ignored. soft is called for matches of descriptors with Software
// set; it may be nil.
func ExtractCV(ix *TermIndex, nodes []*mzml.Node, descs []Descriptor, d *meta.Dictionary, soft softwareFunc) {
	for _, n := range nodes {
		p := n.CVParam()
		for _, desc := range descs {
			if !ix.Matches(desc.Accession, p.Accession) {
				continue
			}
			if desc.Repeatable {
				d.Append(desc.Name, record(p, desc), desc.Merge)
			} else {
				// More than one match overwrites: the last one wins
				d.Set(desc.Name, entry(p, desc))
			}
			if desc.Software && soft != nil {
				soft(n, desc.Name)
			}
		}
	}
}

func unitOf(p mzml.CVParam) *meta.Unit {
	if !p.HasUnit() {
		return nil
	}
	return &meta.Unit{Name: p.UnitName, Ref: p.UnitRef(), Accession: p.UnitAccession}
}

// record builds the entry list element for a repeatable descriptor. Term
// fields are left out when the term name only repeats the field name.
func record(p mzml.CVParam, desc Descriptor) meta.Record {
	r := meta.Record{Unit: unitOf(p)}
	if desc.CvTerm {
		r.Accession, r.Name, r.Ref = p.Accession, p.Name, p.Ref()
	}
	if desc.Value {
		v := meta.ParseValue(p.Value)
		r.Value = &v
	}
	if !desc.CvTerm && !desc.Value {
		v := meta.String(p.Name)
		r.Value = &v
	}
	if strings.EqualFold(p.Name, desc.Name) {
		r.Accession, r.Name, r.Ref = "", "", ""
	}
	return r
}

// entry builds the entry of a singleton descriptor.
func entry(p mzml.CVParam, desc Descriptor) meta.Entry {
	term := meta.CvTerm{Accession: p.Accession, Name: p.Name, Ref: p.Ref(), Unit: unitOf(p)}
	switch {
	case desc.CvTerm && desc.Value:
		return meta.CvTermWithValue{CvTerm: term, Value: meta.ParseValue(p.Value)}
	case desc.CvTerm:
		return term
	case desc.Value:
		return meta.Scalar{Value: meta.ParseValue(p.Value), Unit: unitOf(p)}
	}
	return meta.Scalar{Value: meta.String(p.Name)}
}

// softwareRef returns the software id of the processing step enclosing a
// cvParam: the softwareRef attribute of its parent, else of its
// grandparent.
func softwareRef(n *mzml.Node) (string, bool) {
	for p, i := n.Parent, 0; p != nil && i < 2; p, i = p.Parent, i+1 {
		if ref, ok := p.Attr("softwareRef"); ok {
			return ref, true
		}
	}
	return "", false
}

// resolveSoftware looks up the software definition with the given id and
// records "<prefix> software" and "<prefix> software version". A trailing
// " Name" is removed from prefix first. It reports whether the software
// was found.
func (x *document) resolveSoftware(ref, prefix string, d *meta.Dictionary) bool {
	prefix = strings.TrimSuffix(prefix, " Name")
	for _, sw := range x.doc.Find(x.env.Path("{root}/softwareList/software")) {
		if id, _ := sw.Attr("id"); id != ref {
			continue
		}
		params := sw.Find("cvParam")
		version, _ := sw.Attr("version")
		if len(params) == 0 {
			// Older documents describe the software with a softwareParam
			params = sw.Find("softwareParam")
			if len(params) > 0 && version == "" {
				version, _ = params[0].Attr("version")
			}
		}
		for _, n := range params {
			p := n.CVParam()
			d.Set(prefix+" software", meta.CvTerm{Accession: p.Accession, Name: p.Name, Ref: p.Ref()})
		}
		if version != "" {
			d.Set(prefix+" software version", meta.Scalar{Value: meta.String(version)})
		}
		return true
	}
	return false
}

// processingSoftware is the softwareFunc of the data processing location.
func (x *document) processingSoftware(d *meta.Dictionary) softwareFunc {
	return func(n *mzml.Node, field string) {
		ref, ok := softwareRef(n)
		if !ok {
			x.warn(field, "no software reference for %s", field)
			return
		}
		if !x.resolveSoftware(ref, field, d) {
			x.warn(field, "software %q is not defined", ref)
		}
	}
}
