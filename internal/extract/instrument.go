package extract

import (
	"slices"
	"strings"

	"github.com/ISA-tools/mzml2isa/internal/meta"
	"github.com/ISA-tools/mzml2isa/internal/mzml"
)

// instrumentParams returns the cvParams describing the instrument.
type instrumentParams func(x *document) []mzml.CVParam

var instrumentStrategies = map[InstrumentStrategy]instrumentParams{
	ByReference: byReferenceParams,
	Nested:      nestedParams,
}

// byReferenceParams resolves the param group referenced by the instrument
// configuration.
func byReferenceParams(x *document) []mzml.CVParam {
	refNode := x.doc.Top().First(x.env.Path("{root}/{instrument}List/{instrument}/referenceableParamGroupRef"))
	if refNode == nil {
		return nil
	}
	ref, _ := refNode.Attr("ref")
	if group := x.paramGroup(ref); group != nil {
		return group.CVParams()
	}
	return nil
}

// nestedParams reads the cvParams of the instrument configuration, up to
// the bare instrument model term if present.
func nestedParams(x *document) []mzml.CVParam {
	var pars []mzml.CVParam
	for _, n := range x.doc.Find(x.env.Path("{root}/{instrument}List/{instrument}/cvParam")) {
		p := n.CVParam()
		if p.Accession == InstrumentModel {
			break
		}
		pars = append(pars, p)
	}
	return pars
}

// resolveInstrument records Instrument, Instrument manufacturer,
// Instrument serial number and the instrument software.
func (x *document) resolveInstrument(d *meta.Dictionary) {
	vocab := x.index.Vocabulary()
	var instrument, serial string
	for _, p := range instrumentStrategies[x.env.Strategy](x) {
		switch {
		case p.Accession != InstrumentModel && x.index.Matches(InstrumentModel, p.Accession):
			name := p.Name
			if t, ok := vocab.Term(p.Accession); ok && t.Name != p.Name {
				x.warn("Instrument", "instrument %s is declared as %q, vocabulary name is %q",
					p.Accession, p.Name, t.Name)
				name = t.Name
			}
			instrument = name
			d.Set("Instrument", meta.CvTerm{Accession: p.Accession, Name: name, Ref: p.Ref()})
			if m, ok := manufacturer(vocab, p.Accession); ok {
				d.Set("Instrument manufacturer", m)
			}
		case p.Accession == SerialNumber:
			serial = p.Value
			d.Set("Instrument serial number", meta.Scalar{Value: meta.String(p.Value)})
		}
	}

	var ref string
	if x.env.RefAttr != "" {
		if n := x.doc.Top().First(x.env.Path("{root}/{instrument}List/{instrument}/{software}")); n != nil {
			ref, _ = n.Attr(x.env.RefAttr)
		}
	}
	if ref == "" {
		who := "?"
		switch {
		case instrument != "":
			who = instrument
		case serial != "":
			who = "<" + serial + ">"
		}
		x.warn("Instrument software", "Instrument %s does not have a software tag", who)
		return
	}
	if !x.resolveSoftware(ref, "Instrument", d) {
		x.warn("Instrument software", "software %q is not defined", ref)
	}
}

// manufacturer walks the ancestors of an instrument model, then the model
// itself, and returns the first term directly below the instrument model
// root.
func manufacturer(vocab Vocabulary, accession string) (meta.CvTerm, bool) {
	for _, id := range append(vocab.Ancestors(accession), accession) {
		if !slices.Contains(vocab.Parents(id), InstrumentModel) {
			continue
		}
		t, ok := vocab.Term(id)
		if !ok {
			continue
		}
		ns, _, _ := strings.Cut(t.ID, ":")
		return meta.CvTerm{Accession: t.ID, Name: t.Name, Ref: ns}, true
	}
	return meta.CvTerm{}, false
}
