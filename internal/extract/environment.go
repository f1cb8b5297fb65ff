package extract

import (
	"strings"

	"github.com/ISA-tools/mzml2isa/internal/mzml"
)

// InstrumentStrategy tells where the instrument model and serial number
// are declared.
type InstrumentStrategy int

const (
	// Nested documents put the instrument cvParams directly under the
	// instrument configuration.
	Nested InstrumentStrategy = iota
	// ByReference documents put them in a referenceable param group that
	// the instrument configuration refers to.
	ByReference
)

func (s InstrumentStrategy) String() string {
	if s == ByReference {
		return "by-reference"
	}
	return "nested"
}

// Environment holds the element and attribute names one document uses for
// each structural role. An empty field means no alternative was found;
// paths built from it match nothing.
type Environment struct {
	Root         string // path from the document top to the mzML element
	Scan         string // spectrum or chromatogram
	ScanList     string // scanList or spectrumDescription
	Window       string // scanWindow or selectionWindow
	FilenameAttr string // name, filename or sourceFileName
	CvLabelAttr  string // id or cvLabel
	Instrument   string // instrumentConfiguration or instrument
	SoftwareRef  string // softwareRef or instrumentSoftwareRef
	RefAttr      string // attribute of SoftwareRef holding the software id
	Strategy     InstrumentStrategy
}

// Path expands the role placeholders of a path template: {root}, {scan},
// {scanList}, {window}, {instrument} and {software}.
func (env Environment) Path(template string) string {
	return strings.NewReplacer(
		"{root}", env.Root,
		"{scan}", env.Scan,
		"{scanList}", env.ScanList,
		"{window}", env.Window,
		"{instrument}", env.Instrument,
		"{software}", env.SoftwareRef,
	).Replace(template)
}

func firstPath(doc *mzml.Document, build func(alt string) string, alts ...string) string {
	for _, alt := range alts {
		if doc.Exists(build(alt)) {
			return alt
		}
	}
	return ""
}

// ResolveScanRoles fills the scan list and window roles that are still
// unresolved from one scan element. It reports whether a role was
// resolved.
func (env *Environment) ResolveScanRoles(scan *mzml.Node) bool {
	changed := false
	if env.ScanList == "" {
		for _, alt := range []string{"scanList", "spectrumDescription"} {
			if scan.First(alt) != nil {
				env.ScanList = alt
				changed = true
				break
			}
		}
	}
	if env.Window == "" && env.ScanList != "" {
		for _, alt := range []string{"scanWindow", "selectionWindow"} {
			if scan.First(env.ScanList+"/scan/"+alt+"List/"+alt) != nil {
				env.Window = alt
				changed = true
				break
			}
		}
	}
	return changed
}

func firstAttr(nodes []*mzml.Node, alts ...string) string {
	for _, alt := range alts {
		for _, n := range nodes {
			if _, ok := n.Attr(alt); ok {
				return alt
			}
		}
	}
	return ""
}

// ResolveEnvironment detects the naming conventions doc uses. Roles are
// resolved in order since later paths are built from earlier roles.
func ResolveEnvironment(doc *mzml.Document) Environment {
	var env Environment

	env.Root = firstPath(doc, func(alt string) string { return alt },
		"indexedmzML/mzML", "mzML")

	env.Scan = firstPath(doc, func(alt string) string {
		return env.Root + "/run/" + alt + "List/" + alt
	}, "spectrum", "chromatogram")

	// Only the first scan is part of the tree. Roles it lacks are
	// resolved while streaming, see ResolveScanRoles.
	if first := doc.Top().First(env.Path("{root}/run/{scan}List/{scan}")); first != nil {
		env.ResolveScanRoles(first)
	}

	env.FilenameAttr = firstAttr(
		doc.Find(env.Path("{root}/fileDescription/sourceFileList/sourceFile")),
		"name", "filename", "sourceFileName")

	env.CvLabelAttr = firstAttr(doc.Find(env.Path("{root}/cvList/cv")), "id", "cvLabel")

	switch {
	case doc.Exists(env.Path("{root}/instrumentConfigurationList")):
		env.Instrument = "instrumentConfiguration"
	case doc.Exists(env.Path("{root}/instrumentList")):
		env.Instrument = "instrument"
	}

	for _, alt := range []string{"softwareRef", "instrumentSoftwareRef"} {
		refs := doc.Find(env.Path("{root}/{instrument}List/{instrument}/") + alt)
		if firstAttr(refs, "ref") != "" {
			env.SoftwareRef = alt
			env.RefAttr = "ref"
			break
		}
	}

	env.Strategy = Nested
	for _, p := range doc.Find(env.Path("{root}/referenceableParamGroupList/referenceableParamGroup/cvParam")) {
		if v, _ := p.Attr("accession"); v == SerialNumber {
			env.Strategy = ByReference
			break
		}
	}
	return env
}
