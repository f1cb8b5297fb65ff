package extract

// CV terms with a fixed role
const (
	InstrumentModel  = "MS:1000031"
	SerialNumber     = "MS:1000529"
	PositiveScan     = "MS:1000130"
	NegativeScan     = "MS:1000129"
	ScanStartTime    = "MS:1000016"
	WindowLowerLimit = "MS:1000501"
	WindowUpperLimit = "MS:1000500"
	DataFileContent  = "MS:1000524"
	MSLevel          = "MS:1000511"
	ScanPolarity     = "MS:1000465"
)

// Descriptor is a rule matching one family of CV terms, rooted at
// Accession, and telling how a match is recorded under Name.
type Descriptor struct {
	Accession string
	Name      string
	// Repeatable descriptors collect all matches in an entry list.
	Repeatable bool
	// CvTerm records the matched term itself, not only its value.
	CvTerm bool
	// Value records the value attribute.
	Value bool
	// Software resolves the software of the enclosing processing method.
	Software bool
	// Merge drops entry list records equal to one already present.
	Merge bool
}

// Location is a set of descriptors applied to the cvParams found at Path,
// a template expanded by Environment.Path.
type Location struct {
	Name        string
	Path        string
	Descriptors []Descriptor
}

func term(acc, name string) Descriptor {
	return Descriptor{Accession: acc, Name: name, CvTerm: true}
}

func termValue(acc, name string) Descriptor {
	return Descriptor{Accession: acc, Name: name, CvTerm: true, Value: true}
}

func value(acc, name string) Descriptor {
	return Descriptor{Accession: acc, Name: name, Value: true}
}

func list(d Descriptor) Descriptor {
	d.Repeatable = true
	return d
}

func merged(d Descriptor) Descriptor {
	d.Repeatable = true
	d.Merge = true
	return d
}

func withSoftware(d Descriptor) Descriptor {
	d.Software = true
	return d
}

const componentPath = "{root}/{instrument}List/{instrument}/componentList/"

var fileContentLocation = Location{
	Name: "file_content",
	Path: "{root}/fileDescription/fileContent/cvParam",
	Descriptors: []Descriptor{
		merged(term(DataFileContent, "Data file content")),
		merged(term("MS:1000525", "Spectrum representation")),
	},
}

// MzMLLocations are the document-level locations of mzML files.
var MzMLLocations = []Location{
	fileContentLocation,
	{
		Name: "source_file",
		Path: "{root}/fileDescription/sourceFileList/sourceFile/cvParam",
		Descriptors: []Descriptor{
			term("MS:1000767", "Native spectrum identifier format"),
			termValue("MS:1000561", "Data file checksum type"),
			term("MS:1000560", "Raw data file format"),
		},
	},
	{
		Name: "contact",
		Path: "{root}/fileDescription/contact/cvParam",
		Descriptors: []Descriptor{
			value("MS:1000586", "Contact name"),
			value("MS:1000587", "Contact adress"),
			value("MS:1000588", "Contact url"),
			value("MS:1000589", "Contact email"),
			value("MS:1000590", "Contact affiliation"),
		},
	},
	{
		Name: "ionization",
		Path: componentPath + "source/cvParam",
		Descriptors: []Descriptor{
			list(termValue("MS:1000482", "source_attribute")),
			term("MS:1000008", "Ion source"),
			term("MS:1000007", "Inlet type"),
		},
	},
	{
		Name: "analyzer",
		Path: componentPath + "analyzer/cvParam",
		Descriptors: []Descriptor{
			list(termValue("MS:1000480", "analyzer_attribute")),
			term("MS:1000443", "Mass analyzer"),
		},
	},
	{
		Name: "detector",
		Path: componentPath + "detector/cvParam",
		Descriptors: []Descriptor{
			list(termValue("MS:1000481", "detector_attribute")),
			term("MS:1000026", "Detector"),
			term("MS:1000027", "Detector mode"),
		},
	},
	{
		Name: "data_processing",
		Path: "{root}/dataProcessingList/dataProcessing/processingMethod/cvParam",
		Descriptors: []Descriptor{
			withSoftware(list(termValue("MS:1000630", "data_processing_parameter"))),
			withSoftware(merged(term("MS:1000452", "Data Transformation Name"))),
		},
	},
}

// ImzMLLocations are the document-level locations of imzML files. The
// mzML file content set is replaced by the imaging one.
var ImzMLLocations = append(append([]Location{}, MzMLLocations[1:]...),
	Location{
		Name: "file_content",
		Path: "{root}/fileDescription/fileContent/cvParam",
		Descriptors: []Descriptor{
			list(term("MS:1000525", "Spectrum representation")),
			value("IMS:1000008", "Universally unique identifier"),
			termValue("IMS:1000009", "Binary file checksum type"),
			term("IMS:1000003", "Ibd binary type"),
		},
	},
	Location{
		Name: "scan_settings",
		Path: "{root}/scanSettingsList/scanSettings/cvParam",
		Descriptors: []Descriptor{
			term("IMS:1000040", "Linescan sequence"),
			term("IMS:1000041", "Scan pattern"),
			value("IMS:1000042", "Max count of pixel x"),
			value("IMS:1000043", "Max count of pixel y"),
			value("IMS:1000044", "Max dimension x"),
			value("IMS:1000045", "Max dimension y"),
			value("IMS:1000046", "Pixel size x"),
			value("IMS:1000047", "Pixel size y"),
			term("IMS:1000048", "Scan type"),
			term("IMS:1000049", "Line scan direction"),
		},
	},
	Location{
		Name: "imaging_source",
		Path: componentPath + "source/cvParam",
		Descriptors: []Descriptor{
			value("IMS:1001213", "Solvent flowrate"),
			value("IMS:1001211", "Solvent"),
			value("IMS:1000202", "Target material"),
			value("IMS:1001212", "Spray voltage"),
		},
	},
)

// imagingScanMeta is applied to the param groups referenced by imzML
// spectra.
var imagingScanMeta = []Descriptor{
	value(MSLevel, "MS Level"),
	term(ScanPolarity, "Scan polarity"),
}

// Per-scan descriptor sets. Paths are relative to the scan element.
var (
	spectrumDescriptors = []Descriptor{
		merged(term(DataFileContent, "Data file content")),
		list(termValue("MS:1000796", "Spectrum title")),
		list(term(ScanPolarity, "Polarity")),
		list(termValue(MSLevel, "MS Level")),
		list(term("MS:1000525", "Spectrum representation")),
		list(termValue("MS:1000504", "Base Peak m/z")),
		list(termValue("MS:1000505", "Base Peak intensity")),
		list(termValue("MS:1000285", "Total ion current")),
		list(termValue("MS:1000927", "Ion injection time")),
		list(termValue("MS:1000512", "Filter string")),
		list(termValue("MS:1000528", "Lowest observed m/z")),
		list(termValue("MS:1000527", "Highest observed m/z")),
	}
	combinationDescriptors = []Descriptor{
		merged(term("MS:1000570", "Spectrum combination")),
	}
	configurationDescriptors = []Descriptor{
		list(termValue(ScanStartTime, "Scan start time")),
		list(termValue("MS:1000512", "Filter string")),
		list(termValue("MS:1000616", "Preset scan configuration")),
		list(termValue("MS:1000927", "Ion injection time")),
		list(termValue("MS:1000018", "Scan direction")),
		list(termValue("MS:1000019", "Scan law")),
	}
	isolationWindowDescriptors = []Descriptor{
		list(termValue("MS:1000827", "Isolation window target m/z")),
		list(termValue("MS:1000828", "Isolation window lower offset")),
		list(termValue("MS:1000829", "Isolation window higher offset")),
	}
	selectedIonDescriptors = []Descriptor{
		list(termValue("MS:1000744", "Selected ion m/z")),
		list(termValue("MS:1000041", "Charge state")),
		list(termValue("MS:1000042", "Peak intensity")),
	}
	activationDescriptors = []Descriptor{
		merged(term("MS:1000044", "Dissociation method")),
		merged(termValue("MS:1000045", "Collision Energy")),
	}
	binaryDescriptors = []Descriptor{
		merged(term("MS:1000518", "Binary data type")),
		merged(term("MS:1000572", "Binary data compression type")),
		merged(term("MS:1000513", "Binary data array")),
	}
)

// ScanLocations are the per-scan locations used when scan metadata
// extraction is enabled.
var ScanLocations = []Location{
	{Name: "sp", Path: "cvParam", Descriptors: spectrumDescriptors},
	{Name: "combination", Path: "{scanList}/cvParam", Descriptors: combinationDescriptors},
	{Name: "configuration", Path: "{scanList}/scan/cvParam", Descriptors: configurationDescriptors},
	{Name: "binary", Path: "binaryDataArrayList/binaryDataArray/cvParam", Descriptors: binaryDescriptors},
	{Name: "activation", Path: "precursorList/precursor/activation/cvParam", Descriptors: activationDescriptors},
	{Name: "isolation_window", Path: "precursorList/precursor/isolationWindow/cvParam", Descriptors: isolationWindowDescriptors},
	{Name: "selected_ion", Path: "precursorList/precursor/selectedIonList/selectedIon/cvParam", Descriptors: selectedIonDescriptors},
}

// Param group references of a scan and the descriptor set applied to the
// referenced groups.
var scanGroupRefs = []Location{
	{Name: "sp", Path: "referenceableParamGroupRef", Descriptors: spectrumDescriptors},
	{Name: "combination", Path: "{scanList}/scan/referenceableParamGroupRef", Descriptors: combinationDescriptors},
}
