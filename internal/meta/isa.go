package meta

import "strings"

const (
	oboPurl  = "http://purl.obolibrary.org/obo/"
	imsOboID = "http://www.maldi-msi.org/download/imzml/imagingMS.obo#"
)

// isaBareFields are written to ISA-Tab under their own name. All other
// fields become "Parameter Value[...]" columns.
var isaBareFields = map[string]bool{
	"Data Transformation":                  true,
	"Data Transformation software version": true,
	"Data Transformation software":         true,
	"term_source":                          true,
	"Raw Spectral Data File":               true,
	"MS Assay Name":                        true,
	"Derived Spectral Data File":           true,
	"Sample Name":                          true,
}

// AccessionURL rewrites a NAMESPACE:NNNNNNN accession into its URL. MS and
// UO accessions map to OBO PURLs, IMS accessions to the imzML vocabulary.
// Other namespaces and values that already are URLs are returned as is.
func AccessionURL(accession string) string {
	if strings.Contains(accession, "://") {
		return accession
	}
	ns, id, ok := strings.Cut(accession, ":")
	if !ok {
		return accession
	}
	switch ns {
	case "MS", "UO":
		return oboPurl + ns + "_" + id
	case "IMS":
		return imsOboID + accession
	}
	return accession
}

// Urlize returns a copy of d with every accession, including those of
// units and entry list records, rewritten by AccessionURL. Applying it
// again has no effect.
func Urlize(d *Dictionary) *Dictionary {
	out := NewDictionary()
	for _, k := range d.keys {
		out.Set(k, mapAccessions(d.entries[k], AccessionURL))
	}
	return out
}

// ISAName returns the ISA-Tab column name for a field.
func ISAName(key string) string {
	if isaBareFields[key] {
		return key
	}
	return "Parameter Value[" + key + "]"
}

// ISAView returns a copy of d keyed by ISA-Tab column names.
func ISAView(d *Dictionary) *Dictionary {
	out := NewDictionary()
	for _, k := range d.keys {
		out.Set(ISAName(k), d.entries[k])
	}
	return out
}
