package obo

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOBO = `format-version: 1.2
data-version: 4.1.30
ontology: ms

[Term]
id: MS:0000000
name: Proteomics Standards Initiative Mass Spectrometry Vocabularies

[Term]
id: MS:1000031
name: instrument model
is_a: MS:0000000 ! Proteomics Standards Initiative Mass Spectrometry Vocabularies

[Term]
id: MS:1000483
name: Thermo Fisher Scientific instrument model
is_a: MS:1000031 ! instrument model

[Term]
id: MS:1000494
name: Thermo Scientific instrument model
is_a: MS:1000483 ! Thermo Fisher Scientific instrument model

[Term]
id: MS:1001742
name: LTQ Orbitrap Velos
def: "Finnigan LTQ Orbitrap Velos MS." [PSI:MS]
is_a: MS:1000494 ! Thermo Scientific instrument model
is_a: MS:1000031 ! instrument model

[Typedef]
id: part_of
name: part_of

[Term]
id: MS:1000529
name: instrument serial number
is_a: MS:0000000 ! Proteomics Standards Initiative Mass Spectrometry Vocabularies
`

const testIMS = `format-version: 1.2
ontology: ims

[Term]
id: IMS:1000002
name: Imaging instrument model
is_a: MS:1000031 ! instrument model
`

func mustParse(t *testing.T, s string) *Ontology {
	t.Helper()
	o, err := ParseOBO(strings.NewReader(s))
	require.NoError(t, err)
	return o
}

func TestParseOBO(t *testing.T) {
	o := mustParse(t, testOBO)
	assert.Equal(t, 6, o.Len())
	assert.Equal(t, "4.1.30", o.Header.DataVersion)
	assert.Equal(t, "ms", o.Header.Ontology)

	term, ok := o.Term("MS:1001742")
	require.True(t, ok)
	assert.Equal(t, "LTQ Orbitrap Velos", term.Name)
	assert.Equal(t, []string{"MS:1000494", "MS:1000031"}, term.Parents)

	byName, ok := o.TermByName("instrument model")
	require.True(t, ok)
	assert.Equal(t, "MS:1000031", byName.ID)

	_, ok = o.Term("part_of")
	assert.False(t, ok, "typedef stanzas must not become terms")
}

func TestParseOBONoTerms(t *testing.T) {
	_, err := ParseOBO(strings.NewReader("format-version: 1.2\n"))
	assert.ErrorIs(t, err, ErrNoTerms)
}

func TestParseOBOAdjacentStanzas(t *testing.T) {
	o := mustParse(t, "[Term]\nid: MS:1\nname: a\n[Term]\nid: MS:2\nname: b\nis_a: MS:1 ! a\n[Typedef]\nid: part_of\n[Term]\nid: MS:3\nname: c\n")
	assert.Equal(t, 3, o.Len())

	term, ok := o.Term("MS:2")
	require.True(t, ok)
	assert.Equal(t, "b", term.Name)
	assert.Equal(t, []string{"MS:1"}, term.Parents)

	_, ok = o.Term("part_of")
	assert.False(t, ok)
}

func TestGraphQueries(t *testing.T) {
	o := mustParse(t, testOBO)

	assert.Equal(t, []string{"MS:1000494", "MS:1000031"}, o.Parents("MS:1001742"))
	assert.Equal(t, []string{"MS:1000483", "MS:1001742"}, o.Children("MS:1000031"))

	got := o.Descendants("MS:1000031")
	sort.Strings(got)
	want := []string{"MS:1000483", "MS:1000494", "MS:1001742"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Descendants mismatch (-want +got):\n%s", diff)
	}

	// Nearest first, parents in declaration order
	assert.Equal(t,
		[]string{"MS:1000494", "MS:1000031", "MS:1000483", "MS:0000000"},
		o.Ancestors("MS:1001742"))

	assert.True(t, o.IsDescendant("MS:1001742", "MS:1000031"))
	assert.False(t, o.IsDescendant("MS:1000031", "MS:1000031"))
	assert.Nil(t, o.Descendants("MS:9999999"))
	assert.Nil(t, o.Ancestors("MS:9999999"))
}

func TestDescendantsAreAncestorsInverse(t *testing.T) {
	o := mustParse(t, testOBO)
	for _, root := range []string{"MS:0000000", "MS:1000031", "MS:1000483"} {
		for _, d := range o.Descendants(root) {
			assert.True(t, o.IsDescendant(d, root), "%s should descend from %s", d, root)
		}
	}
}

func TestMerge(t *testing.T) {
	ms := mustParse(t, testOBO)
	ims := mustParse(t, testIMS)

	// On its own the imaging vocabulary does not know its parent
	assert.Empty(t, ims.Parents("IMS:1000002"))

	merged := Merge(ms, ims)
	assert.Equal(t, 7, merged.Len())
	assert.Equal(t, "ms", merged.Header.Ontology)
	assert.Equal(t, []string{"MS:1000031"}, merged.Parents("IMS:1000002"))
	assert.Contains(t, merged.Descendants("MS:1000031"), "IMS:1000002")
}
