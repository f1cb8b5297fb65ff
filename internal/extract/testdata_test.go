package extract

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ISA-tools/mzml2isa/internal/meta"
	"github.com/ISA-tools/mzml2isa/internal/mzml"
	"github.com/ISA-tools/mzml2isa/internal/obo"
)

const testVocab = `format-version: 1.2
ontology: ms

[Term]
id: MS:0000000
name: Proteomics Standards Initiative Mass Spectrometry Vocabularies

[Term]
id: MS:1000031
name: instrument model
is_a: MS:0000000

[Term]
id: MS:1000483
name: Thermo Fisher Scientific instrument model
is_a: MS:1000031

[Term]
id: MS:1000494
name: Thermo Scientific instrument model
is_a: MS:1000483

[Term]
id: MS:1001742
name: LTQ Orbitrap Velos
is_a: MS:1000494
is_a: MS:1000031

[Term]
id: MS:1000529
name: instrument serial number
is_a: MS:0000000

[Term]
id: MS:1000524
name: data file content
is_a: MS:0000000

[Term]
id: MS:1000579
name: MS1 spectrum
is_a: MS:1000524

[Term]
id: MS:1000580
name: MSn spectrum
is_a: MS:1000524

[Term]
id: MS:1000525
name: spectrum representation

[Term]
id: MS:1000127
name: centroid spectrum
is_a: MS:1000525

[Term]
id: MS:1000465
name: scan polarity

[Term]
id: MS:1000130
name: positive scan
is_a: MS:1000465

[Term]
id: MS:1000129
name: negative scan
is_a: MS:1000465

[Term]
id: MS:1000008
name: ionization type

[Term]
id: MS:1000073
name: electrospray ionization
is_a: MS:1000008

[Term]
id: MS:1000443
name: mass analyzer type

[Term]
id: MS:1000484
name: orbitrap
is_a: MS:1000443

[Term]
id: MS:1000026
name: detector type

[Term]
id: MS:1000624
name: inductive detector
is_a: MS:1000026

[Term]
id: MS:1000452
name: data transformation

[Term]
id: MS:1000035
name: peak picking
is_a: MS:1000452

[Term]
id: MS:1000630
name: data processing parameter

[Term]
id: MS:1000787
name: inclusive low intensity threshold
is_a: MS:1000630

[Term]
id: MS:1000531
name: software

[Term]
id: MS:1000532
name: Xcalibur
is_a: MS:1000531

[Term]
id: MS:1000615
name: ProteoWizard software
is_a: MS:1000531

[Term]
id: MS:1000767
name: native spectrum identifier format

[Term]
id: MS:1000768
name: Thermo nativeID format
is_a: MS:1000767

[Term]
id: MS:1000561
name: data file checksum type

[Term]
id: MS:1000569
name: SHA-1
is_a: MS:1000561

[Term]
id: MS:1000560
name: mass spectrometer file format

[Term]
id: MS:1000563
name: Thermo RAW format
is_a: MS:1000560

[Term]
id: MS:1000586
name: contact name

[Term]
id: MS:1000511
name: ms level
`

const testMzML = `<?xml version="1.0" encoding="utf-8"?>
<indexedmzML xmlns="http://psi.hupo.org/ms/mzml">
  <mzML version="1.1.0" id="sample_01">
    <cvList count="2">
      <cv id="MS" fullName="Proteomics Standards Initiative Mass Spectrometry Ontology" version="4.1.30"/>
      <cv id="UO" fullName="Unit Ontology"/>
    </cvList>
    <fileDescription>
      <fileContent>
        <cvParam cvRef="MS" accession="MS:1000579" name="MS1 spectrum" value=""/>
        <cvParam cvRef="MS" accession="MS:1000127" name="centroid spectrum" value=""/>
      </fileContent>
      <sourceFileList count="1">
        <sourceFile id="RAW1" name="sample_01.raw" location="file:///data">
          <cvParam cvRef="MS" accession="MS:1000768" name="Thermo nativeID format" value=""/>
          <cvParam cvRef="MS" accession="MS:1000569" name="SHA-1" value="0440ae4e4fb3ee81"/>
          <cvParam cvRef="MS" accession="MS:1000563" name="Thermo RAW format" value=""/>
        </sourceFile>
      </sourceFileList>
      <contact>
        <cvParam cvRef="MS" accession="MS:1000586" name="contact name" value="Jane Doe"/>
      </contact>
    </fileDescription>
    <referenceableParamGroupList count="1">
      <referenceableParamGroup id="CommonInstrumentParams">
        <cvParam cvRef="MS" accession="MS:1001742" name="LTQ Orbitrap Velos" value=""/>
        <cvParam cvRef="MS" accession="MS:1000529" name="instrument serial number" value="01234"/>
      </referenceableParamGroup>
    </referenceableParamGroupList>
    <softwareList count="2">
      <software id="Xcalibur" version="2.1">
        <cvParam cvRef="MS" accession="MS:1000532" name="Xcalibur" value=""/>
      </software>
      <software id="pwiz" version="3.0">
        <cvParam cvRef="MS" accession="MS:1000615" name="ProteoWizard software" value=""/>
      </software>
    </softwareList>
    <instrumentConfigurationList count="1">
      <instrumentConfiguration id="IC1">
        <referenceableParamGroupRef ref="CommonInstrumentParams"/>
        <componentList count="3">
          <source order="1">
            <cvParam cvRef="MS" accession="MS:1000073" name="electrospray ionization" value=""/>
          </source>
          <analyzer order="2">
            <cvParam cvRef="MS" accession="MS:1000484" name="orbitrap" value=""/>
          </analyzer>
          <detector order="3">
            <cvParam cvRef="MS" accession="MS:1000624" name="inductive detector" value=""/>
          </detector>
        </componentList>
        <softwareRef ref="Xcalibur"/>
      </instrumentConfiguration>
    </instrumentConfigurationList>
    <dataProcessingList count="1">
      <dataProcessing id="pwiz_Reader_conversion">
        <processingMethod order="0" softwareRef="pwiz">
          <cvParam cvRef="MS" accession="MS:1000035" name="peak picking" value=""/>
        </processingMethod>
      </dataProcessing>
    </dataProcessingList>
    <run id="sample_01" defaultInstrumentConfigurationRef="IC1">
      <spectrumList count="3" defaultDataProcessingRef="pwiz_Reader_conversion">
        <spectrum index="0" id="scan=1" defaultArrayLength="0">
          <cvParam cvRef="MS" accession="MS:1000579" name="MS1 spectrum" value=""/>
          <cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="1"/>
          <cvParam cvRef="MS" accession="MS:1000130" name="positive scan" value=""/>
          <scanList count="1">
            <scan>
              <cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="1.25" unitCvRef="UO" unitAccession="UO:0000031" unitName="minute"/>
              <scanWindowList count="1">
                <scanWindow>
                  <cvParam cvRef="MS" accession="MS:1000501" name="scan window lower limit" value="150.7" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
                  <cvParam cvRef="MS" accession="MS:1000500" name="scan window upper limit" value="600" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
                </scanWindow>
              </scanWindowList>
            </scan>
          </scanList>
        </spectrum>
        <spectrum index="1" id="scan=2" defaultArrayLength="0">
          <cvParam cvRef="MS" accession="MS:1000579" name="MS1 spectrum" value=""/>
          <cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="1"/>
          <cvParam cvRef="MS" accession="MS:1000130" name="positive scan" value=""/>
          <scanList count="1">
            <scan>
              <cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="0.5" unitCvRef="UO" unitAccession="UO:0000031" unitName="minute"/>
              <scanWindowList count="1">
                <scanWindow>
                  <cvParam cvRef="MS" accession="MS:1000501" name="scan window lower limit" value="100" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
                  <cvParam cvRef="MS" accession="MS:1000500" name="scan window upper limit" value="500" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
                </scanWindow>
              </scanWindowList>
            </scan>
          </scanList>
        </spectrum>
        <spectrum index="2" id="scan=3" defaultArrayLength="0">
          <cvParam cvRef="MS" accession="MS:1000579" name="MS1 spectrum" value=""/>
          <cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="1"/>
          <cvParam cvRef="MS" accession="MS:1000130" name="positive scan" value=""/>
          <scanList count="1">
            <scan>
              <cvParam cvRef="MS" accession="MS:1000016" name="scan start time" value="2" unitCvRef="UO" unitAccession="UO:0000031" unitName="minute"/>
              <scanWindowList count="1">
                <scanWindow>
                  <cvParam cvRef="MS" accession="MS:1000501" name="scan window lower limit" value="200" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
                  <cvParam cvRef="MS" accession="MS:1000500" name="scan window upper limit" value="1000.9" unitCvRef="MS" unitAccession="MS:1000040" unitName="m/z"/>
                </scanWindow>
              </scanWindowList>
            </scan>
          </scanList>
        </spectrum>
      </spectrumList>
    </run>
  </mzML>
  <indexList count="0"/>
</indexedmzML>`

const testImzML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<mzML xmlns="http://psi.hupo.org/ms/mzml" version="1.1">
  <cvList count="2">
    <cv id="MS" fullName="Proteomics Standards Initiative Mass Spectrometry Ontology"/>
    <cv id="IMS" fullName="Imaging MS Ontology"/>
  </cvList>
  <fileDescription>
    <fileContent>
      <cvParam cvRef="MS" accession="MS:1000127" name="centroid spectrum" value=""/>
      <cvParam cvRef="IMS" accession="IMS:1000008" name="universally unique identifier" value="{554A27FA-79D2-4766-9A2C-862E6D78B1F3}"/>
    </fileContent>
  </fileDescription>
  <referenceableParamGroupList count="1">
    <referenceableParamGroup id="spectrum1">
      <cvParam cvRef="MS" accession="MS:1000511" name="ms level" value="1"/>
      <cvParam cvRef="MS" accession="MS:1000130" name="positive scan" value=""/>
    </referenceableParamGroup>
  </referenceableParamGroupList>
  <scanSettingsList count="1">
    <scanSettings id="scansettings1">
      <cvParam cvRef="IMS" accession="IMS:1000042" name="max count of pixel x" value="3"/>
      <cvParam cvRef="IMS" accession="IMS:1000043" name="max count of pixel y" value="3"/>
    </scanSettings>
  </scanSettingsList>
  <instrumentConfigurationList count="1">
    <instrumentConfiguration id="IC1">
      <cvParam cvRef="MS" accession="MS:1001742" name="LTQ Orbitrap Velos" value=""/>
    </instrumentConfiguration>
  </instrumentConfigurationList>
  <run id="Experiment01" defaultInstrumentConfigurationRef="IC1">
    <spectrumList count="2" defaultDataProcessingRef="export">
      <spectrum id="Scan=1" defaultArrayLength="0" index="0">
        <referenceableParamGroupRef ref="spectrum1"/>
      </spectrum>
      <spectrum id="Scan=2" defaultArrayLength="0" index="1">
        <referenceableParamGroupRef ref="spectrum1"/>
      </spectrum>
    </spectrumList>
  </run>
</mzML>`

func testIndex(t *testing.T) *TermIndex {
	t.Helper()
	o, err := obo.ParseOBO(strings.NewReader(testVocab))
	require.NoError(t, err)
	ix, err := NewTermIndex(o, 0)
	require.NoError(t, err)
	return ix
}

func readTestDoc(t *testing.T, s string) *mzml.Document {
	t.Helper()
	doc, err := mzml.Read(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func stringInput(name, s string, siblings ...string) Input {
	return Input{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(s)), nil
		},
		Siblings: siblings,
	}
}

// testScans returns every spectrum of a document as a detached subtree.
func testScans(t *testing.T, s string) []*mzml.Node {
	t.Helper()
	var scans []*mzml.Node
	err := mzml.StreamElements(strings.NewReader(s), "spectrum", func(n *mzml.Node) error {
		scans = append(scans, n)
		return nil
	})
	require.NoError(t, err)
	return scans
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func entryJSON(t *testing.T, d *meta.Dictionary, key string) string {
	t.Helper()
	e, ok := d.Get(key)
	if !ok {
		t.Fatalf("%s: not set", key)
	}
	return jsonOf(t, e)
}
