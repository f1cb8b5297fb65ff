package extract

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ISA-tools/mzml2isa/internal/meta"
	"github.com/ISA-tools/mzml2isa/internal/mzml"
)

// Collector accumulates metadata over the scan stream. ProcessScan is
// called once per scan in document order and only updates the collector
// state; PopulateMetadata is called once after the last scan.
type Collector interface {
	ProcessScan(scan *mzml.Node)
	PopulateMetadata(d *meta.Dictionary)
}

// scanLayout is implemented by collectors whose queries depend on the scan
// roles of the environment. They are updated when a role is only resolved
// at a later scan.
type scanLayout interface {
	setEnvironment(env Environment)
}

// WarnFunc receives non-fatal findings of a collector.
type WarnFunc func(field, format string, args ...any)

// Polarity classifies the scan polarity of the whole run.
type Polarity struct {
	pos, neg bool
}

// ProcessScan implements Collector.
func (c *Polarity) ProcessScan(scan *mzml.Node) {
	for _, p := range scan.CVParams() {
		switch p.Accession {
		case PositiveScan:
			c.pos = true
		case NegativeScan:
			c.neg = true
		}
	}
}

// PopulateMetadata implements Collector.
func (c *Polarity) PopulateMetadata(d *meta.Dictionary) {
	d.Set("Scan polarity", polarityTerm(c.pos, c.neg))
}

func polarityTerm(pos, neg bool) meta.CvTerm {
	switch {
	case pos && neg:
		return meta.CvTerm{Name: "alternating scan"}
	case pos:
		return meta.CvTerm{Accession: PositiveScan, Name: "positive scan", Ref: "MS"}
	case neg:
		return meta.CvTerm{Accession: NegativeScan, Name: "negative scan", Ref: "MS"}
	}
	return meta.CvTerm{Name: "n/a"}
}

// span is a running min/max reduction.
type span struct {
	min, max float64
	seenMin  bool
	seenMax  bool
}

func (s *span) lower(v float64) {
	if !s.seenMin || v < s.min {
		s.min = v
	}
	s.seenMin = true
}

func (s *span) upper(v float64) {
	if !s.seenMax || v > s.max {
		s.max = v
	}
	s.seenMax = true
}

func (s *span) both(v float64) {
	s.lower(v)
	s.upper(v)
}

func (s *span) ok() bool {
	return s.seenMin && s.seenMax
}

func parseFloat(p mzml.CVParam) (float64, bool) {
	f, err := strconv.ParseFloat(p.Value, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// TimeRange reduces the scan start times to "min-max".
type TimeRange struct {
	path string
	span span
	unit *meta.Unit
}

// NewTimeRange returns a TimeRange reading scans laid out as env says.
func NewTimeRange(env Environment) *TimeRange {
	c := &TimeRange{}
	c.setEnvironment(env)
	return c
}

func (c *TimeRange) setEnvironment(env Environment) {
	c.path = env.Path("{scanList}/scan/cvParam")
}

// ProcessScan implements Collector.
func (c *TimeRange) ProcessScan(scan *mzml.Node) {
	for _, n := range scan.Find(c.path) {
		p := n.CVParam()
		if p.Accession != ScanStartTime {
			continue
		}
		if t, ok := parseFloat(p); ok {
			c.span.both(t)
			if c.unit == nil {
				c.unit = unitOf(p)
			}
		}
	}
}

// PopulateMetadata implements Collector. Nothing is recorded when no scan
// had a start time.
func (c *TimeRange) PopulateMetadata(d *meta.Dictionary) {
	if !c.span.ok() {
		return
	}
	d.Set("Time range", meta.Scalar{
		Value: meta.String(fmt.Sprintf("%.3f-%.3f", c.span.min, c.span.max)),
		Unit:  c.unit,
	})
}

// MzRange reduces the scan window limits to "min-max", truncated to
// integers.
type MzRange struct {
	path    string
	imaging bool
	warn    WarnFunc
	span    span
	unit    *meta.Unit
}

// NewMzRange returns an MzRange reading scan windows laid out as env
// says. A missing range is reported through warn unless imaging is set.
func NewMzRange(env Environment, imaging bool, warn WarnFunc) *MzRange {
	c := &MzRange{imaging: imaging, warn: warn}
	c.setEnvironment(env)
	return c
}

func (c *MzRange) setEnvironment(env Environment) {
	c.path = env.Path("{scanList}/scan/{window}List/{window}/cvParam")
}

// ProcessScan implements Collector.
func (c *MzRange) ProcessScan(scan *mzml.Node) {
	for _, n := range scan.Find(c.path) {
		p := n.CVParam()
		switch p.Accession {
		case WindowLowerLimit:
			if mz, ok := parseFloat(p); ok {
				c.span.lower(mz)
				if c.unit == nil {
					c.unit = unitOf(p)
				}
			}
		case WindowUpperLimit:
			if mz, ok := parseFloat(p); ok {
				c.span.upper(mz)
			}
		}
	}
}

// PopulateMetadata implements Collector.
func (c *MzRange) PopulateMetadata(d *meta.Dictionary) {
	if !c.span.ok() {
		if !c.imaging && c.warn != nil {
			c.warn("Scan m/z range", "could not find any m/z range")
		}
		return
	}
	d.Set("Scan m/z range", meta.Scalar{
		Value: meta.String(fmt.Sprintf("%d-%d", int64(c.span.min), int64(c.span.max))),
		Unit:  c.unit,
	})
}

// FileContentFallback collects the data file content terms of the scans,
// for documents whose file content section is empty. The first occurrence
// of each accession is kept.
type FileContentFallback struct {
	index *TermIndex
	seen  map[string]bool
	list  meta.EntryList
}

// NewFileContentFallback returns a FileContentFallback matching the data
// file content family of index.
func NewFileContentFallback(index *TermIndex) *FileContentFallback {
	return &FileContentFallback{index: index, seen: make(map[string]bool)}
}

// ProcessScan implements Collector.
func (c *FileContentFallback) ProcessScan(scan *mzml.Node) {
	for _, p := range scan.CVParams() {
		if c.seen[p.Accession] || !c.index.Matches(DataFileContent, p.Accession) {
			continue
		}
		c.seen[p.Accession] = true
		c.list = append(c.list, meta.Record{Accession: p.Accession, Name: p.Name, Ref: p.Ref()})
	}
}

// PopulateMetadata implements Collector.
func (c *FileContentFallback) PopulateMetadata(d *meta.Dictionary) {
	d.Set("Data file content", c.list)
}

// ScanParams runs the descriptor engine on every scan. Matches from all
// scans are gathered privately and added to the dictionary at the end.
type ScanParams struct {
	index  *TermIndex
	env    Environment
	groups map[string]*mzml.Node
	found  *meta.Dictionary
	merge  map[string]bool
}

// NewScanParams returns a ScanParams using the param groups of the document
// for scans that reference them.
func NewScanParams(index *TermIndex, env Environment, groups map[string]*mzml.Node) *ScanParams {
	c := &ScanParams{
		index:  index,
		env:    env,
		groups: groups,
		found:  meta.NewDictionary(),
		merge:  make(map[string]bool),
	}
	for _, loc := range ScanLocations {
		for _, desc := range loc.Descriptors {
			if desc.Merge {
				c.merge[desc.Name] = true
			}
		}
	}
	return c
}

func (c *ScanParams) setEnvironment(env Environment) {
	c.env = env
}

// ProcessScan implements Collector.
func (c *ScanParams) ProcessScan(scan *mzml.Node) {
	for _, loc := range scanGroupRefs {
		for _, ref := range scan.Find(c.env.Path(loc.Path)) {
			id, _ := ref.Attr("ref")
			if g, ok := c.groups[id]; ok {
				ExtractCV(c.index, g.Find("cvParam"), loc.Descriptors, c.found, nil)
			}
		}
	}
	for _, loc := range ScanLocations {
		ExtractCV(c.index, scan.Find(c.env.Path(loc.Path)), loc.Descriptors, c.found, nil)
	}
}

// PopulateMetadata implements Collector. Lists already in d are extended.
func (c *ScanParams) PopulateMetadata(d *meta.Dictionary) {
	for _, k := range c.found.Keys() {
		for _, r := range c.found.List(k) {
			d.Append(k, r, c.merge[k])
		}
	}
}

// ParamGroupScanMeta reads MS level and polarity of imzML spectra from the
// param groups they reference.
type ParamGroupScanMeta struct {
	index  *TermIndex
	groups map[string]*mzml.Node
	warn   WarnFunc
	refs   []string
	seen   map[string]bool
}

// NewParamGroupScanMeta returns a ParamGroupScanMeta over the param groups
// of a document.
func NewParamGroupScanMeta(index *TermIndex, groups map[string]*mzml.Node, warn WarnFunc) *ParamGroupScanMeta {
	return &ParamGroupScanMeta{index: index, groups: groups, warn: warn, seen: make(map[string]bool)}
}

// ProcessScan implements Collector.
func (c *ParamGroupScanMeta) ProcessScan(scan *mzml.Node) {
	for _, ref := range scan.Find("referenceableParamGroupRef") {
		id, _ := ref.Attr("ref")
		if !c.seen[id] {
			c.seen[id] = true
			c.refs = append(c.refs, id)
		}
	}
}

// PopulateMetadata implements Collector.
func (c *ParamGroupScanMeta) PopulateMetadata(d *meta.Dictionary) {
	if len(c.refs) != 1 && c.warn != nil {
		c.warn("Scan polarity", "spectra reference %d parameter groups, scan metadata may be wrong", len(c.refs))
	}
	for _, id := range c.refs {
		if g, ok := c.groups[id]; ok {
			ExtractCV(c.index, g.Find("cvParam"), imagingScanMeta, d, nil)
		}
	}
}
