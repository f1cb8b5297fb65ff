// Package extract turns an mzML or imzML document into its metadata
// dictionary. Lookups into the vocabulary go through a shared TermIndex;
// everything else is scoped to one document.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/ISA-tools/mzml2isa/internal/meta"
	"github.com/ISA-tools/mzml2isa/internal/mzml"
)

// Datatype is the kind of input document.
type Datatype string

// The supported datatypes
const (
	MzML  Datatype = "mzML"
	ImzML Datatype = "imzML"
)

// DatatypeOf returns the datatype matching the extension of name.
func DatatypeOf(name string) (Datatype, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".mzml":
		return MzML, true
	case ".imzml":
		return ImzML, true
	}
	return "", false
}

// ErrUnsupportedCV means the primary controlled vocabulary of a document
// is not the PSI-MS one
var ErrUnsupportedCV = errors.New("extract: primary controlled vocabulary is not MS")

// Warning is a non-fatal finding, attributed to a metadata field.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Field + ": " + w.Message
}

// Options control an Extractor.
type Options struct {
	Datatype Datatype
	// ScanMetadata enables the per-scan descriptor pass.
	ScanMetadata bool
	Logger       *slog.Logger
}

// Input is one document to extract. Open is called twice: once for the
// header tree and once for the scan stream.
type Input struct {
	Name string
	Open func() (io.ReadCloser, error)
	// Siblings are the names of the other files next to the document.
	// Imaging documents are linked to image files among them.
	Siblings []string
}

// Result is the outcome of a successful extraction.
type Result struct {
	Metadata *meta.Dictionary
	Warnings []Warning
}

// Extractor extracts metadata from documents of one datatype. It is safe
// for concurrent use.
type Extractor struct {
	index *TermIndex
	opts  Options
	log   *slog.Logger
}

// NewExtractor returns an Extractor matching terms through index.
func NewExtractor(index *TermIndex, opts Options) *Extractor {
	if opts.Datatype == "" {
		opts.Datatype = MzML
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{index: index, opts: opts, log: log}
}

// Datatype returns the datatype the extractor handles.
func (e *Extractor) Datatype() Datatype {
	return e.opts.Datatype
}

// document is the state of one extraction.
type document struct {
	name     string
	doc      *mzml.Document
	env      Environment
	index    *TermIndex
	log      *slog.Logger
	groups   map[string]*mzml.Node
	warnings []Warning
}

func (x *document) warn(field, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	x.warnings = append(x.warnings, Warning{Field: field, Message: msg})
	x.log.Warn(msg, slog.String("field", field))
}

// paramGroup returns the referenceable param group with the given id.
func (x *document) paramGroup(id string) *mzml.Node {
	return x.groups[id]
}

func readDocument(in Input) (*mzml.Document, error) {
	r, err := in.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return mzml.Read(r)
}

// Extract reads the document twice, once for its header tree and once
// streaming its scans, and returns its metadata with accessions rewritten
// as URLs. Errors are fatal for this document only.
func (e *Extractor) Extract(ctx context.Context, in Input) (*Result, error) {
	doc, err := readDocument(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, err)
	}
	x := &document{
		name:   in.Name,
		doc:    doc,
		env:    ResolveEnvironment(doc),
		index:  e.index,
		log:    e.log.With(slog.String("file", in.Name)),
		groups: make(map[string]*mzml.Node),
	}
	x.log.Debug("environment resolved", "root", x.env.Root, "scan", x.env.Scan,
		"instrument", x.env.Instrument, "strategy", x.env.Strategy.String())
	if err := x.checkCV(); err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, err)
	}
	for _, g := range doc.Find(x.env.Path("{root}/referenceableParamGroupList/referenceableParamGroup")) {
		if id, ok := g.Attr("id"); ok {
			x.groups[id] = g
		}
	}

	imaging := e.opts.Datatype == ImzML
	d := meta.NewDictionary()

	locations := MzMLLocations
	if imaging {
		locations = ImzMLLocations
	}
	for _, loc := range locations {
		var soft softwareFunc
		if loc.Name == "data_processing" {
			soft = x.processingSoftware(d)
		}
		ExtractCV(e.index, doc.Find(x.env.Path(loc.Path)), loc.Descriptors, d, soft)
	}

	x.resolveInstrument(d)

	collectors := []Collector{
		&Polarity{},
		NewTimeRange(x.env),
		NewMzRange(x.env, imaging, x.warn),
	}
	if !imaging && len(d.List("Data file content")) == 0 {
		collectors = append(collectors, NewFileContentFallback(e.index))
	}
	if e.opts.ScanMetadata {
		collectors = append(collectors, NewScanParams(e.index, x.env, x.groups))
	}
	if imaging {
		collectors = append(collectors, NewParamGroupScanMeta(e.index, x.groups, x.warn))
	}
	if err := x.streamScans(ctx, in, collectors); err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, err)
	}
	for _, c := range collectors {
		c.PopulateMetadata(d)
	}

	x.scanCount(d)
	x.derived(d)
	if imaging {
		x.linkImagingFiles(d, in.Siblings)
	}

	return &Result{Metadata: meta.Urlize(d), Warnings: x.warnings}, nil
}

// streamScans feeds every scan element of the document to the collectors.
func (x *document) streamScans(ctx context.Context, in Input, collectors []Collector) error {
	if x.env.Scan == "" {
		return nil
	}
	r, err := in.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	n := 0
	err = mzml.StreamElements(r, x.env.Scan, func(scan *mzml.Node) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if x.env.ResolveScanRoles(scan) {
			x.log.Debug("scan roles resolved", "scan", n, "scanList", x.env.ScanList, "window", x.env.Window)
			for _, c := range collectors {
				if l, ok := c.(scanLayout); ok {
					l.setEnvironment(x.env)
				}
			}
		}
		for _, c := range collectors {
			c.ProcessScan(scan)
		}
		n++
		return nil
	})
	x.log.Debug("scans processed", "count", n)
	return err
}

// checkCV verifies that the first declared vocabulary is the MS one.
func (x *document) checkCV() error {
	cv := x.doc.Top().First(x.env.Path("{root}/cvList/cv"))
	if cv == nil || x.env.CvLabelAttr == "" {
		x.warn("term_source", "no controlled vocabulary declared")
		return nil
	}
	label, _ := cv.Attr(x.env.CvLabelAttr)
	if !strings.Contains(label, "MS") {
		return fmt.Errorf("%w: %q", ErrUnsupportedCV, label)
	}
	return nil
}

func (x *document) scanCount(d *meta.Dictionary) {
	list := x.doc.Top().First(x.env.Path("{root}/run/{scan}List"))
	if list == nil {
		return
	}
	count, ok := list.Attr("count")
	if !ok {
		return
	}
	n, err := strconv.ParseInt(strings.TrimSpace(count), 10, 64)
	if err != nil {
		x.warn("Number of scans", "invalid scan count %q", count)
		return
	}
	d.Set("Number of scans", meta.Scalar{Value: meta.Int(n)})
}

func baseName(name string) string {
	// Archive members and object keys use forward slashes, local paths
	// may not
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func stem(name string) string {
	base := baseName(name)
	return strings.TrimSuffix(base, path.Ext(base))
}

// derived records the fields computed from the file names.
func (x *document) derived(d *meta.Dictionary) {
	src := x.doc.Top().First(x.env.Path("{root}/fileDescription/sourceFileList/sourceFile"))
	raw := ""
	if src != nil && x.env.FilenameAttr != "" {
		raw, _ = src.Attr(x.env.FilenameAttr)
	}
	if raw != "" {
		v := meta.String(baseName(raw))
		d.Set("Raw Spectral Data File", meta.EntryList{{Value: &v}})
	} else {
		x.warn("Raw Spectral Data File", "could not find any metadata about Raw Spectral Data File")
	}
	name := meta.String(baseName(x.name))
	d.Set("MS Assay Name", meta.Scalar{Value: meta.String(stem(x.name))})
	d.Set("Derived Spectral Data File", meta.EntryList{{Value: &name}})
	d.Set("Sample Name", meta.Scalar{Value: meta.String(stem(x.name))})
}
