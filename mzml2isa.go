// Copyright 2016 The mzml2isa Authors.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ISA-tools/mzml2isa/internal/config"
	"github.com/ISA-tools/mzml2isa/internal/extract"
	"github.com/ISA-tools/mzml2isa/internal/meta"
)

// Program name and version, logged when a conversion starts
const progName = "mzml2isa"

var progVersion = `Unknown`

// Default pattern for documents of a conversion
const defaultGlob = "**/*.{mzML,imzML}"

// Command line parameters. A flag overrides the config only when it was
// given.
type params struct {
	configFile  string
	envFile     string
	msOBO       string
	imsOBO      string
	workers     int
	logLevel    string
	metricsFile string

	out          string
	glob         string
	scanMetadata bool
	isaNames     bool
	noSplit      bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var par params

	cmd := &cobra.Command{
		Use:   progName,
		Short: "Extract ISA-Tab metadata from mzML and imzML files",
		Long: `mzml2isa reads the metadata of mass spectrometry files in the mzML and
imzML formats, resolves the controlled vocabulary terms against the PSI-MS
(and imaging MS) ontology, and writes one metadata document per file for
the ISA-Tab conversion.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&par.configFile, "config", "c", "", "config `file` (YAML)")
	pf.StringVar(&par.envFile, "env-file", ".env", "`file` with MZML2ISA_* variables, ignored when missing")
	pf.StringVar(&par.msOBO, "ms-obo", "", "PSI-MS vocabulary `file` (OBO)")
	pf.StringVar(&par.imsOBO, "ims-obo", "", "imaging MS vocabulary `file` (OBO)")
	pf.IntVarP(&par.workers, "workers", "j", 0, "documents processed at once, 0 means one per CPU")
	pf.StringVar(&par.logLevel, "log-level", "", "log `level` (debug, info, warn, error)")
	pf.StringVar(&par.metricsFile, "metrics-file", "", "write Prometheus metrics to `file` when done")
	pf.BoolVar(&par.scanMetadata, "scan-metadata", false, "also extract the metadata of every scan")
	pf.BoolVar(&par.isaNames, "isa", false, "write fields under their ISA-Tab column names")

	convert := &cobra.Command{
		Use:   "convert <dir|archive.zip|s3-prefix>",
		Short: "Extract the metadata of all documents of a study",
		Long: `Extract the metadata of every mzML and imzML document found in a
directory, in a zip archive, or under a prefix of the S3 bucket configured
with s3.endpoint and s3.bucket. One JSON document per input file is written
to the output directory, grouped by scan polarity unless --no-split is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, &par)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return convertStudy(ctx, cfg, args[0], par.glob, !par.noSplit)
		},
	}
	convert.Flags().StringVarP(&par.out, "out", "o", "", "output `directory`")
	convert.Flags().StringVar(&par.glob, "glob", defaultGlob, "`pattern` selecting the documents")
	convert.Flags().BoolVar(&par.noSplit, "no-split", false, "do not group documents by scan polarity")

	inspect := &cobra.Command{
		Use:   "inspect <file.mzML|file.imzML>",
		Short: "Print the metadata of one local document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, &par)
			if err != nil {
				return err
			}
			return inspectFile(cmd.Context(), cfg, args[0], os.Stdout)
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Show software version",
		Run: func(cmd *cobra.Command, args []string) {
			if progVersion == `Unknown` {
				progVersion = `Unknown
Please build this program with -ldflags "-X main.progVersion=$(git describe --tags)" so that the git version is shown here.`
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", progName, progVersion)
		},
	}

	cmd.AddCommand(convert, inspect, version)
	return cmd
}

// setup loads the configuration, applies the flags that were given and
// configures logging.
func setup(cmd *cobra.Command, par *params) (*config.Config, error) {
	cfg, err := config.Load(par.configFile, par.envFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("ms-obo") {
		cfg.Vocabulary.MS = par.msOBO
	}
	if flags.Changed("ims-obo") {
		cfg.Vocabulary.IMS = par.imsOBO
	}
	if flags.Changed("workers") {
		cfg.Workers = par.workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = par.logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = par.metricsFile
	}
	if flags.Changed("scan-metadata") {
		cfg.ScanMetadata = par.scanMetadata
	}
	if flags.Changed("isa") {
		cfg.ISANames = par.isaNames
	}
	if flags.Changed("out") {
		cfg.Output = par.out
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	slog.SetDefault(newLogger(cfg.LogLevel))
	return cfg, nil
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// inspectFile extracts one local document and writes its metadata to w.
func inspectFile(ctx context.Context, cfg *config.Config, file string, w io.Writer) error {
	dt, ok := extract.DatatypeOf(file)
	if !ok {
		return fmt.Errorf("%s: unknown datatype, expected .mzML or .imzML", file)
	}
	index, err := loadIndex(cfg, dt)
	if err != nil {
		return err
	}
	x := extract.NewExtractor(index, extract.Options{Datatype: dt, ScanMetadata: cfg.ScanMetadata})
	siblings, _ := filepath.Glob(filepath.Join(filepath.Dir(file), "*"))
	res, err := x.Extract(ctx, extract.Input{
		Name:     filepath.Base(file),
		Open:     func() (io.ReadCloser, error) { return os.Open(file) },
		Siblings: siblings,
	})
	if err != nil {
		return err
	}
	out := res.Metadata
	if cfg.ISANames {
		out = meta.ISAView(out)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
