// Package config holds the settings of a conversion run. Values are
// layered: defaults, then the YAML file, then the environment (a .env file
// fills variables that are not already set). Command line flags are
// applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts the name of every environment variable read by Load.
const EnvPrefix = "MZML2ISA_"

var (
	// ErrNoVocabulary means no MS vocabulary file was configured
	ErrNoVocabulary = errors.New("config: vocabulary.ms is required")
	// ErrWorkers means the worker count is negative
	ErrWorkers = errors.New("config: workers must not be negative")
	// ErrNoBucket means an S3 endpoint was given without a bucket
	ErrNoBucket = errors.New("config: s3.bucket is required with s3.endpoint")
)

// Vocabulary locates the OBO files.
type Vocabulary struct {
	MS  string `yaml:"ms"`
	IMS string `yaml:"ims"`
}

// S3 locates an S3 compatible bucket to read documents from.
type S3 struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

// Enabled reports whether documents are read from S3.
func (s S3) Enabled() bool {
	return s.Endpoint != ""
}

// Config is the configuration of a conversion run.
type Config struct {
	Vocabulary   Vocabulary `yaml:"vocabulary"`
	Workers      int        `yaml:"workers"`
	ScanMetadata bool       `yaml:"scan_metadata"`
	ISANames     bool       `yaml:"isa_names"`
	Output       string     `yaml:"output"`
	LogLevel     string     `yaml:"log_level"`
	MetricsFile  string     `yaml:"metrics_file"`
	S3           S3         `yaml:"s3"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Vocabulary: Vocabulary{MS: "psi-ms.obo", IMS: "imagingMS.obo"},
		Output:     ".",
		LogLevel:   "info",
		S3:         S3{UseSSL: true, Region: "us-east-1"},
	}
}

// LoadFromFile reads a YAML file on top of the defaults.
func LoadFromFile(file string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", file, err)
	}
	return cfg, nil
}

// Load builds the configuration from an optional YAML file, an optional
// .env file and the MZML2ISA_* environment variables. Missing .env files
// are ignored.
func Load(file, envFile string) (*Config, error) {
	cfg := DefaultConfig()
	if file != "" {
		var err error
		if cfg, err = LoadFromFile(file); err != nil {
			return nil, err
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %s: %w", envFile, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("VOCABULARY_MS", &c.Vocabulary.MS)
	str("VOCABULARY_IMS", &c.Vocabulary.IMS)
	str("OUTPUT", &c.Output)
	str("LOG_LEVEL", &c.LogLevel)
	str("METRICS_FILE", &c.MetricsFile)
	str("S3_ENDPOINT", &c.S3.Endpoint)
	str("S3_BUCKET", &c.S3.Bucket)
	str("S3_PREFIX", &c.S3.Prefix)
	str("S3_ACCESS_KEY", &c.S3.AccessKey)
	str("S3_SECRET_KEY", &c.S3.SecretKey)
	str("S3_REGION", &c.S3.Region)
	if v, ok := lookup(EnvPrefix + "WORKERS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sWORKERS: %w", EnvPrefix, err)
		}
		c.Workers = n
	}
	for key, dst := range map[string]*bool{
		"SCAN_METADATA": &c.ScanMetadata,
		"ISA_NAMES":     &c.ISANames,
		"S3_USE_SSL":    &c.S3.UseSSL,
	} {
		if err := boolean(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Vocabulary.MS) == "" {
		return ErrNoVocabulary
	}
	if c.Workers < 0 {
		return ErrWorkers
	}
	if c.S3.Enabled() && strings.TrimSpace(c.S3.Bucket) == "" {
		return ErrNoBucket
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}
