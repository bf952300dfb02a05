package builder

import (
	"time"

	"github.com/floatpays/pdfkit/observability"
	"github.com/floatpays/pdfkit/writer"
)

// Config controls document defaults and output.
type Config struct {
	// PageSize is the default size; pages of another size carry their own
	// MediaBox.
	PageSize PaperSize
	// Margin is where flowing text starts, measured from the top-left corner.
	Margin   float64
	Compress bool
	Version  writer.PDFVersion
	// Deterministic fixes the file identifier so identical input produces
	// identical bytes. Combine with Now for a fixed creation date.
	Deterministic bool
	Now           func() time.Time
	Producer      string
	Logger        observability.Logger
	Tracer        observability.Tracer
}

// DefaultConfig returns A4 pages, compressed content and PDF 1.7.
func DefaultConfig() Config {
	return Config{
		PageSize: A4,
		Margin:   56,
		Compress: true,
		Version:  writer.PDF17,
		Now:      time.Now,
		Producer: "pdfkit",
		Logger:   observability.NopLogger{},
		Tracer:   observability.NopTracer(),
	}
}

// Option customizes Config.
type Option func(*Config)

// WithPageSize sets the default page size. A size without two positive
// sides keeps the default.
func WithPageSize(size PaperSize) Option {
	return func(c *Config) { c.PageSize = size }
}

// WithMargin sets the flowing-text margin.
func WithMargin(margin float64) Option {
	return func(c *Config) { c.Margin = margin }
}

// WithCompression toggles flate compression of page content.
func WithCompression(on bool) Option {
	return func(c *Config) { c.Compress = on }
}

func WithVersion(v writer.PDFVersion) Option {
	return func(c *Config) { c.Version = v }
}

// WithDeterministic fixes the file identifier and the clock.
func WithDeterministic(at time.Time) Option {
	return func(c *Config) {
		c.Deterministic = true
		c.Now = func() time.Time { return at }
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Config) { c.Now = now }
}

// WithProducer overrides the Producer entry of the info dictionary.
func WithProducer(name string) Option {
	return func(c *Config) { c.Producer = name }
}

func WithLogger(l observability.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func WithTracer(t observability.Tracer) Option {
	return func(c *Config) { c.Tracer = t }
}

func (c *Config) normalize() {
	def := DefaultConfig()
	if !c.PageSize.usable() {
		c.PageSize = def.PageSize
	}
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Now == nil {
		c.Now = def.Now
	}
	if c.Logger == nil {
		c.Logger = def.Logger
	}
	if c.Tracer == nil {
		c.Tracer = def.Tracer
	}
	if c.Margin < 0 {
		c.Margin = 0
	}
}
