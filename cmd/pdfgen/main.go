package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/floatpays/pdfkit/builder"
	"github.com/floatpays/pdfkit/layout"
	"github.com/floatpays/pdfkit/observability"
)

type options struct {
	input    string
	output   string
	format   string
	title    string
	author   string
	size     builder.PaperSize
	compress bool
	fontPath string
	verbose  bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfgen: %v\n", err)
		os.Exit(2)
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "pdfgen: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("pdfgen", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: go run ./cmd/pdfgen [flags] <input.md|input.html|input.tex>\n")
		fs.PrintDefaults()
	}
	output := fs.String("o", "", "Output PDF path (defaults to the input name with .pdf)")
	format := fs.String("format", "", "Input format: markdown, html or latex (defaults to the file extension)")
	title := fs.String("title", "", "Document title")
	author := fs.String("author", "", "Document author")
	size := fs.String("size", "A4", "Paper size, e.g. A4, Letter, Legal-landscape")
	compress := fs.Bool("compress", true, "Flate-compress content streams")
	font := fs.String("font", "", "TrueType font file to use for body text")
	verbose := fs.Bool("v", false, "Log progress to stderr")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, fmt.Errorf("missing input path")
	}
	opts.input = fs.Arg(0)
	opts.output = *output
	if opts.output == "" {
		opts.output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + ".pdf"
	}
	opts.format = *format
	if opts.format == "" {
		opts.format = formatFromExt(opts.input)
	}
	switch opts.format {
	case "markdown", "html", "latex":
	default:
		return options{}, fmt.Errorf("unsupported format %q", opts.format)
	}
	paper, ok := builder.LookupPaperSize(*size)
	if !ok {
		return options{}, fmt.Errorf("unknown paper size %q", *size)
	}
	opts.size = paper
	opts.title = *title
	opts.author = *author
	opts.compress = *compress
	opts.fontPath = *font
	opts.verbose = *verbose
	return opts, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "html"
	case ".tex", ".latex":
		return "latex"
	default:
		return "markdown"
	}
}

func run(ctx context.Context, opts options) error {
	src, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var logger observability.Logger = observability.NopLogger{}
	if opts.verbose {
		logger = observability.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	doc := builder.New(
		builder.WithPageSize(opts.size),
		builder.WithCompression(opts.compress),
		builder.WithLogger(logger),
	)

	info := map[builder.InfoKey]any{}
	if opts.title != "" {
		info[builder.InfoTitle] = opts.title
	}
	if opts.author != "" {
		info[builder.InfoAuthor] = opts.author
	}
	if len(info) > 0 {
		if err := doc.PutInfo(info); err != nil {
			return fmt.Errorf("set info: %w", err)
		}
	}

	var engineOpts []layout.Option
	if opts.fontPath != "" {
		name, err := doc.AddFont(opts.fontPath)
		if err != nil {
			return err
		}
		engineOpts = append(engineOpts, layout.WithDefaultFont(name))
	}
	engine := layout.NewEngine(doc, engineOpts...)

	switch opts.format {
	case "html":
		err = engine.RenderHTML(string(src))
	case "latex":
		err = engine.RenderLaTeX(string(src))
	default:
		err = engine.RenderMarkdown(string(src))
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", opts.format, err)
	}

	if _, err := doc.Export(ctx); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := doc.WriteFile(opts.output); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	logger.Info("wrote pdf", observability.String("path", opts.output), observability.Int("pages", doc.PageCount()))
	return nil
}
