// Package layout flows structured content (Markdown, HTML, LaTeX math) onto
// the pages of a builder.Document, wrapping lines with the document's font
// metrics and starting new pages as the cursor reaches the bottom margin.
package layout

import (
	"strings"

	"github.com/floatpays/pdfkit/builder"
	"github.com/floatpays/pdfkit/fonts"
)

// Engine handles the layout and rendering of structured content (Markdown/HTML) into PDF pages.
type Engine struct {
	doc *builder.Document

	// Configuration
	DefaultFont     string
	MonoFont        string
	DefaultFontSize float64
	LineHeight      float64 // Multiplier, e.g., 1.2
	Margins         Margins

	// State
	started  bool
	cursorX  float64
	cursorY  float64
	fontKey  fontKey
	firstErr error
}

// Margins defines page margins in points.
type Margins struct {
	Top, Bottom, Left, Right float64
}

// Option defines a configuration option for the Engine.
type Option func(*Engine)

// WithDefaultFont sets the body font family.
func WithDefaultFont(font string) Option {
	return func(e *Engine) {
		e.DefaultFont = font
	}
}

// WithMonoFont sets the family used for code.
func WithMonoFont(font string) Option {
	return func(e *Engine) {
		e.MonoFont = font
	}
}

// WithDefaultFontSize sets the default font size.
func WithDefaultFontSize(size float64) Option {
	return func(e *Engine) {
		e.DefaultFontSize = size
	}
}

// WithLineHeight sets the line height multiplier.
func WithLineHeight(height float64) Option {
	return func(e *Engine) {
		e.LineHeight = height
	}
}

// WithMargins sets the page margins.
func WithMargins(margins Margins) Option {
	return func(e *Engine) {
		e.Margins = margins
	}
}

// NewEngine creates a layout engine that draws onto doc.
func NewEngine(doc *builder.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:             doc,
		DefaultFont:     "Helvetica",
		MonoFont:        "Courier",
		DefaultFontSize: 12,
		LineHeight:      1.2,
		Margins: Margins{
			Top:    50,
			Bottom: 50,
			Left:   50,
			Right:  50,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cursor returns the top of the next line to be laid out.
func (e *Engine) Cursor() (x, y float64) { return e.cursorX, e.cursorY }

type fontKey struct {
	family string
	style  fonts.Style
	size   float64
}

// TextSpan represents a segment of text with specific styling.
type TextSpan struct {
	Text          string
	Font          string
	Style         fonts.Style
	FontSize      float64
	Color         *Color
	Underline     bool
	Strikethrough bool
}

// Color is an RGB color with components in [0, 1].
type Color struct{ R, G, B float64 }

var linkColor = &Color{R: 0, G: 0, B: 0.8}

// start positions the cursor on the document's current page.
func (e *Engine) start() {
	if e.started {
		return
	}
	e.started = true
	size := e.doc.Size()
	e.cursorX = e.Margins.Left
	e.cursorY = size.Height - e.Margins.Top
}

// newPage starts a new page and resets the cursor.
func (e *Engine) newPage() {
	if err := e.doc.AddPage(builder.PaperSize{}); err != nil {
		e.fail(err)
		return
	}
	size := e.doc.Size()
	e.cursorX = e.Margins.Left
	e.cursorY = size.Height - e.Margins.Top
}

// checkPageBreak starts a new page when height does not fit above the
// bottom margin.
func (e *Engine) checkPageBreak(height float64) {
	e.start()
	if e.cursorY-height < e.Margins.Bottom {
		e.newPage()
	}
}

func (e *Engine) fail(err error) {
	if err != nil && e.firstErr == nil {
		e.firstErr = err
	}
}

// result reports the first error since the last call and clears it.
func (e *Engine) result() error {
	if err := e.doc.Err(); err != nil {
		return err
	}
	err := e.firstErr
	e.firstErr = nil
	return err
}

// useFont selects the span's font on the document if it is not current.
func (e *Engine) useFont(span TextSpan) bool {
	key := fontKey{family: span.Font, style: span.Style, size: span.FontSize}
	if key == e.fontKey {
		return true
	}
	if err := e.doc.SetFont(key.family, key.style, key.size); err != nil {
		e.fail(err)
		return false
	}
	e.fontKey = key
	return true
}

func (e *Engine) measure(span TextSpan, text string) float64 {
	if !e.useFont(span) {
		return 0
	}
	return e.doc.TextWidth(text)
}

func (e *Engine) normalize(span TextSpan) TextSpan {
	if span.Font == "" {
		span.Font = e.DefaultFont
	}
	if span.FontSize == 0 {
		span.FontSize = e.DefaultFontSize
	}
	return span
}

func (e *Engine) renderParagraphSpacing() {
	if e.started {
		e.cursorY -= e.DefaultFontSize * e.LineHeight * 0.5
	}
}

type wordSpan struct {
	text  string
	span  TextSpan
	width float64
}

// renderSpans lays spans out as words, breaking lines at the right margin.
// A word wider than the line is broken between characters.
func (e *Engine) renderSpans(spans []TextSpan, x float64) {
	e.start()
	size := e.doc.Size()
	maxWidth := size.Width - e.Margins.Right - x

	var line []wordSpan
	lineWidth := 0.0

	flushLine := func() {
		if len(line) == 0 {
			return
		}
		lineSize := 0.0
		for _, ws := range line {
			if ws.span.FontSize > lineSize {
				lineSize = ws.span.FontSize
			}
		}
		e.checkPageBreak(lineSize * e.LineHeight)
		curX := x
		for _, ws := range line {
			e.drawWord(ws, curX, e.cursorY-lineSize)
			curX += ws.width
		}
		e.cursorY -= lineSize * e.LineHeight
		line = nil
		lineWidth = 0
	}

	for _, span := range spans {
		if span.Text == "" {
			continue
		}
		span = e.normalize(span)
		spaceW := e.measure(span, " ")

		for _, token := range tokenize(span.Text) {
			if token == " " {
				if len(line) == 0 {
					continue
				}
				if lineWidth+spaceW > maxWidth {
					flushLine()
					continue
				}
				line = append(line, wordSpan{text: " ", span: span, width: spaceW})
				lineWidth += spaceW
				continue
			}

			w := e.measure(span, token)
			if lineWidth+w <= maxWidth {
				line = append(line, wordSpan{text: token, span: span, width: w})
				lineWidth += w
				continue
			}
			flushLine()
			if w <= maxWidth {
				line = append(line, wordSpan{text: token, span: span, width: w})
				lineWidth = w
				continue
			}
			var sub strings.Builder
			subWidth := 0.0
			for _, r := range token {
				rw := e.measure(span, string(r))
				if subWidth+rw > maxWidth && sub.Len() > 0 {
					line = append(line, wordSpan{text: sub.String(), span: span, width: subWidth})
					flushLine()
					sub.Reset()
					subWidth = 0
				}
				sub.WriteRune(r)
				subWidth += rw
			}
			if sub.Len() > 0 {
				line = append(line, wordSpan{text: sub.String(), span: span, width: subWidth})
				lineWidth = subWidth
			}
		}
	}
	flushLine()
}

func (e *Engine) drawWord(ws wordSpan, x, baseline float64) {
	if !e.useFont(ws.span) {
		return
	}
	colored := ws.span.Color != nil
	if colored {
		c := ws.span.Color
		e.doc.SaveState().SetFillColor(c.R, c.G, c.B).SetStrokeColor(c.R, c.G, c.B)
	}
	e.doc.TextAt(x, baseline, ws.text)
	if ws.span.Underline {
		y := baseline - ws.span.FontSize*0.15
		e.doc.SaveState().SetLineWidth(0.5).Line(x, y, x+ws.width, y).RestoreState()
	}
	if ws.span.Strikethrough {
		y := baseline + ws.span.FontSize*0.3
		e.doc.SaveState().SetLineWidth(0.5).Line(x, y, x+ws.width, y).RestoreState()
	}
	if colored {
		e.doc.RestoreState()
	}
}

// rule draws a horizontal line across the text area.
func (e *Engine) rule() {
	e.checkPageBreak(e.DefaultFontSize)
	y := e.cursorY - e.DefaultFontSize/2
	width := e.doc.Size().Width - e.Margins.Right
	e.doc.SaveState().SetLineWidth(0.75).Line(e.Margins.Left, y, width, y).RestoreState()
	e.cursorY -= e.DefaultFontSize
}

// tokenize splits text into words and single-space separators.
func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
			if len(tokens) == 0 || tokens[len(tokens)-1] != " " {
				tokens = append(tokens, " ")
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func headingSize(base float64, level int) float64 {
	switch level {
	case 1:
		return base * 2.0
	case 2:
		return base * 1.5
	case 3:
		return base * 1.25
	default:
		return base * 1.1
	}
}
