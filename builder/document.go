// Package builder assembles a PDF document page by page. A Document owns an
// object store, font and image registries and a page accumulator; drawing
// calls append to the current page and Export lays the object graph out
// once.
package builder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/floatpays/pdfkit/contentstream"
	"github.com/floatpays/pdfkit/fonts"
	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/observability"
	"github.com/floatpays/pdfkit/resources"
	"github.com/floatpays/pdfkit/store"
)

var (
	// ErrFinalized is returned by calls that would change an exported document.
	ErrFinalized = errors.New("document already finalized")
	// ErrNoFont is recorded when text is drawn before SetFont.
	ErrNoFont = errors.New("no font selected")
	// ErrReservedFontName is returned when an added font would shadow a
	// standard font family or face.
	ErrReservedFontName = errors.New("font name reserved by a standard font")
	// ErrInvalidPageSize is returned by AddPage for a size with a zero,
	// negative or infinite side.
	ErrInvalidPageSize = errors.New("invalid page size")
)

// lineSpacing is the leading as a multiple of the font size.
const lineSpacing = 1.2

type selectedFont struct {
	entry resources.Entry
	face  fonts.Font
	size  float64
}

type script struct {
	name   string
	source string
}

// Document is a PDF under construction. It is safe for concurrent use;
// drawing calls are serialized on the current page.
type Document struct {
	cfg    Config
	log    observability.Logger
	store  *store.Store
	fonts  *resources.Registry
	images *resources.Registry
	pages  *Accumulator
	info   raw.ObjectRef

	mu         sync.Mutex
	font       *selectedFont
	custom     map[string]*fonts.TrueType
	imageSizes map[string]pixelSize
	scripts    []script
	err        error

	finalized bool
	graph     *graph
	out       []byte
}

type pixelSize struct{ w, h int }

// New returns a document with one empty page. The info dictionary is the
// first object of every document.
func New(opts ...Option) *Document {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig is New with an explicit configuration.
func NewWithConfig(cfg Config) *Document {
	cfg.normalize()
	s := store.New()
	d := &Document{
		cfg:        cfg,
		log:        cfg.Logger,
		store:      s,
		fonts:      resources.NewFontRegistry(s),
		images:     resources.NewImageRegistry(s),
		custom:     make(map[string]*fonts.TrueType),
		imageSizes: make(map[string]pixelSize),
	}
	d.info = s.Create(newInfo(cfg))
	d.pages = NewAccumulator(PaperSize{})
	d.pages.Mutate(d.resetCursor)
	return d
}

// Config returns the configuration the document was created with.
func (d *Document) Config() Config { return d.cfg }

// Store exposes the object store; objects created directly are written out
// with the rest of the document.
func (d *Document) Store() *store.Store { return d.store }

// Err returns the first deferred drawing error.
func (d *Document) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// AddPage finishes the current page and starts another. A zero size uses the
// document default.
func (d *Document) AddPage(size PaperSize) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return ErrFinalized
	}
	if !size.IsZero() && !size.usable() {
		return fmt.Errorf("%w: %vx%v", ErrInvalidPageSize, size.Width, size.Height)
	}
	d.pages.StartPage(size)
	d.pages.Mutate(d.resetCursor)
	d.log.Debug("page started", observability.Int("page", d.pages.Len()))
	return nil
}

// PageCount returns the number of pages, the current one included.
func (d *Document) PageCount() int { return d.pages.Len() }

// Size returns the effective size of the current page.
func (d *Document) Size() PaperSize {
	return d.pages.Current().EffectiveSize(d.cfg.PageSize)
}

// Cursor returns the flowing-text position on the current page.
func (d *Document) Cursor() (x, y float64) {
	p := d.pages.Current()
	return p.CursorX, p.CursorY
}

func (d *Document) resetCursor(p *Page) *Page {
	size := p.EffectiveSize(d.cfg.PageSize)
	p.CursorX = d.cfg.Margin
	p.CursorY = size.Height - d.cfg.Margin
	return p
}

// SetFont selects a standard or previously added font. family is a standard
// family ("Helvetica", "Times", "Courier", ...), a standard face name, or the
// name of a font added with AddFont/AddFontData.
func (d *Document) SetFont(family string, style fonts.Style, size float64) error {
	if size <= 0 {
		return fmt.Errorf("font size must be positive, got %v", size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return ErrFinalized
	}
	var face fonts.Font
	if tt, ok := d.custom[family]; ok {
		face = tt
	} else {
		std, err := fonts.ResolveStandard(family, style)
		if err != nil {
			return fmt.Errorf("%w: %w", resources.ErrResourceLoadFailed, err)
		}
		face = std
	}
	entry, err := d.fonts.Register(face.Key(), face.Producer())
	if err != nil {
		return err
	}
	d.font = &selectedFont{entry: entry, face: face, size: size}
	d.log.Debug("font selected",
		observability.String("font", face.Name()),
		observability.String("resource", entry.Name))
	return nil
}

// SetFontSize changes the size of the selected font.
func (d *Document) SetFontSize(size float64) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.font == nil {
		d.fail(ErrNoFont)
		return d
	}
	if size > 0 {
		d.font = &selectedFont{entry: d.font.entry, face: d.font.face, size: size}
	}
	return d
}

// AddFont loads a TrueType font file and returns the name to pass to SetFont.
func (d *Document) AddFont(path string) (string, error) {
	tt, err := fonts.LoadTrueTypeFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: font %s: %w", resources.ErrResourceLoadFailed, path, err)
	}
	return tt.Name(), d.addTrueType(tt)
}

// AddFontData registers TrueType font bytes under name. Names of standard
// families and faces are rejected with ErrReservedFontName.
func (d *Document) AddFontData(name string, data []byte) error {
	tt, err := fonts.LoadTrueType(name, data)
	if err != nil {
		return fmt.Errorf("%w: font %s: %w", resources.ErrResourceLoadFailed, name, err)
	}
	return d.addTrueType(tt)
}

// addTrueType makes tt selectable by name. Adding another font under the
// same name replaces the earlier one for later SetFont calls.
func (d *Document) addTrueType(tt *fonts.TrueType) error {
	if fonts.IsStandard(tt.Name()) {
		return fmt.Errorf("%w: %q", ErrReservedFontName, tt.Name())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return ErrFinalized
	}
	d.custom[tt.Name()] = tt
	return nil
}

// TextWidth measures text in the selected font.
func (d *Document) TextWidth(text string) float64 {
	d.mu.Lock()
	f := d.font
	d.mu.Unlock()
	if f == nil {
		return 0
	}
	return f.face.Width(text, f.size)
}

// LineHeight is the distance between baselines of flowing text.
func (d *Document) LineHeight() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.font == nil {
		return 0
	}
	return d.font.size * lineSpacing
}

// draw applies op to the current page unless the document is finalized.
func (d *Document) draw(name string, op func(p *Page)) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		d.log.Warn("drawing after finalize ignored", observability.String("op", name))
		return d
	}
	d.pages.Mutate(func(p *Page) *Page {
		op(p)
		if err := p.Content.Err(); err != nil {
			d.fail(fmt.Errorf("%s: %w", name, err))
		}
		return p
	})
	return d
}

// drawText is draw with the selected font; fails with ErrNoFont.
func (d *Document) drawText(name string, op func(p *Page, f *selectedFont)) *Document {
	d.mu.Lock()
	f := d.font
	if f == nil && !d.finalized {
		d.fail(ErrNoFont)
		d.mu.Unlock()
		return d
	}
	d.mu.Unlock()
	return d.draw(name, func(p *Page) { op(p, f) })
}

func (d *Document) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func showText(s *contentstream.Stream, f *selectedFont, x, y float64, text string) {
	s.BeginText().
		SetFont(f.entry.Name, f.size).
		MoveText(x, y).
		ShowText(f.face.Encode(text)).
		EndText()
}

// Text writes one line at the cursor and moves the cursor down a line.
func (d *Document) Text(text string) *Document {
	return d.drawText("text", func(p *Page, f *selectedFont) {
		showText(&p.Content, f, p.CursorX, p.CursorY-f.size, text)
		p.CursorY -= f.size * lineSpacing
	})
}

// TextAt writes text with its baseline at (x, y). The cursor is unchanged.
func (d *Document) TextAt(x, y float64, text string) *Document {
	return d.drawText("text", func(p *Page, f *selectedFont) {
		showText(&p.Content, f, x, y, text)
	})
}

// TextLines writes each line at the cursor in one text object.
func (d *Document) TextLines(lines []string) *Document {
	if len(lines) == 0 {
		return d
	}
	return d.drawText("text lines", func(p *Page, f *selectedFont) {
		leading := f.size * lineSpacing
		s := &p.Content
		s.BeginText().
			SetFont(f.entry.Name, f.size).
			SetLeading(leading).
			MoveText(p.CursorX, p.CursorY-f.size)
		for i, line := range lines {
			if i > 0 {
				s.NextLine()
			}
			s.ShowText(f.face.Encode(line))
		}
		s.EndText()
		p.CursorY -= leading * float64(len(lines))
	})
}

// TextWrap breaks text into lines no wider than width and writes them from
// (x, y) downwards. Afterwards the cursor sits below the last line.
func (d *Document) TextWrap(x, y, width float64, text string) *Document {
	return d.drawText("text wrap", func(p *Page, f *selectedFont) {
		lines := WrapText(text, width, func(s string) float64 { return f.face.Width(s, f.size) })
		if len(lines) == 0 {
			return
		}
		leading := f.size * lineSpacing
		s := &p.Content
		s.BeginText().
			SetFont(f.entry.Name, f.size).
			SetLeading(leading).
			MoveText(x, y-f.size)
		for i, line := range lines {
			if i > 0 {
				s.NextLine()
			}
			s.ShowText(f.face.Encode(line))
		}
		s.EndText()
		p.CursorX = x
		p.CursorY = y - leading*float64(len(lines))
	})
}

// WrapText splits text on whitespace into lines whose measured width fits.
// Explicit newlines always break; a single word wider than width gets a
// line of its own.
func WrapText(text string, width float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if measure(candidate) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

// MoveDown moves the cursor down by dy points.
func (d *Document) MoveDown(dy float64) *Document {
	return d.draw("move down", func(p *Page) { p.CursorY -= dy })
}

// Line strokes a segment with the current stroke state.
func (d *Document) Line(x1, y1, x2, y2 float64) *Document {
	return d.draw("line", func(p *Page) {
		p.Content.MoveTo(x1, y1).LineTo(x2, y2).Stroke()
	})
}

// Rectangle appends a rectangle to the current path; follow with Fill or
// Stroke.
func (d *Document) Rectangle(x, y, w, h float64) *Document {
	return d.draw("rectangle", func(p *Page) { p.Content.Rectangle(x, y, w, h) })
}

func (d *Document) Fill() *Document {
	return d.draw("fill", func(p *Page) { p.Content.Fill() })
}

func (d *Document) Stroke() *Document {
	return d.draw("stroke", func(p *Page) { p.Content.Stroke() })
}

// SetFillColor sets the RGB fill color; components are in [0, 1].
func (d *Document) SetFillColor(r, g, b float64) *Document {
	return d.draw("fill color", func(p *Page) { p.Content.SetFillRGB(r, g, b) })
}

// SetStrokeColor sets the RGB stroke color; components are in [0, 1].
func (d *Document) SetStrokeColor(r, g, b float64) *Document {
	return d.draw("stroke color", func(p *Page) { p.Content.SetStrokeRGB(r, g, b) })
}

func (d *Document) SetLineWidth(w float64) *Document {
	return d.draw("line width", func(p *Page) { p.Content.SetLineWidth(w) })
}

func (d *Document) SetLineCap(c contentstream.LineCap) *Document {
	return d.draw("line cap", func(p *Page) { p.Content.SetLineCap(c) })
}

func (d *Document) SetLineJoin(j contentstream.LineJoin) *Document {
	return d.draw("line join", func(p *Page) { p.Content.SetLineJoin(j) })
}

// SetDash sets the dash pattern; an empty pattern draws solid lines.
func (d *Document) SetDash(pattern []float64, phase float64) *Document {
	return d.draw("dash", func(p *Page) { p.Content.SetDash(pattern, phase) })
}

func (d *Document) SaveState() *Document {
	return d.draw("save state", func(p *Page) { p.Content.Save() })
}

func (d *Document) RestoreState() *Document {
	return d.draw("restore state", func(p *Page) { p.Content.Restore() })
}

// DrawPath appends path and paints it. With neither fill nor stroke the
// path is ended unpainted.
func (d *Document) DrawPath(path *contentstream.Path, fill, stroke bool) *Document {
	if path.Empty() {
		return d
	}
	return d.draw("path", func(p *Page) {
		p.Content.AppendPath(path)
		switch {
		case fill && stroke:
			p.Content.FillStroke()
		case fill:
			p.Content.Fill()
		case stroke:
			p.Content.Stroke()
		default:
			p.Content.EndPath()
		}
	})
}

// SetTextRenderMode changes how later text is painted, e.g. outlined with
// RenderStroke or hidden with RenderInvisible.
func (d *Document) SetTextRenderMode(m contentstream.TextRenderMode) *Document {
	return d.draw("text render mode", func(p *Page) { p.Content.SetRenderMode(m) })
}

// AddImage registers the image at path and draws it with its lower-left
// corner at (x, y). A zero w or h is derived from the other using the image's
// aspect ratio; both zero draws one point per pixel.
func (d *Document) AddImage(path string, x, y, w, h float64) error {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	key = filepath.Clean(key)
	return d.placeImage(key, func() (*Image, error) { return ImageFromFile(path) }, x, y, w, h)
}

// AddImageData is AddImage for an image already in memory; key identifies
// it for deduplication.
func (d *Document) AddImageData(key string, img *Image, x, y, w, h float64) error {
	return d.placeImage(key, func() (*Image, error) { return img, nil }, x, y, w, h)
}

func (d *Document) placeImage(key string, load func() (*Image, error), x, y, w, h float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return ErrFinalized
	}
	entry, err := d.images.Register(key, func(a resources.Allocator) (raw.Object, error) {
		img, err := load()
		if err != nil {
			return nil, err
		}
		obj, err := img.Producer()(a)
		if err != nil {
			return nil, err
		}
		d.imageSizes[key] = pixelSize{img.Width, img.Height}
		return obj, nil
	})
	if err != nil {
		return err
	}
	size := d.imageSizes[key]
	w, h = fitImage(size, w, h)
	d.pages.Mutate(func(p *Page) *Page {
		p.Content.Save().
			Transform(w, 0, 0, h, x, y).
			DrawXObject(entry.Name).
			Restore()
		return p
	})
	d.log.Debug("image placed",
		observability.String("image", key),
		observability.String("resource", entry.Name))
	return nil
}

func fitImage(size pixelSize, w, h float64) (float64, float64) {
	if size.w == 0 || size.h == 0 {
		return w, h
	}
	ratio := float64(size.h) / float64(size.w)
	switch {
	case w == 0 && h == 0:
		return float64(size.w), float64(size.h)
	case w == 0:
		return h / ratio, h
	case h == 0:
		return w, w * ratio
	}
	return w, h
}
