package builder

import "github.com/floatpays/pdfkit/contentstream"

// Page is one page under construction. A zero Size means the document
// default. Pages receive an object number only when the document is
// exported.
type Page struct {
	Size    PaperSize
	Content contentstream.Stream

	// Cursor is the baseline position used by flowing text (Text, MoveDown).
	CursorX float64
	CursorY float64
}

// Apply runs op against the page content and returns the page. It is the
// shape every drawing operation takes when passed to Accumulator.Mutate.
func (p *Page) Apply(op func(s *contentstream.Stream)) *Page {
	op(&p.Content)
	return p
}

// EffectiveSize resolves a zero Size against def.
func (p *Page) EffectiveSize(def PaperSize) PaperSize {
	if p.Size.IsZero() {
		return def
	}
	return p.Size
}
