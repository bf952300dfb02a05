// Package fonts provides the font resources a document can register: the
// standard 14 Type1 fonts every reader ships with, and embedded TrueType
// fonts. Both use WinAnsiEncoding for text.
package fonts

import (
	"golang.org/x/text/encoding/charmap"

	"github.com/floatpays/pdfkit/resources"
)

// Font is a font that page content can select and measure.
type Font interface {
	// Name is the PostScript name written as BaseFont.
	Name() string
	// Key identifies the font program: two fonts with equal keys produce
	// the same font dictionary. It keys the document's font registry.
	Key() string
	// Encode converts text to the byte codes shown by Tj.
	Encode(text string) []byte
	// Width returns the advance of text at size, in points.
	Width(text string, size float64) float64
	// Producer builds the font dictionary on first registration.
	Producer() resources.Producer
}

// Style selects a face within a family.
type Style struct {
	Bold   bool
	Italic bool
}

// winAnsiEncode maps text to cp1252; runes outside it become '?'.
func winAnsiEncode(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

func winAnsiDecode(b byte) rune { return charmap.Windows1252.DecodeByte(b) }
