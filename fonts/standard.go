package fonts

import (
	"fmt"
	"strings"

	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/resources"
)

// standardFamilies maps a family to its faces: regular, bold, italic, bold italic.
var standardFamilies = map[string][4]string{
	"helvetica":    {"Helvetica", "Helvetica-Bold", "Helvetica-Oblique", "Helvetica-BoldOblique"},
	"times":        {"Times-Roman", "Times-Bold", "Times-Italic", "Times-BoldItalic"},
	"times-roman":  {"Times-Roman", "Times-Bold", "Times-Italic", "Times-BoldItalic"},
	"courier":      {"Courier", "Courier-Bold", "Courier-Oblique", "Courier-BoldOblique"},
	"symbol":       {"Symbol", "Symbol", "Symbol", "Symbol"},
	"zapfdingbats": {"ZapfDingbats", "ZapfDingbats", "ZapfDingbats", "ZapfDingbats"},
}

// Standard is one of the 14 standard Type1 fonts.
type Standard struct {
	name   string
	widths *[95]int
	other  int
}

// IsStandard reports whether name is a standard family or face.
func IsStandard(name string) bool {
	_, err := ResolveStandard(name, Style{})
	return err == nil
}

// ResolveStandard returns the standard face for family and style. A full
// face name such as "Helvetica-Bold" is accepted as-is and style is ignored.
func ResolveStandard(family string, style Style) (*Standard, error) {
	key := strings.ToLower(strings.TrimSpace(family))
	if faces, ok := standardFamilies[key]; ok {
		i := 0
		if style.Bold {
			i |= 1
		}
		if style.Italic {
			i |= 2
		}
		return newStandard(faces[i]), nil
	}
	for _, faces := range standardFamilies {
		for _, face := range faces {
			if strings.EqualFold(face, family) {
				return newStandard(face), nil
			}
		}
	}
	return nil, fmt.Errorf("%q is not a standard font", family)
}

func newStandard(face string) *Standard {
	s := &Standard{name: face}
	switch {
	case strings.HasPrefix(face, "Helvetica-Bold"):
		s.widths, s.other = &helveticaBoldWidths, 556
	case strings.HasPrefix(face, "Helvetica"):
		s.widths, s.other = &helveticaWidths, 556
	case face == "Times-BoldItalic":
		s.widths, s.other = &timesBoldItalicWidths, 500
	case face == "Times-Bold":
		s.widths, s.other = &timesBoldWidths, 500
	case face == "Times-Italic":
		s.widths, s.other = &timesItalicWidths, 500
	case strings.HasPrefix(face, "Times"):
		s.widths, s.other = &timesWidths, 500
	case strings.HasPrefix(face, "Courier"):
		s.other = 600
	default:
		s.other = 500
	}
	return s
}

func (s *Standard) Name() string { return s.name }

func (s *Standard) Key() string { return "type1/" + s.name }

func (s *Standard) symbolic() bool { return s.name == "Symbol" || s.name == "ZapfDingbats" }

func (s *Standard) Encode(text string) []byte {
	if s.symbolic() {
		return []byte(text)
	}
	return winAnsiEncode(text)
}

func (s *Standard) Width(text string, size float64) float64 {
	total := 0
	for _, b := range s.Encode(text) {
		total += s.glyphWidth(b)
	}
	return float64(total) * size / 1000
}

func (s *Standard) glyphWidth(b byte) int {
	if s.widths != nil && b >= 32 && b <= 126 {
		return s.widths[b-32]
	}
	return s.other
}

func (s *Standard) Producer() resources.Producer {
	return func(resources.Allocator) (raw.Object, error) {
		d := raw.Dict().
			Put("Type", raw.NameLiteral("Font")).
			Put("Subtype", raw.NameLiteral("Type1")).
			Put("BaseFont", raw.NameLiteral(s.name))
		if !s.symbolic() {
			d.Put("Encoding", raw.NameLiteral("WinAnsiEncoding"))
		}
		return d, nil
	}
}
