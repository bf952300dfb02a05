package builder

import (
	"math"
	"strings"
)

// PaperSize is a page size in points (1/72 inch).
type PaperSize struct {
	Name   string
	Width  float64
	Height float64
}

var (
	A0      = PaperSize{Name: "A0", Width: 2384, Height: 3370}
	A1      = PaperSize{Name: "A1", Width: 1684, Height: 2384}
	A2      = PaperSize{Name: "A2", Width: 1191, Height: 1684}
	A3      = PaperSize{Name: "A3", Width: 842, Height: 1191}
	A4      = PaperSize{Name: "A4", Width: 595, Height: 842}
	A5      = PaperSize{Name: "A5", Width: 420, Height: 595}
	A6      = PaperSize{Name: "A6", Width: 298, Height: 420}
	Letter  = PaperSize{Name: "Letter", Width: 612, Height: 792}
	Legal   = PaperSize{Name: "Legal", Width: 612, Height: 1008}
	Tabloid = PaperSize{Name: "Tabloid", Width: 792, Height: 1224}
)

var paperSizes = map[string]PaperSize{
	"a0": A0, "a1": A1, "a2": A2, "a3": A3, "a4": A4, "a5": A5, "a6": A6,
	"letter": Letter, "legal": Legal, "tabloid": Tabloid,
}

// LookupPaperSize finds a named size, case-insensitively. A "-landscape"
// suffix rotates it.
func LookupPaperSize(name string) (PaperSize, bool) {
	key, landscape := strings.CutSuffix(strings.ToLower(strings.TrimSpace(name)), "-landscape")
	size, ok := paperSizes[key]
	if !ok {
		return PaperSize{}, false
	}
	if landscape {
		size = size.Landscape()
	}
	return size, true
}

// Landscape returns the size with the longer side horizontal.
func (p PaperSize) Landscape() PaperSize {
	if p.Width >= p.Height {
		return p
	}
	return PaperSize{Name: p.Name, Width: p.Height, Height: p.Width}
}

// IsZero reports whether p carries no dimensions.
func (p PaperSize) IsZero() bool { return p.Width == 0 && p.Height == 0 }

// usable reports whether both sides are positive and finite.
func (p PaperSize) usable() bool {
	return p.Width > 0 && p.Height > 0 && !math.IsInf(p.Width, 1) && !math.IsInf(p.Height, 1)
}

// SameDimensions compares width and height exactly; the name is ignored.
func (p PaperSize) SameDimensions(o PaperSize) bool {
	return p.Width == o.Width && p.Height == o.Height
}
