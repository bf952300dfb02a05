package contentstream

// TextRenderMode selects how glyphs are painted (Tr). The clipping modes are
// left out: the stream does not track clip state across text objects.
type TextRenderMode int

const (
	RenderFill TextRenderMode = iota
	RenderStroke
	RenderFillStroke
	RenderInvisible
)

func (m TextRenderMode) valid() bool { return m >= RenderFill && m <= RenderInvisible }

// LineCap is the shape at the open ends of stroked lines (J).
type LineCap int

const (
	ButtCap LineCap = iota
	RoundCap
	SquareCap
)

func (c LineCap) valid() bool { return c >= ButtCap && c <= SquareCap }

// LineJoin is the shape where stroked segments meet (j).
type LineJoin int

const (
	MiterJoin LineJoin = iota
	RoundJoin
	BevelJoin
)

func (j LineJoin) valid() bool { return j >= MiterJoin && j <= BevelJoin }

// Path records path construction operators so one outline can be painted
// more than once, on any page. The zero value is an empty path.
type Path struct {
	segs []segment
	open bool
}

type segment struct {
	op   string
	args []float64
}

func (p *Path) add(op string, args ...float64) *Path {
	p.segs = append(p.segs, segment{op: op, args: args})
	return p
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) *Path {
	p.open = true
	return p.add("m", x, y)
}

// LineTo appends a straight segment. Without a current point it starts a
// subpath at (x, y) instead.
func (p *Path) LineTo(x, y float64) *Path {
	if !p.open {
		return p.MoveTo(x, y)
	}
	return p.add("l", x, y)
}

// CurveTo appends a cubic Bézier segment ending at (x3, y3). Without a
// current point it starts a subpath at (x3, y3) instead.
func (p *Path) CurveTo(x1, y1, x2, y2, x3, y3 float64) *Path {
	if !p.open {
		return p.MoveTo(x3, y3)
	}
	return p.add("c", x1, y1, x2, y2, x3, y3)
}

// Rect appends a closed rectangle subpath.
func (p *Path) Rect(x, y, w, h float64) *Path {
	p.open = true
	return p.add("re", x, y, w, h)
}

// Close closes the current subpath. It is a no-op on an empty path.
func (p *Path) Close() *Path {
	if !p.open {
		return p
	}
	p.open = false
	return p.add("h")
}

// Empty reports whether nothing has been recorded.
func (p *Path) Empty() bool { return p == nil || len(p.segs) == 0 }
