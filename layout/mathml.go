package layout

import (
	"strings"

	"golang.org/x/net/html"
)

type mathBox struct {
	width    float64
	height   float64
	ascent   float64
	descent  float64
	children []*mathBox
	node     *html.Node
	x, y     float64 // Relative to parent
	text     string  // For text nodes
	fontSize float64
}

// renderMath lays out a MathML tree as a display block.
func (e *Engine) renderMath(n *html.Node, x float64) {
	box := e.measureMath(n, e.DefaultFontSize)
	if box == nil {
		return
	}
	e.checkPageBreak(box.height)
	e.drawMathBox(box, x, e.cursorY-box.ascent)
	e.cursorY -= box.height
	e.renderParagraphSpacing()
}

func (e *Engine) measureMath(n *html.Node, fontSize float64) *mathBox {
	box := &mathBox{node: n, fontSize: fontSize}

	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return nil
		}
		box.text = text
		box.width = e.measure(e.normalize(TextSpan{FontSize: fontSize}), text)
		box.ascent = fontSize * 0.8
		box.descent = fontSize * 0.2
		box.height = box.ascent + box.descent
		return box
	}

	if n.Type != html.ElementNode {
		return nil
	}
	// Annotations carry the LaTeX source; only the presentation is drawn.
	if n.Data == "annotation" || n.Data == "annotation-xml" {
		return nil
	}

	var children []*mathBox
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		fs := fontSize
		if isScript(n.Data) && len(children) > 0 {
			fs = fontSize * 0.7
		}
		if childBox := e.measureMath(c, fs); childBox != nil {
			children = append(children, childBox)
		}
	}
	box.children = children

	switch n.Data {
	case "mfrac":
		if len(children) < 2 {
			layoutRow(box)
			break
		}
		num, den := children[0], children[1]
		w := max(num.width, den.width)
		box.width = w + 4
		num.x = (box.width - num.width) / 2
		den.x = (box.width - den.width) / 2

		const rule = 0.5
		axis := fontSize * 0.25
		num.y = axis + rule + 2 + num.descent
		den.y = axis - rule - 2 - den.ascent
		box.ascent = num.y + num.ascent
		box.descent = -den.y + den.descent
		box.height = box.ascent + box.descent

	case "msup":
		if len(children) < 2 {
			layoutRow(box)
			break
		}
		base, sup := children[0], children[1]
		box.width = base.width + sup.width
		sup.x = base.width
		sup.y = base.ascent * 0.5
		box.ascent = max(base.ascent, sup.y+sup.ascent)
		box.descent = base.descent
		box.height = box.ascent + box.descent

	case "msub":
		if len(children) < 2 {
			layoutRow(box)
			break
		}
		base, sub := children[0], children[1]
		box.width = base.width + sub.width
		sub.x = base.width
		sub.y = -base.descent * 1.5
		box.ascent = base.ascent
		box.descent = max(base.descent, -sub.y+sub.descent)
		box.height = box.ascent + box.descent

	case "msubsup":
		if len(children) < 3 {
			layoutRow(box)
			break
		}
		base, sub, sup := children[0], children[1], children[2]
		box.width = base.width + max(sub.width, sup.width)
		sub.x, sup.x = base.width, base.width
		sub.y = -base.descent * 1.5
		sup.y = base.ascent * 0.5
		box.ascent = max(base.ascent, sup.y+sup.ascent)
		box.descent = max(base.descent, -sub.y+sub.descent)
		box.height = box.ascent + box.descent

	case "msqrt":
		layoutRow(box)
		for _, c := range children {
			c.x += 5 // room for the radical sign
		}
		box.width += 5
		box.ascent += 2
		box.height = box.ascent + box.descent

	default:
		layoutRow(box)
	}

	return box
}

func isScript(tag string) bool {
	return tag == "msup" || tag == "msub" || tag == "msubsup"
}

// layoutRow places children side by side on a shared baseline.
func layoutRow(box *mathBox) {
	var w, asc, desc float64
	for _, c := range box.children {
		c.x = w
		c.y = 0
		w += c.width
		asc = max(asc, c.ascent)
		desc = max(desc, c.descent)
	}
	box.width = w
	box.ascent = asc
	box.descent = desc
	box.height = asc + desc
}

// drawMathBox draws box with its baseline at y.
func (e *Engine) drawMathBox(box *mathBox, x, y float64) {
	if box == nil {
		return
	}

	if box.text != "" {
		span := e.normalize(TextSpan{FontSize: box.fontSize})
		if e.useFont(span) {
			e.doc.TextAt(x, y, box.text)
		}
	}

	if box.node != nil {
		switch box.node.Data {
		case "mfrac":
			lineY := y + box.fontSize*0.25
			e.doc.SaveState().SetLineWidth(0.5).Line(x, lineY, x+box.width, lineY).RestoreState()
		case "msqrt":
			top := y + box.ascent - 1
			e.doc.SaveState().SetLineWidth(0.5).
				Line(x+5, top, x+box.width, top).
				Line(x, y+box.ascent/2, x+2, y-box.descent).
				Line(x+2, y-box.descent, x+5, top).
				RestoreState()
		}
	}

	for _, c := range box.children {
		e.drawMathBox(c, x+c.x, y+c.y)
	}
}

// flattenMath renders MathML as a single line of text for inline use.
func flattenMath(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	group := func(n *html.Node) {
		if countElements(n) > 1 || (n.Type == html.ElementNode && n.Data == "mrow") {
			sb.WriteByte('(')
			walk(n)
			sb.WriteByte(')')
			return
		}
		walk(n)
	}
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			return
		}
		if n.Type == html.ElementNode && (n.Data == "annotation" || n.Data == "annotation-xml") {
			return
		}
		kids := elementChildren(n)
		switch {
		case n.Data == "mfrac" && len(kids) == 2:
			group(kids[0])
			sb.WriteByte('/')
			group(kids[1])
		case n.Data == "msup" && len(kids) == 2:
			walk(kids[0])
			sb.WriteByte('^')
			group(kids[1])
		case n.Data == "msub" && len(kids) == 2:
			walk(kids[0])
			sb.WriteByte('_')
			group(kids[1])
		case n.Data == "msqrt":
			sb.WriteString("sqrt(")
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			sb.WriteByte(')')
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
	}
	walk(n)
	return sb.String()
}

func elementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func countElements(n *html.Node) int { return len(elementChildren(n)) }
