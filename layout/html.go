package layout

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/floatpays/pdfkit/fonts"
)

// RenderHTML renders an HTML string to the PDF.
func (e *Engine) RenderHTML(source string) error {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return err
	}
	e.walkHTML(doc, e.Margins.Left)
	return e.result()
}

func (e *Engine) walkHTML(n *html.Node, x float64) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level := int(n.Data[1] - '0')
			size := headingSize(e.DefaultFontSize, level)
			e.checkPageBreak(size * e.LineHeight)
			e.renderSpans(e.htmlInline(n, TextSpan{FontSize: size, Style: fonts.Style{Bold: true}}), x)
			e.renderParagraphSpacing()
			return
		case atom.P, atom.Div:
			if hasBlockChild(n) {
				break
			}
			e.renderSpans(e.htmlInline(n, TextSpan{}), x)
			e.renderParagraphSpacing()
			return
		case atom.Ul, atom.Ol:
			e.renderHTMLList(n, x)
			e.renderParagraphSpacing()
			return
		case atom.Pre:
			e.renderPre(n, x)
			e.renderParagraphSpacing()
			return
		case atom.Blockquote:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				e.walkHTML(c, x+listIndent)
			}
			return
		case atom.Hr:
			e.rule()
			return
		case atom.Math:
			e.renderMath(n, x)
			return
		case atom.Script, atom.Style, atom.Head:
			return
		}
	}
	if n.Type == html.TextNode && n.Parent != nil && n.Parent.DataAtom == atom.Body {
		if t := strings.TrimSpace(n.Data); t != "" {
			e.renderSpans([]TextSpan{{Text: t}}, x)
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walkHTML(c, x)
	}
}

func (e *Engine) renderHTMLList(list *html.Node, x float64) {
	ordered := list.DataAtom == atom.Ol
	number := 1
	if start, ok := attr(list, "start"); ok {
		if v, err := strconv.Atoi(start); err == nil {
			number = v
		}
	}
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		marker := "•"
		if ordered {
			marker = strconv.Itoa(number) + "."
			number++
		}
		e.renderMarker(marker, x)
		if hasBlockChild(li) {
			for c := li.FirstChild; c != nil; c = c.NextSibling {
				e.walkHTML(c, x+listIndent)
			}
			continue
		}
		e.renderSpans(e.htmlInline(li, TextSpan{}), x+listIndent)
	}
}

func (e *Engine) renderPre(n *html.Node, x float64) {
	span := e.normalize(TextSpan{Font: e.MonoFont, FontSize: e.DefaultFontSize * 0.9})
	body := strings.Trim(extractText(n, false), "\n")
	for _, line := range strings.Split(body, "\n") {
		line = strings.ReplaceAll(line, "\t", "    ")
		e.checkPageBreak(span.FontSize * e.LineHeight)
		if line != "" && e.useFont(span) {
			e.doc.TextAt(x, e.cursorY-span.FontSize, line)
		}
		e.cursorY -= span.FontSize * e.LineHeight
	}
}

// htmlInline flattens inline markup into styled spans.
func (e *Engine) htmlInline(n *html.Node, base TextSpan) []TextSpan {
	var spans []TextSpan
	var walk func(n *html.Node, style TextSpan)
	walk = func(n *html.Node, style TextSpan) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				s := style
				s.Text = c.Data
				spans = append(spans, s)
				continue
			case html.ElementNode:
			default:
				continue
			}
			s := style
			switch c.DataAtom {
			case atom.B, atom.Strong:
				s.Style.Bold = true
			case atom.I, atom.Em:
				s.Style.Italic = true
			case atom.U, atom.Ins:
				s.Underline = true
			case atom.S, atom.Del, atom.Strike:
				s.Strikethrough = true
			case atom.Code, atom.Kbd, atom.Tt:
				s.Font = e.MonoFont
			case atom.A:
				s.Color = linkColor
				s.Underline = true
			case atom.Br:
				s.Text = " "
				spans = append(spans, s)
				continue
			case atom.Math:
				s.Text = flattenMath(c)
				spans = append(spans, s)
				continue
			}
			walk(c, s)
		}
	}
	walk(n, base)
	return spans
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Ul: true, atom.Ol: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Hr: true, atom.Table: true,
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if blockAtoms[c.DataAtom] {
			return true
		}
		if display, _ := attr(c, "display"); c.Data == "math" && display == "block" {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func extractText(n *html.Node, trim bool) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	if trim {
		return strings.TrimSpace(sb.String())
	}
	return sb.String()
}
