package layout

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/floatpays/pdfkit/fonts"
)

const listIndent = 15.0

// RenderMarkdown renders a markdown string to the PDF using goldmark.
func (e *Engine) RenderMarkdown(source string) error {
	md := goldmark.New()
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))
	e.walkMarkdown(doc, src, e.Margins.Left)
	return e.result()
}

func (e *Engine) walkMarkdown(node ast.Node, source []byte, x float64) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			size := headingSize(e.DefaultFontSize, n.Level)
			e.checkPageBreak(size * e.LineHeight)
			spans := e.markdownInline(n, source, TextSpan{FontSize: size, Style: fonts.Style{Bold: true}})
			e.renderSpans(spans, x)
			e.renderParagraphSpacing()
		case *ast.Paragraph, *ast.TextBlock:
			e.renderSpans(e.markdownInline(n, source, TextSpan{}), x)
			if _, tight := n.(*ast.TextBlock); !tight {
				e.renderParagraphSpacing()
			}
		case *ast.List:
			e.renderMarkdownList(n, source, x)
			e.renderParagraphSpacing()
		case *ast.Blockquote:
			e.walkMarkdown(n, source, x+listIndent)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			e.renderCodeLines(n.Lines(), source, x)
			e.renderParagraphSpacing()
		case *ast.ThematicBreak:
			e.rule()
		default:
			e.walkMarkdown(n, source, x)
		}
	}
}

func (e *Engine) renderMarkdownList(list *ast.List, source []byte, x float64) {
	number := list.Start
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "•"
		if list.IsOrdered() {
			marker = strconv.Itoa(number) + "."
			number++
		}
		e.renderMarker(marker, x)
		e.walkMarkdown(item, source, x+listIndent)
	}
}

// renderMarker draws a list marker on the line the item starts on.
func (e *Engine) renderMarker(marker string, x float64) {
	span := e.normalize(TextSpan{})
	e.checkPageBreak(span.FontSize * e.LineHeight)
	if e.useFont(span) {
		e.doc.TextAt(x, e.cursorY-span.FontSize, marker)
	}
}

func (e *Engine) renderCodeLines(lines *text.Segments, source []byte, x float64) {
	span := e.normalize(TextSpan{Font: e.MonoFont, FontSize: e.DefaultFontSize * 0.9})
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(source)), "\r\n")
		line = strings.ReplaceAll(line, "\t", "    ")
		e.checkPageBreak(span.FontSize * e.LineHeight)
		if line != "" && e.useFont(span) {
			e.doc.TextAt(x, e.cursorY-span.FontSize, line)
		}
		e.cursorY -= span.FontSize * e.LineHeight
	}
}

// markdownInline flattens inline children into styled spans.
func (e *Engine) markdownInline(node ast.Node, source []byte, base TextSpan) []TextSpan {
	var spans []TextSpan
	var walk func(n ast.Node, style TextSpan)
	walk = func(n ast.Node, style TextSpan) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Text:
				s := style
				s.Text = string(v.Segment.Value(source))
				if v.SoftLineBreak() || v.HardLineBreak() {
					s.Text += " "
				}
				spans = append(spans, s)
			case *ast.String:
				s := style
				s.Text = string(v.Value)
				spans = append(spans, s)
			case *ast.CodeSpan:
				s := style
				s.Font = e.MonoFont
				s.Text = string(v.Text(source))
				spans = append(spans, s)
			case *ast.Emphasis:
				s := style
				if v.Level >= 2 {
					s.Style.Bold = true
				} else {
					s.Style.Italic = true
				}
				walk(v, s)
			case *ast.Link:
				s := style
				s.Color = linkColor
				s.Underline = true
				walk(v, s)
			case *ast.AutoLink:
				s := style
				s.Color = linkColor
				s.Underline = true
				s.Text = string(v.URL(source))
				spans = append(spans, s)
			case *ast.Image:
				s := style
				s.Text = "[" + string(v.Text(source)) + "]"
				spans = append(spans, s)
			default:
				walk(c, style)
			}
		}
	}
	walk(node, base)
	return spans
}
