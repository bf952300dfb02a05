package contentstream

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/writer"
)

// Operation is one content stream operator with its operands.
type Operation struct {
	Operator string
	Operands []raw.Object
}

// Stream accumulates the operations of a page. Every method appends and
// returns the stream so calls can be chained.
type Stream struct {
	ops       []Operation
	saveDepth int
	inText    bool
	err       error
}

// Op appends an arbitrary operator.
func (s *Stream) Op(operator string, operands ...raw.Object) *Stream {
	s.ops = append(s.ops, Operation{Operator: operator, Operands: operands})
	return s
}

func (s *Stream) Operations() []Operation { return s.ops }
func (s *Stream) Len() int                { return len(s.ops) }

// Err reports the first nesting error (Q without q, BT inside BT, ...).
func (s *Stream) Err() error { return s.err }

func (s *Stream) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Graphics state.

func (s *Stream) Save() *Stream {
	s.saveDepth++
	return s.Op("q")
}

func (s *Stream) Restore() *Stream {
	if s.saveDepth == 0 {
		s.fail(errors.New("state stack empty"))
		return s
	}
	s.saveDepth--
	return s.Op("Q")
}

func (s *Stream) Transform(a, b, c, d, e, f float64) *Stream {
	return s.Op("cm", num(a), num(b), num(c), num(d), num(e), num(f))
}

func (s *Stream) SetLineWidth(w float64) *Stream { return s.Op("w", num(w)) }

func (s *Stream) SetLineCap(c LineCap) *Stream {
	if !c.valid() {
		s.fail(fmt.Errorf("line cap %d out of range", c))
		return s
	}
	return s.Op("J", raw.NumberInt(int64(c)))
}

func (s *Stream) SetLineJoin(j LineJoin) *Stream {
	if !j.valid() {
		s.fail(fmt.Errorf("line join %d out of range", j))
		return s
	}
	return s.Op("j", raw.NumberInt(int64(j)))
}

func (s *Stream) SetDash(pattern []float64, phase float64) *Stream {
	arr := raw.NewArray()
	for _, p := range pattern {
		arr.Append(num(p))
	}
	return s.Op("d", arr, num(phase))
}

func (s *Stream) SetFillRGB(r, g, b float64) *Stream   { return s.Op("rg", num(r), num(g), num(b)) }
func (s *Stream) SetStrokeRGB(r, g, b float64) *Stream { return s.Op("RG", num(r), num(g), num(b)) }
func (s *Stream) SetFillGray(g float64) *Stream        { return s.Op("g", num(g)) }
func (s *Stream) SetStrokeGray(g float64) *Stream      { return s.Op("G", num(g)) }

// Paths.

func (s *Stream) MoveTo(x, y float64) *Stream { return s.Op("m", num(x), num(y)) }
func (s *Stream) LineTo(x, y float64) *Stream { return s.Op("l", num(x), num(y)) }
func (s *Stream) CurveTo(x1, y1, x2, y2, x3, y3 float64) *Stream {
	return s.Op("c", num(x1), num(y1), num(x2), num(y2), num(x3), num(y3))
}
func (s *Stream) Rectangle(x, y, w, h float64) *Stream {
	return s.Op("re", num(x), num(y), num(w), num(h))
}
func (s *Stream) ClosePath() *Stream  { return s.Op("h") }
func (s *Stream) Stroke() *Stream     { return s.Op("S") }
func (s *Stream) Fill() *Stream       { return s.Op("f") }
func (s *Stream) FillStroke() *Stream { return s.Op("B") }
func (s *Stream) EndPath() *Stream    { return s.Op("n") }

// AppendPath emits the segments of p without painting it.
func (s *Stream) AppendPath(p *Path) *Stream {
	if p.Empty() {
		return s
	}
	for _, seg := range p.segs {
		operands := make([]raw.Object, len(seg.args))
		for i, a := range seg.args {
			operands[i] = num(a)
		}
		s.Op(seg.op, operands...)
	}
	return s
}

// Text.

func (s *Stream) BeginText() *Stream {
	if s.inText {
		s.fail(errors.New("nested text object"))
		return s
	}
	s.inText = true
	return s.Op("BT")
}

func (s *Stream) EndText() *Stream {
	if !s.inText {
		s.fail(errors.New("ET outside text object"))
		return s
	}
	s.inText = false
	return s.Op("ET")
}

func (s *Stream) SetFont(name string, size float64) *Stream {
	return s.Op("Tf", raw.NameLiteral(name), num(size))
}
func (s *Stream) SetLeading(l float64) *Stream     { return s.Op("TL", num(l)) }
func (s *Stream) MoveText(x, y float64) *Stream    { return s.Op("Td", num(x), num(y)) }
func (s *Stream) NextLine() *Stream                { return s.Op("T*") }
func (s *Stream) ShowText(text []byte) *Stream     { return s.Op("Tj", raw.Str(text)) }
func (s *Stream) SetCharSpacing(v float64) *Stream { return s.Op("Tc", num(v)) }
func (s *Stream) SetWordSpacing(v float64) *Stream { return s.Op("Tw", num(v)) }

// SetRenderMode sets the text rendering mode; it applies to text objects
// that follow until changed or restored with Q.
func (s *Stream) SetRenderMode(m TextRenderMode) *Stream {
	if !m.valid() {
		s.fail(fmt.Errorf("text render mode %d out of range", m))
		return s
	}
	return s.Op("Tr", raw.NumberInt(int64(m)))
}

// XObjects.

func (s *Stream) DrawXObject(name string) *Stream { return s.Op("Do", raw.NameLiteral(name)) }

// Bytes encodes the operations, one per line.
func (s *Stream) Bytes() []byte {
	var buf bytes.Buffer
	for _, op := range s.ops {
		for _, operand := range op.Operands {
			buf.Write(writer.Encode(operand))
			buf.WriteByte(' ')
		}
		buf.WriteString(op.Operator)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Validate reports nesting errors and unterminated q or BT blocks.
func (s *Stream) Validate() error {
	if s.err != nil {
		return s.err
	}
	if s.inText {
		return errors.New("unterminated text object")
	}
	if s.saveDepth != 0 {
		return fmt.Errorf("%d unbalanced graphics state saves", s.saveDepth)
	}
	return nil
}

func num(f float64) raw.NumberObj { return raw.Num(f) }
