package writer

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/store"
)

type impl struct {
	interceptors []Interceptor
	cfg          Config
}

func (w *impl) SerializeObject(ref raw.ObjectRef, obj raw.Object) ([]byte, error) {
	if obj == nil {
		obj = raw.NullObj{}
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d obj\n", ref.Num, ref.Gen)
	buf.Write(serializePrimitive(obj))
	buf.WriteString("\nendobj\n")
	return buf.Bytes(), nil
}

func (w *impl) Write(ctx context.Context, out io.Writer, objects []store.IndirectObject, trailer Trailer) (int64, error) {
	header := Header(w.cfg.Version)
	body, offsets, err := w.layout(ctx, objects, int64(len(header)))
	if err != nil {
		return 0, err
	}
	xrefOffset := int64(len(header)) + int64(len(body))
	xref, err := CrossReference(objects, offsets)
	if err != nil {
		return 0, err
	}
	if trailer.Size == 0 {
		trailer.Size = len(objects) + 1
	}
	if len(trailer.ID[0]) == 0 {
		trailer.ID = FileID(w.cfg.Deterministic, header, body)
	}

	var total int64
	for _, chunk := range [][]byte{header, body, xref, TrailerBytes(trailer, xrefOffset)} {
		n, err := out.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("write pdf: %w", err)
		}
	}
	return total, nil
}

// layout serializes objects in order and records where each one starts.
func (w *impl) layout(ctx context.Context, objects []store.IndirectObject, start int64) ([]byte, map[int]int64, error) {
	var body bytes.Buffer
	offsets := make(map[int]int64, len(objects))
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		for _, ic := range w.interceptors {
			if err := ic.BeforeWrite(ctx, obj.Ref, obj.Value); err != nil {
				return nil, nil, fmt.Errorf("before write %s: %w", obj.Ref, err)
			}
		}
		serialized, err := w.SerializeObject(obj.Ref, obj.Value)
		if err != nil {
			return nil, nil, err
		}
		offsets[obj.Ref.Num] = start + int64(body.Len())
		body.Write(serialized)
		for _, ic := range w.interceptors {
			if err := ic.AfterWrite(ctx, obj.Ref, obj.Value, int64(len(serialized))); err != nil {
				return nil, nil, fmt.Errorf("after write %s: %w", obj.Ref, err)
			}
		}
	}
	return body.Bytes(), offsets, nil
}

// Header returns the file header: version line plus a binary comment so
// transports treat the file as binary.
func Header(v PDFVersion) []byte {
	if v == "" {
		v = PDF17
	}
	return []byte("%PDF-" + string(v) + "\n%\xE2\xE3\xCF\xD3\n")
}

// CrossReference builds a classic xref table for objects numbered 1..n.
// Every object must have an offset.
func CrossReference(objects []store.IndirectObject, offsets map[int]int64) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i, obj := range objects {
		if obj.Ref.Num != i+1 {
			return nil, fmt.Errorf("xref: object %s out of sequence at position %d", obj.Ref, i+1)
		}
		off, ok := offsets[obj.Ref.Num]
		if !ok {
			return nil, fmt.Errorf("xref: no offset for object %s", obj.Ref)
		}
		fmt.Fprintf(&buf, "%010d %05d n \n", off, obj.Ref.Gen)
	}
	return buf.Bytes(), nil
}

// TrailerBytes renders the trailer dictionary, startxref and EOF marker.
func TrailerBytes(t Trailer, xrefOffset int64) []byte {
	var buf bytes.Buffer
	buf.WriteString("trailer\n")
	buf.Write(serializePrimitive(buildTrailer(t)))
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes()
}
