package writer

import (
	"context"
	"io"

	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/store"
)

type PDFVersion string

const (
	PDF14 PDFVersion = "1.4"
	PDF17 PDFVersion = "1.7"
)

// Config controls file framing. Streams arrive already encoded: producers
// and the finalizer call FlateEncode and set /Filter themselves.
type Config struct {
	Version       PDFVersion
	Deterministic bool
}

// Trailer carries what the document supplies for the trailer dictionary.
// Size is derived from the object list when zero; ID is derived from the
// object bodies when empty.
type Trailer struct {
	Size int
	Root raw.ObjectRef
	Info raw.ObjectRef
	ID   [2][]byte
}

type Writer interface {
	// Write emits header, objects (in the given order), cross-reference
	// table and trailer.
	Write(ctx context.Context, out io.Writer, objects []store.IndirectObject, trailer Trailer) (int64, error)
	SerializeObject(ref raw.ObjectRef, obj raw.Object) ([]byte, error)
}

type Interceptor interface {
	BeforeWrite(ctx context.Context, ref raw.ObjectRef, obj raw.Object) error
	AfterWrite(ctx context.Context, ref raw.ObjectRef, obj raw.Object, bytesWritten int64) error
}

type WriterBuilder struct {
	interceptors []Interceptor
	cfg          Config
}

func (b *WriterBuilder) WithInterceptor(i Interceptor) *WriterBuilder {
	b.interceptors = append(b.interceptors, i)
	return b
}

func (b *WriterBuilder) WithConfig(cfg Config) *WriterBuilder {
	b.cfg = cfg
	return b
}

func (b *WriterBuilder) Build() Writer { return &impl{interceptors: b.interceptors, cfg: b.cfg} }
