package builder

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/observability"
	"github.com/floatpays/pdfkit/writer"
)

// graph records the structural objects built by the first export.
type graph struct {
	root    raw.ObjectRef
	catalog raw.ObjectRef
	pages   []raw.ObjectRef
}

// Export finalizes the document and returns the PDF bytes. The object graph
// is built once; later calls return the same bytes.
func (d *Document) Export(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.out != nil {
		return d.out, nil
	}
	if d.err != nil {
		return nil, d.err
	}

	ctx, span := d.cfg.Tracer.StartSpan(ctx, observability.MetricFinalizeTime)
	defer span.Finish()
	start := time.Now()

	if d.graph == nil {
		g, err := d.buildGraph()
		if err != nil {
			span.SetError(err)
			return nil, fmt.Errorf("finalize: %w", err)
		}
		d.graph = g
		d.finalized = true
	}

	objects := d.store.All()
	w := (&writer.WriterBuilder{}).WithConfig(writer.Config{
		Version:       d.cfg.Version,
		Deterministic: d.cfg.Deterministic,
	}).Build()
	var buf bytes.Buffer
	wctx, wspan := d.cfg.Tracer.StartSpan(ctx, observability.MetricWriteTime)
	n, err := w.Write(wctx, &buf, objects, writer.Trailer{
		Root: d.graph.catalog,
		Info: d.info,
	})
	wspan.Finish()
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("finalize: %w", err)
	}
	d.out = buf.Bytes()

	span.SetTag(observability.MetricObjectCount, len(objects))
	span.SetTag(observability.MetricPageCount, len(d.graph.pages))
	span.SetTag(observability.MetricWrittenBytes, n)
	d.log.Info("document exported",
		observability.Int("objects", len(objects)),
		observability.Int("pages", len(d.graph.pages)),
		observability.Int64("bytes", n),
		observability.Duration("elapsed", time.Since(start)))
	return d.out, nil
}

// WriteTo exports the document into w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	out, err := d.Export(context.Background())
	if err != nil {
		return 0, err
	}
	n, err := w.Write(out)
	return int64(n), err
}

// WriteFile exports the document to path.
func (d *Document) WriteFile(path string) error {
	out, err := d.Export(context.Background())
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// buildGraph creates the page tree, page objects and catalog. The tree root
// is created first so pages can name it as Parent; its Kids are filled in
// once every page has a number.
func (d *Document) buildGraph() (*graph, error) {
	pages := d.pages.Pages()
	contents := make([][]byte, len(pages))
	for i, p := range pages {
		if err := p.Content.Validate(); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		data := p.Content.Bytes()
		if d.cfg.Compress {
			var err error
			if data, err = writer.FlateEncode(data, zlib.DefaultCompression); err != nil {
				return nil, fmt.Errorf("page %d: %w", i+1, err)
			}
		}
		contents[i] = data
	}

	def := d.cfg.PageSize
	g := &graph{}
	g.root = d.store.Create(raw.Dict().
		Put("Type", raw.NameLiteral("Pages")).
		Put("Count", raw.NumberInt(int64(len(pages)))).
		Put("MediaBox", raw.Rect(0, 0, def.Width, def.Height)).
		Put("Resources", d.resourceDict()))

	for i, p := range pages {
		stream := raw.NewStream(nil, contents[i])
		if d.cfg.Compress {
			stream.Dict.Put("Filter", raw.NameLiteral("FlateDecode"))
		}
		content := d.store.Create(stream)
		dict := raw.Dict().
			Put("Type", raw.NameLiteral("Page")).
			Put("Parent", raw.RefTo(g.root)).
			Put("Contents", raw.RefTo(content))
		if size := p.EffectiveSize(def); !size.SameDimensions(def) {
			dict.Put("MediaBox", raw.Rect(0, 0, size.Width, size.Height))
		}
		g.pages = append(g.pages, d.store.Create(dict))
	}

	err := d.store.Update(g.root, func(obj raw.Object) raw.Object {
		kids := raw.NewArray()
		for _, ref := range g.pages {
			kids.Append(raw.RefTo(ref))
		}
		return obj.(*raw.DictObj).Clone().Put("Kids", kids)
	})
	if err != nil {
		return nil, err
	}

	catalog := raw.Dict().
		Put("Type", raw.NameLiteral("Catalog")).
		Put("Pages", raw.RefTo(g.root))
	if len(d.scripts) > 0 {
		catalog.Put("Names", raw.Dict().Put("JavaScript", d.javaScriptTree()))
	}
	g.catalog = d.store.Create(catalog)
	return g, nil
}

// resourceDict is shared by every page through the tree root. XObject and
// the image procedure sets appear only when an image was registered.
func (d *Document) resourceDict() *raw.DictObj {
	procs := []string{"PDF", "Text"}
	res := raw.Dict().Put("Font", d.fonts.Dict())
	if d.images.Len() > 0 {
		procs = append(procs, "ImageB", "ImageC", "ImageI")
		res.Put("XObject", d.images.Dict())
	}
	return res.Put("ProcSet", raw.Names(procs...))
}

// javaScriptTree builds a flat name tree of JavaScript actions, one object
// per script, keyed in sorted order.
func (d *Document) javaScriptTree() *raw.DictObj {
	scripts := make([]script, len(d.scripts))
	for i, s := range d.scripts {
		if s.name == "" {
			s.name = fmt.Sprintf("script%d", i+1)
		}
		scripts[i] = s
	}
	sort.SliceStable(scripts, func(i, j int) bool { return scripts[i].name < scripts[j].name })

	names := raw.NewArray()
	for _, s := range scripts {
		action := d.store.Create(raw.Dict().
			Put("Type", raw.NameLiteral("Action")).
			Put("S", raw.NameLiteral("JavaScript")).
			Put("JS", TextString(s.source)))
		names.Append(TextString(s.name))
		names.Append(raw.RefTo(action))
	}
	return raw.Dict().Put("Names", names)
}
