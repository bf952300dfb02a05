package builder

import (
	"bytes"
	"context"

	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/observability"
	"github.com/floatpays/pdfkit/scripting"
)

// AddJavaScript adds a document-level script, run by viewers when the
// document opens. The source is compiled first so syntax errors surface here.
func (d *Document) AddJavaScript(name, source string) error {
	if err := scripting.Validate(name, source); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return ErrFinalized
	}
	d.scripts = append(d.scripts, script{name: name, source: source})
	return nil
}

// EvalJavaScript runs source against a read-only view of the document
// (numPages, info.*, app.alert) and returns its completion value. Alerts are
// logged. Nothing is embedded.
func (d *Document) EvalJavaScript(ctx context.Context, source string) (interface{}, error) {
	engine := scripting.NewEngine()
	if err := engine.RegisterDOM(documentDOM{d}); err != nil {
		return nil, err
	}
	return engine.Execute(ctx, source)
}

type documentDOM struct{ d *Document }

func (v documentDOM) NumPages() int { return v.d.PageCount() }

func (v documentDOM) Info(key string) string {
	obj, err := v.d.store.Get(v.d.info)
	if err != nil {
		return ""
	}
	dict, ok := obj.(*raw.DictObj)
	if !ok {
		return ""
	}
	val, ok := dict.Lookup(key)
	if !ok {
		return ""
	}
	str, ok := val.(raw.StringObj)
	if !ok {
		return ""
	}
	return decodeTextString(str.Bytes)
}

func (v documentDOM) Alert(message string) {
	v.d.log.Info("script alert", observability.String("message", message))
}

// decodeTextString reverses TextString.
func decodeTextString(b []byte) string {
	if !bytes.HasPrefix(b, []byte{0xFE, 0xFF}) {
		return string(b)
	}
	out, err := utf16BE.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
