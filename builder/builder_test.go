package builder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/floatpays/pdfkit/contentstream"
	"github.com/floatpays/pdfkit/fonts"
	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/resources"
	"github.com/floatpays/pdfkit/scripting"
	"github.com/floatpays/pdfkit/writer"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 7, 0, time.FixedZone("CET", 3600))

func newTestDoc(t *testing.T, opts ...Option) *Document {
	t.Helper()
	opts = append([]Option{WithDeterministic(fixedTime), WithCompression(false)}, opts...)
	return New(opts...)
}

func writePNG(t *testing.T, name string, w, h int, alpha uint8) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 40), G: 128, B: uint8(y * 40), A: alpha})
		}
	}
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func dictAt(t *testing.T, d *Document, ref raw.ObjectRef) *raw.DictObj {
	t.Helper()
	obj, err := d.Store().Get(ref)
	if err != nil {
		t.Fatalf("get %v: %v", ref, err)
	}
	dict, ok := obj.(*raw.DictObj)
	if !ok {
		t.Fatalf("object %v is %T, want dict", ref, obj)
	}
	return dict
}

func refAt(t *testing.T, dict *raw.DictObj, key string) raw.ObjectRef {
	t.Helper()
	v, ok := dict.Lookup(key)
	if !ok {
		t.Fatalf("missing %s", key)
	}
	ref, ok := v.(raw.RefObj)
	if !ok {
		t.Fatalf("%s is %T, want reference", key, v)
	}
	return ref.R
}

func kids(t *testing.T, d *Document) []raw.ObjectRef {
	t.Helper()
	root := dictAt(t, d, d.graph.root)
	v, ok := root.Lookup("Kids")
	if !ok {
		t.Fatalf("root has no Kids")
	}
	var out []raw.ObjectRef
	for _, item := range v.(*raw.ArrayObj).Items {
		out = append(out, item.(raw.RefObj).R)
	}
	return out
}

func pageContent(t *testing.T, d *Document, page raw.ObjectRef) string {
	t.Helper()
	obj, err := d.Store().Get(refAt(t, dictAt(t, d, page), "Contents"))
	if err != nil {
		t.Fatalf("contents: %v", err)
	}
	return string(obj.(*raw.StreamObj).Data)
}

func TestExportEndToEnd(t *testing.T) {
	d := newTestDoc(t)
	if err := d.SetFont("Helvetica", fonts.Style{}, 12); err != nil {
		t.Fatalf("set font: %v", err)
	}
	d.Text("first page")
	if err := d.AddImage(writePNG(t, "logo.png", 4, 2, 255), 100, 500, 80, 0); err != nil {
		t.Fatalf("add image: %v", err)
	}
	if err := d.AddPage(Letter); err != nil {
		t.Fatalf("add page: %v", err)
	}
	d.Text("second page")

	out, err := d.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-1.7\n")) || !bytes.HasSuffix(out, []byte("%%EOF\n")) {
		t.Fatalf("output is not framed as a PDF")
	}

	// info + font + image + root + 2*(content + page) + catalog
	if n := d.Store().Len(); n != 9 {
		t.Fatalf("object count = %d, want 9", n)
	}
	pages := kids(t, d)
	if len(pages) != 2 || pages[0].Num != 6 || pages[1].Num != 8 {
		t.Fatalf("kids = %v, want [6 0 R 8 0 R]", pages)
	}
	if _, ok := dictAt(t, d, pages[0]).Lookup("MediaBox"); ok {
		t.Fatalf("default-size page must not carry a MediaBox")
	}
	box, ok := dictAt(t, d, pages[1]).Lookup("MediaBox")
	if !ok || string(writer.Encode(box)) != "[0 0 612 792]" {
		t.Fatalf("letter page MediaBox = %v", box)
	}
	if refAt(t, dictAt(t, d, pages[1]), "Parent") != d.graph.root {
		t.Fatalf("page parent is not the tree root")
	}

	root := dictAt(t, d, d.graph.root)
	if got := string(writer.Encode(mustLookup(t, root, "Count"))); got != "2" {
		t.Fatalf("Count = %s", got)
	}
	res := mustLookup(t, root, "Resources").(*raw.DictObj)
	if got := string(writer.Encode(res)); got != "<</Font <</F1 2 0 R>>/ProcSet [/PDF /Text /ImageB /ImageC /ImageI]/XObject <</I1 3 0 R>>>>" {
		t.Fatalf("resources = %s", got)
	}
	catalog := dictAt(t, d, d.graph.catalog)
	if d.graph.catalog.Num != 9 || refAt(t, catalog, "Pages") != d.graph.root {
		t.Fatalf("catalog must be last and point at the tree root")
	}
	if !strings.Contains(pageContent(t, d, pages[0]), "/I1 Do") {
		t.Fatalf("image not drawn on first page")
	}
	// 80pt wide keeps the 2:1 aspect ratio.
	if !strings.Contains(pageContent(t, d, pages[0]), "80 0 0 40 100 500 cm") {
		t.Fatalf("image placement: %q", pageContent(t, d, pages[0]))
	}
	if !bytes.Contains(out, []byte("/Info 1 0 R")) || !bytes.Contains(out, []byte("/Root 9 0 R")) {
		t.Fatalf("trailer does not reference info and catalog")
	}
}

func mustLookup(t *testing.T, d *raw.DictObj, key string) raw.Object {
	t.Helper()
	v, ok := d.Lookup(key)
	if !ok {
		t.Fatalf("missing %s", key)
	}
	return v
}

func TestMediaBoxOnlyForOtherSizes(t *testing.T) {
	d := newTestDoc(t)
	d.AddPage(A4)
	d.AddPage(A4.Landscape())
	d.AddPage(PaperSize{Width: 595, Height: 842.5})
	if _, err := d.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	pages := kids(t, d)
	want := []bool{false, false, true, true}
	for i, ref := range pages {
		_, has := dictAt(t, d, ref).Lookup("MediaBox")
		if has != want[i] {
			t.Fatalf("page %d MediaBox present = %v, want %v", i+1, has, want[i])
		}
	}
}

func TestAddPageRejectsDegenerateSizes(t *testing.T) {
	d := newTestDoc(t)
	for _, size := range []PaperSize{
		{Width: 300},
		{Height: 300},
		{Width: -595, Height: 842},
		{Width: math.Inf(1), Height: 842},
	} {
		if err := d.AddPage(size); !errors.Is(err, ErrInvalidPageSize) {
			t.Fatalf("AddPage(%+v) = %v, want ErrInvalidPageSize", size, err)
		}
	}
	if d.PageCount() != 1 {
		t.Fatalf("pages = %d, want 1", d.PageCount())
	}
	if err := d.AddPage(PaperSize{}); err != nil {
		t.Fatalf("zero size must use the default: %v", err)
	}

	d = New(WithPageSize(PaperSize{Width: 300}))
	if got := d.Size(); !got.SameDimensions(A4) {
		t.Fatalf("half-specified default size = %+v, want A4", got)
	}
}

func TestNoImagesOmitsImageResources(t *testing.T) {
	d := newTestDoc(t)
	if _, err := d.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	res := mustLookup(t, dictAt(t, d, d.graph.root), "Resources").(*raw.DictObj)
	if _, ok := res.Lookup("XObject"); ok {
		t.Fatalf("XObject present without images")
	}
	if got := string(writer.Encode(mustLookup(t, res, "ProcSet"))); got != "[/PDF /Text]" {
		t.Fatalf("ProcSet = %s", got)
	}
}

func TestPageOrderPreserved(t *testing.T) {
	d := newTestDoc(t)
	if err := d.SetFont("Courier", fonts.Style{}, 10); err != nil {
		t.Fatalf("set font: %v", err)
	}
	for i, label := range []string{"P1", "P2", "P3"} {
		if i > 0 {
			d.AddPage(PaperSize{})
		}
		d.Text(label)
	}
	if _, err := d.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	pages := kids(t, d)
	if len(pages) != 3 {
		t.Fatalf("kids = %v", pages)
	}
	for i, ref := range pages {
		label := []string{"(P1) Tj", "(P2) Tj", "(P3) Tj"}[i]
		if !strings.Contains(pageContent(t, d, ref), label) {
			t.Fatalf("page %d content %q lacks %s", i+1, pageContent(t, d, ref), label)
		}
		if i > 0 && ref.Num <= pages[i-1].Num {
			t.Fatalf("kids not in creation order: %v", pages)
		}
	}
}

func TestPutInfo(t *testing.T) {
	d := newTestDoc(t)
	before := string(writer.Encode(dictAt(t, d, d.info)))
	if !strings.Contains(before, "/CreationDate (D:20240309140507+01'00')") {
		t.Fatalf("default info = %s", before)
	}

	err := d.PutInfo(map[InfoKey]any{InfoTitle: "ok", InfoKey("bogus_key"): "x"})
	if !errors.Is(err, ErrInvalidInfoKey) {
		t.Fatalf("expected ErrInvalidInfoKey, got %v", err)
	}
	if after := string(writer.Encode(dictAt(t, d, d.info))); after != before {
		t.Fatalf("info changed after rejected update: %s", after)
	}

	err = d.PutInfo(map[InfoKey]any{
		InfoTitle:    "Quarterly",
		InfoAuthor:   "Zoë",
		InfoModified: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("put info: %v", err)
	}
	info := dictAt(t, d, d.info)
	if got := string(writer.Encode(mustLookup(t, info, "Title"))); got != "(Quarterly)" {
		t.Fatalf("Title = %s", got)
	}
	if got := string(writer.Encode(mustLookup(t, info, "ModDate"))); got != "(D:20240310080000+00'00')" {
		t.Fatalf("ModDate = %s", got)
	}
	author := mustLookup(t, info, "Author").(raw.StringObj)
	if !author.Hex || !bytes.HasPrefix(author.Bytes, []byte{0xFE, 0xFF}) {
		t.Fatalf("non-ASCII author must be UTF-16BE: %+v", author)
	}
	if err := d.PutInfo(map[InfoKey]any{InfoSubject: 42}); err == nil {
		t.Fatalf("expected error for non-string value")
	}
}

func TestImageRegistrationIsIdempotent(t *testing.T) {
	d := newTestDoc(t)
	path := writePNG(t, "dup.png", 2, 2, 255)
	if err := d.AddImage(path, 0, 0, 10, 10); err != nil {
		t.Fatalf("first: %v", err)
	}
	rel, err := filepath.Rel(mustGetwd(t), path)
	if err != nil {
		rel = path
	}
	if err := d.AddImage(rel, 50, 50, 10, 10); err != nil {
		t.Fatalf("second: %v", err)
	}
	if d.images.Len() != 1 || d.Store().Len() != 2 {
		t.Fatalf("images = %d, objects = %d; want 1 image object", d.images.Len(), d.Store().Len())
	}
	abs, _ := filepath.Abs(path)
	first, _ := d.images.Lookup(filepath.Clean(abs))
	if first.Name != "I1" || first.Ref.Num != 2 {
		t.Fatalf("entry = %+v", first)
	}
}

func mustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return wd
}

func TestImageWithAlphaGetsSoftMask(t *testing.T) {
	d := newTestDoc(t)
	if err := d.AddImage(writePNG(t, "alpha.png", 3, 3, 100), 0, 0, 0, 0); err != nil {
		t.Fatalf("add image: %v", err)
	}
	all := d.Store().All()
	if len(all) != 3 {
		t.Fatalf("objects = %d, want info + smask + image", len(all))
	}
	img := all[2].Value.(*raw.StreamObj)
	if refAt(t, img.Dict, "SMask").Num != 2 {
		t.Fatalf("image must reference the soft mask")
	}
	if !strings.Contains(string(d.pages.Current().Content.Bytes()), "3 0 0 3 0 0 cm") {
		t.Fatalf("zero size must draw one point per pixel")
	}
}

func TestResourceLoadFailureLeavesRegistryUnchanged(t *testing.T) {
	d := newTestDoc(t)
	err := d.AddImage(filepath.Join(t.TempDir(), "missing.png"), 0, 0, 10, 10)
	if !errors.Is(err, resources.ErrResourceLoadFailed) {
		t.Fatalf("expected ErrResourceLoadFailed, got %v", err)
	}
	if err := d.AddImage(writePNG(t, "ok.png", 1, 1, 255), 0, 0, 10, 10); err != nil {
		t.Fatalf("add image: %v", err)
	}
	if names := d.images.Names(); len(names) != 1 || names[0] != "I1" {
		t.Fatalf("names = %v, want [I1]", names)
	}
	if err := d.SetFont("Wingdings", fonts.Style{}, 12); !errors.Is(err, resources.ErrResourceLoadFailed) {
		t.Fatalf("unknown font: %v", err)
	}
}

func TestExportIsCachedAndFreezesDocument(t *testing.T) {
	d := newTestDoc(t)
	if err := d.SetFont("Times", fonts.Style{Bold: true}, 11); err != nil {
		t.Fatalf("set font: %v", err)
	}
	d.Text("hello")
	first, err := d.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	objects := d.Store().Len()

	d.Text("ignored").Line(0, 0, 10, 10)
	if err := d.AddPage(PaperSize{}); !errors.Is(err, ErrFinalized) {
		t.Fatalf("AddPage after export: %v", err)
	}
	if err := d.SetFont("Courier", fonts.Style{}, 9); !errors.Is(err, ErrFinalized) {
		t.Fatalf("SetFont after export: %v", err)
	}
	if err := d.PutInfo(map[InfoKey]any{InfoTitle: "late"}); !errors.Is(err, ErrFinalized) {
		t.Fatalf("PutInfo after export: %v", err)
	}

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), first) || d.Store().Len() != objects {
		t.Fatalf("second export must re-emit the same bytes")
	}

	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := d.WriteFile(path); err != nil {
		t.Fatalf("write file: %v", err)
	}
	onDisk, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(onDisk, first) {
		t.Fatalf("file differs from export: %v", err)
	}
}

func TestTextWithoutFontFailsExport(t *testing.T) {
	d := newTestDoc(t)
	d.Text("no font")
	if _, err := d.Export(context.Background()); !errors.Is(err, ErrNoFont) {
		t.Fatalf("expected ErrNoFont, got %v", err)
	}
}

func TestUnbalancedStateFailsExport(t *testing.T) {
	d := newTestDoc(t)
	d.RestoreState()
	if _, err := d.Export(context.Background()); err == nil {
		t.Fatalf("expected error for Q without q")
	}
}

func TestDeterministicOutput(t *testing.T) {
	build := func() []byte {
		d := New(WithDeterministic(fixedTime))
		if err := d.SetFont("Helvetica", fonts.Style{Italic: true}, 14); err != nil {
			t.Fatalf("set font: %v", err)
		}
		d.Text("same").SetStrokeColor(1, 0, 0).SetLineWidth(2).Line(10, 10, 200, 10)
		out, err := d.Export(context.Background())
		if err != nil {
			t.Fatalf("export: %v", err)
		}
		return out
	}
	a, b := build(), build()
	if !bytes.Equal(a, b) {
		t.Fatalf("deterministic documents differ")
	}
	if !bytes.Contains(a, []byte("/Filter /FlateDecode")) {
		t.Fatalf("content must be compressed by default")
	}
}

func TestTrueTypeFontEmbedding(t *testing.T) {
	d := newTestDoc(t)
	if err := d.AddFontData("Body", goregular.TTF); err != nil {
		t.Fatalf("add font: %v", err)
	}
	if err := d.SetFont("Body", fonts.Style{}, 12); err != nil {
		t.Fatalf("set font: %v", err)
	}
	d.Text("embedded")
	if _, err := d.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	font := dictAt(t, d, raw.ObjectRef{Num: 4})
	if got := string(writer.Encode(mustLookup(t, font, "Subtype"))); got != "/TrueType" {
		t.Fatalf("Subtype = %s", got)
	}
	if d.TextWidth("embedded") <= 0 {
		t.Fatalf("TrueType width must be positive")
	}
	if err := d.AddFontData("Broken", []byte("nope")); !errors.Is(err, resources.ErrResourceLoadFailed) {
		t.Fatalf("expected ErrResourceLoadFailed, got %v", err)
	}
}

func TestTextWrap(t *testing.T) {
	measure := func(s string) float64 { return float64(len(s)) }
	got := WrapText("the quick brown fox\njumps", 10, measure)
	want := []string{"the quick", "brown fox", "jumps"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrap = %q, want %q", got, want)
	}

	d := newTestDoc(t)
	if err := d.SetFont("Courier", fonts.Style{}, 10); err != nil {
		t.Fatalf("set font: %v", err)
	}
	// Courier is 6pt per glyph at 10pt.
	d.TextWrap(72, 700, 60, "aaaa bbbb cccc")
	content := string(d.pages.Current().Content.Bytes())
	if strings.Count(content, "Tj") != 2 || !strings.Contains(content, "(aaaa bbbb) Tj") {
		t.Fatalf("content = %q", content)
	}
	if _, y := d.Cursor(); y != 676 {
		t.Fatalf("cursor y = %v, want 676", y)
	}
}

func TestJavaScript(t *testing.T) {
	d := newTestDoc(t)
	if err := d.AddJavaScript("bad", "function ("); !errors.Is(err, scripting.ErrInvalidScript) {
		t.Fatalf("expected ErrInvalidScript, got %v", err)
	}
	if err := d.AddJavaScript("init", "app.alert('ready');"); err != nil {
		t.Fatalf("add script: %v", err)
	}
	d.AddPage(PaperSize{})
	got, err := d.EvalJavaScript(context.Background(), "numPages + ':' + info.producer")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got != "2:pdfkit" {
		t.Fatalf("eval = %v", got)
	}
	if _, err := d.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	catalog := dictAt(t, d, d.graph.catalog)
	names := mustLookup(t, catalog, "Names").(*raw.DictObj)
	js := mustLookup(t, names, "JavaScript").(*raw.DictObj)
	arr := mustLookup(t, js, "Names").(*raw.ArrayObj)
	if arr.Len() != 2 || string(arr.Items[0].(raw.StringObj).Bytes) != "init" {
		t.Fatalf("name tree = %s", writer.Encode(arr))
	}
}

func TestAccumulatorOrder(t *testing.T) {
	a := NewAccumulator(PaperSize{})
	a.Mutate(func(p *Page) *Page { p.CursorY = 1; return p })
	a.StartPage(A5)
	a.StartPage(Letter)
	a.Mutate(func(p *Page) *Page { return &Page{Size: Legal} })
	pages := a.Pages()
	if len(pages) != 3 || a.Len() != 3 {
		t.Fatalf("pages = %d", len(pages))
	}
	if pages[0].CursorY != 1 || pages[1].Size != A5 || pages[2].Size != Legal {
		t.Fatalf("unexpected order: %+v %+v %+v", pages[0], pages[1], pages[2])
	}
	if a.Current() != pages[2] {
		t.Fatalf("current page must be last")
	}
}

func TestLookupPaperSize(t *testing.T) {
	if s, ok := LookupPaperSize("letter"); !ok || s != Letter {
		t.Fatalf("letter = %+v %v", s, ok)
	}
	if s, ok := LookupPaperSize("A4-landscape"); !ok || s.Width != 842 || s.Height != 595 {
		t.Fatalf("A4-landscape = %+v", s)
	}
	if _, ok := LookupPaperSize("B5"); ok {
		t.Fatalf("B5 is not a known size")
	}
}

func fontDictOf(t *testing.T, d *Document, name string) *raw.DictObj {
	t.Helper()
	ref, ok := d.fonts.All()[name]
	if !ok {
		t.Fatalf("font %s not registered", name)
	}
	return dictAt(t, d, ref)
}

func TestAddedFontCannotShadowStandardFont(t *testing.T) {
	d := newTestDoc(t)
	if err := d.SetFont("Helvetica", fonts.Style{}, 12); err != nil {
		t.Fatalf("set font: %v", err)
	}
	if err := d.AddFontData("Helvetica", goregular.TTF); !errors.Is(err, ErrReservedFontName) {
		t.Fatalf("AddFontData(Helvetica) = %v, want ErrReservedFontName", err)
	}
	if err := d.AddFontData("times-bold", goregular.TTF); !errors.Is(err, ErrReservedFontName) {
		t.Fatalf("AddFontData(times-bold) = %v, want ErrReservedFontName", err)
	}
	if err := d.SetFont("Helvetica", fonts.Style{}, 12); err != nil {
		t.Fatalf("set font: %v", err)
	}
	if _, ok := d.font.face.(*fonts.Standard); !ok {
		t.Fatalf("selected face is %T, want the standard font", d.font.face)
	}
	if got := d.fonts.Len(); got != 1 {
		t.Fatalf("registered fonts = %d, want 1", got)
	}
}

func TestReplacedFontDataGetsItsOwnResource(t *testing.T) {
	d := newTestDoc(t)
	if err := d.AddFontData("Body", goregular.TTF); err != nil {
		t.Fatalf("add regular: %v", err)
	}
	if err := d.SetFont("Body", fonts.Style{}, 12); err != nil {
		t.Fatalf("set font: %v", err)
	}
	d.TextAt(50, 700, "regular")
	regularWidth := d.TextWidth("regular")

	if err := d.AddFontData("Body", gobold.TTF); err != nil {
		t.Fatalf("add bold: %v", err)
	}
	if err := d.SetFont("Body", fonts.Style{}, 12); err != nil {
		t.Fatalf("set font: %v", err)
	}
	d.TextAt(50, 680, "regular")
	if d.TextWidth("regular") == regularWidth {
		t.Fatalf("measurement still uses the first font")
	}
	if _, err := d.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}

	if names := d.fonts.Names(); len(names) != 2 || names[0] != "F1" || names[1] != "F2" {
		t.Fatalf("font resources = %v, want [F1 F2]", names)
	}
	desc1 := refAt(t, fontDictOf(t, d, "F1"), "FontDescriptor")
	desc2 := refAt(t, fontDictOf(t, d, "F2"), "FontDescriptor")
	file1 := refAt(t, dictAt(t, d, desc1), "FontFile2")
	file2 := refAt(t, dictAt(t, d, desc2), "FontFile2")
	if file1 == file2 {
		t.Fatalf("both resources embed font program %v", file1)
	}
	content := pageContent(t, d, kids(t, d)[0])
	if !strings.Contains(content, "/F1 12 Tf") || !strings.Contains(content, "/F2 12 Tf") {
		t.Fatalf("page does not draw with both fonts:\n%s", content)
	}
}

func TestFailedImageLeavesNoObjects(t *testing.T) {
	d := newTestDoc(t)
	before := d.Store().Len()
	broken := &Image{
		ColorSpace:       "DeviceRGB",
		BitsPerComponent: 8,
		SMask:            &Image{Width: 1, Height: 1, ColorSpace: "DeviceGray", BitsPerComponent: 8, Data: []byte{255}},
	}
	err := d.AddImageData("broken", broken, 0, 0, 10, 10)
	if !errors.Is(err, resources.ErrResourceLoadFailed) {
		t.Fatalf("err = %v, want ErrResourceLoadFailed", err)
	}
	if got := d.Store().Len(); got != before {
		t.Fatalf("store grew from %d to %d on failed load", before, got)
	}
	if d.images.Len() != 0 {
		t.Fatalf("failed image registered")
	}
}

func TestDrawPathPaintModes(t *testing.T) {
	d := newTestDoc(t)
	var tri contentstream.Path
	tri.MoveTo(0, 0).LineTo(10, 0).LineTo(5, 8).Close()

	d.DrawPath(&tri, true, false).
		DrawPath(&tri, false, true).
		DrawPath(&tri, true, true).
		DrawPath(&tri, false, false).
		DrawPath(&contentstream.Path{}, true, true).
		DrawPath(nil, true, true)

	got := string(d.pages.Current().Content.Bytes())
	outline := "0 0 m\n10 0 l\n5 8 l\nh\n"
	want := outline + "f\n" + outline + "S\n" + outline + "B\n" + outline + "n\n"
	if got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
	if err := d.Err(); err != nil {
		t.Fatalf("err: %v", err)
	}
}

func TestTextRenderMode(t *testing.T) {
	d := newTestDoc(t)
	if err := d.SetFont("Helvetica", fonts.Style{}, 10); err != nil {
		t.Fatalf("set font: %v", err)
	}
	d.SaveState().
		SetTextRenderMode(contentstream.RenderStroke).
		TextAt(10, 10, "outline").
		RestoreState()
	content := string(d.pages.Current().Content.Bytes())
	if !strings.Contains(content, "q\n1 Tr\nBT\n") {
		t.Fatalf("render mode not set before text:\n%s", content)
	}

	d.SetTextRenderMode(contentstream.TextRenderMode(5))
	if _, err := d.Export(context.Background()); err == nil {
		t.Fatalf("clip render mode must fail export")
	}
}
