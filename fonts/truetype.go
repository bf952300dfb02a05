package fonts

import (
	"compress/zlib"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	gofont "github.com/go-text/typesetting/font"
	"golang.org/x/crypto/blake2b"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/resources"
	"github.com/floatpays/pdfkit/writer"
)

const (
	firstChar = 32
	lastChar  = 255
)

// TrueType is an embedded TrueType font addressed through WinAnsiEncoding.
type TrueType struct {
	name       string
	key        string
	data       []byte
	widths     [lastChar - firstChar + 1]int
	missing    int
	descriptor descriptor

	mu   sync.Mutex
	face *gofont.Face
}

type descriptor struct {
	flags       int
	italicAngle float64
	ascent      float64
	descent     float64
	capHeight   float64
	bbox        [4]float64
}

// LoadTrueTypeFile reads and parses a TrueType font file.
func LoadTrueTypeFile(path string) (*TrueType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadTrueType("", data)
}

// LoadTrueType parses a TrueType/OpenType font with glyf outlines and
// extracts the metrics needed for a simple font dictionary. name overrides
// the PostScript name stored in the font.
func LoadTrueType(name string, data []byte) (*TrueType, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("truetype font data is empty")
	}
	font, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse truetype: %w", err)
	}
	unitsPerEm := font.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, fmt.Errorf("invalid unitsPerEm")
	}
	buf := &sfnt.Buffer{}
	ppem := fixed.Int26_6(unitsPerEm << 6)

	baseName := strings.TrimSpace(name)
	if baseName == "" {
		if ps, _ := font.Name(buf, sfnt.NameIDPostScript); len(ps) > 0 {
			baseName = ps
		}
	}
	if baseName == "" {
		baseName = "CustomTT"
	}

	sum := blake2b.Sum256(data)
	t := &TrueType{
		name: baseName,
		key:  "truetype/" + baseName + "/" + hex.EncodeToString(sum[:16]),
		data: data,
	}
	if adv, err := font.GlyphAdvance(buf, 0, ppem, xfont.HintingNone); err == nil {
		t.missing = int(math.Round(scaleFixed(adv, unitsPerEm)))
	}
	for code := firstChar; code <= lastChar; code++ {
		t.widths[code-firstChar] = t.missing
		gi, err := font.GlyphIndex(buf, winAnsiDecode(byte(code)))
		if err != nil || gi == 0 {
			continue
		}
		adv, err := font.GlyphAdvance(buf, gi, ppem, xfont.HintingNone)
		if err != nil {
			continue
		}
		t.widths[code-firstChar] = int(math.Round(scaleFixed(adv, unitsPerEm)))
	}

	metrics, _ := font.Metrics(buf, ppem, xfont.HintingNone)
	bounds, _ := font.Bounds(buf, ppem, xfont.HintingNone)
	t.descriptor = descriptor{
		flags:       32, // Nonsymbolic
		italicAngle: italicAngle(font),
		ascent:      scaleFixed(metrics.Ascent, unitsPerEm),
		descent:     -scaleFixed(metrics.Descent, unitsPerEm),
		capHeight:   scaleFixed(metrics.CapHeight, unitsPerEm),
		// sfnt bounds are y-down.
		bbox: [4]float64{
			scaleFixed(bounds.Min.X, unitsPerEm),
			-scaleFixed(bounds.Max.Y, unitsPerEm),
			scaleFixed(bounds.Max.X, unitsPerEm),
			-scaleFixed(bounds.Min.Y, unitsPerEm),
		},
	}
	if t.descriptor.capHeight == 0 {
		t.descriptor.capHeight = t.descriptor.ascent
	}
	if t.descriptor.italicAngle != 0 {
		t.descriptor.flags |= 64
	}
	t.face = parseFace(data)
	return t, nil
}

func (t *TrueType) Name() string { return t.name }

// Key combines the name with a digest of the font file, so replacing the
// data behind a name yields a new registry entry.
func (t *TrueType) Key() string { return t.key }

func (t *TrueType) Encode(text string) []byte { return winAnsiEncode(text) }

// Width measures text with the shaper when the face parsed, falling back to
// the per-code advance table.
func (t *TrueType) Width(text string, size float64) float64 {
	t.mu.Lock()
	adv, ok := shapedAdvance(t.face, text)
	t.mu.Unlock()
	if ok {
		return adv * size / 1000
	}
	total := 0
	for _, b := range t.Encode(text) {
		if b < firstChar {
			total += t.missing
			continue
		}
		total += t.widths[int(b)-firstChar]
	}
	return float64(total) * size / 1000
}

func (t *TrueType) Producer() resources.Producer {
	return func(a resources.Allocator) (raw.Object, error) {
		compressed, err := writer.FlateEncode(t.data, zlib.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("compress font program: %w", err)
		}
		fileDict := raw.Dict().
			Put("Length1", raw.NumberInt(int64(len(t.data)))).
			Put("Filter", raw.NameLiteral("FlateDecode"))
		fileRef := a.Create(raw.NewStream(fileDict, compressed))

		d := t.descriptor
		descRef := a.Create(raw.Dict().
			Put("Type", raw.NameLiteral("FontDescriptor")).
			Put("FontName", raw.NameLiteral(t.name)).
			Put("Flags", raw.NumberInt(int64(d.flags))).
			Put("FontBBox", raw.Rect(math.Round(d.bbox[0]), math.Round(d.bbox[1]), math.Round(d.bbox[2]), math.Round(d.bbox[3]))).
			Put("ItalicAngle", raw.Num(d.italicAngle)).
			Put("Ascent", raw.Num(math.Round(d.ascent))).
			Put("Descent", raw.Num(math.Round(d.descent))).
			Put("CapHeight", raw.Num(math.Round(d.capHeight))).
			Put("StemV", raw.NumberInt(80)).
			Put("FontFile2", raw.RefTo(fileRef)))

		widths := raw.NewArray()
		for _, w := range t.widths {
			widths.Append(raw.NumberInt(int64(w)))
		}
		return raw.Dict().
			Put("Type", raw.NameLiteral("Font")).
			Put("Subtype", raw.NameLiteral("TrueType")).
			Put("BaseFont", raw.NameLiteral(t.name)).
			Put("FirstChar", raw.NumberInt(firstChar)).
			Put("LastChar", raw.NumberInt(lastChar)).
			Put("Widths", widths).
			Put("Encoding", raw.NameLiteral("WinAnsiEncoding")).
			Put("FontDescriptor", raw.RefTo(descRef)), nil
	}
}

func italicAngle(font *sfnt.Font) float64 {
	post := font.PostTable()
	if post == nil {
		return 0
	}
	return post.ItalicAngle
}

func scaleFixed(val fixed.Int26_6, unitsPerEm sfnt.Units) float64 {
	return float64(val) * 1000.0 / (64.0 * float64(unitsPerEm))
}
