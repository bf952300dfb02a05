package builder

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // Register decoders
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/resources"
	"github.com/floatpays/pdfkit/writer"
)

// Image is a decoded raster ready to become an image XObject.
type Image struct {
	Width            int
	Height           int
	ColorSpace       string
	BitsPerComponent int
	// Filter is the filter Data is already encoded with; empty means raw
	// samples that are flate-compressed on output.
	Filter string
	Data   []byte
	SMask  *Image
}

// ImageFromFile loads a raster image from path.
func ImageFromFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ImageFromBytes(data)
}

// ImageFromReader reads and decodes r.
func ImageFromReader(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ImageFromBytes(data)
}

// ImageFromBytes decodes an encoded image. JPEG data is embedded unchanged
// with DCTDecode; every other format is converted to 8-bit RGB with an
// optional soft mask.
func ImageFromBytes(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if format == "jpeg" {
		return &Image{
			Width:            cfg.Width,
			Height:           cfg.Height,
			ColorSpace:       jpegColorSpace(cfg.ColorModel),
			BitsPerComponent: 8,
			Filter:           "DCTDecode",
			Data:             data,
		}, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", format, err)
	}
	return FromImage(img), nil
}

func jpegColorSpace(m color.Model) string {
	switch m {
	case color.GrayModel:
		return "DeviceGray"
	case color.CMYKModel:
		return "DeviceCMYK"
	default:
		return "DeviceRGB"
	}
}

// FromImage converts a Go image to RGB samples. Transparency becomes a
// DeviceGray soft mask.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), src, bounds.Min, draw.Src)

	pixels := make([]byte, 0, w*h*3)
	alpha := make([]byte, 0, w*h)
	hasAlpha := false
	for i := 0; i < w*h; i++ {
		offset := i * 4
		pixels = append(pixels, nrgba.Pix[offset], nrgba.Pix[offset+1], nrgba.Pix[offset+2])
		a := nrgba.Pix[offset+3]
		alpha = append(alpha, a)
		if a < 255 {
			hasAlpha = true
		}
	}

	img := &Image{
		Width:            w,
		Height:           h,
		ColorSpace:       "DeviceRGB",
		BitsPerComponent: 8,
		Data:             pixels,
	}
	if hasAlpha {
		img.SMask = &Image{
			Width:            w,
			Height:           h,
			ColorSpace:       "DeviceGray",
			BitsPerComponent: 8,
			Data:             alpha,
		}
	}
	return img
}

// Producer returns the registry producer for img. The soft mask, if any, is
// allocated first so the image can reference it.
func (img *Image) Producer() resources.Producer {
	return func(a resources.Allocator) (raw.Object, error) {
		var smask raw.ObjectRef
		if img.SMask != nil {
			mask, err := img.SMask.stream(raw.ObjectRef{})
			if err != nil {
				return nil, err
			}
			smask = a.Create(mask)
		}
		return img.stream(smask)
	}
}

func (img *Image) stream(smask raw.ObjectRef) (*raw.StreamObj, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", img.Width, img.Height)
	}
	data, filter := img.Data, img.Filter
	if filter == "" {
		var err error
		if data, err = writer.FlateEncode(img.Data, zlib.BestCompression); err != nil {
			return nil, fmt.Errorf("compress image: %w", err)
		}
		filter = "FlateDecode"
	}
	dict := raw.Dict().
		Put("Type", raw.NameLiteral("XObject")).
		Put("Subtype", raw.NameLiteral("Image")).
		Put("Width", raw.NumberInt(int64(img.Width))).
		Put("Height", raw.NumberInt(int64(img.Height))).
		Put("ColorSpace", raw.NameLiteral(img.ColorSpace)).
		Put("BitsPerComponent", raw.NumberInt(int64(img.BitsPerComponent))).
		Put("Filter", raw.NameLiteral(filter))
	if img.ColorSpace == "DeviceCMYK" && img.Filter == "DCTDecode" {
		// Adobe writes inverted CMYK JPEGs.
		dict.Put("Decode", raw.NewArray(
			raw.NumberInt(1), raw.NumberInt(0), raw.NumberInt(1), raw.NumberInt(0),
			raw.NumberInt(1), raw.NumberInt(0), raw.NumberInt(1), raw.NumberInt(0)))
	}
	if !smask.IsZero() {
		dict.Put("SMask", raw.RefTo(smask))
	}
	return raw.NewStream(dict, data), nil
}
