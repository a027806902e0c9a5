package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the image format is not supported.
	ErrUnsupportedFormat = errors.New("image: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("image: empty data")
)

// Encoder format names. Decoding additionally accepts gif, bmp and tiff.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)

// DefaultJPEGQuality is used when no quality is requested.
const DefaultJPEGQuality = 90

// ParseFormat normalizes an encoder format name ("jpg" becomes "jpeg").
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: jpeg, png, webp)", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath derives an encoder format from a file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// IsLossy reports whether quality applies to the format.
func IsLossy(format string) bool {
	return format == FormatJPEG
}

// DecodeConfig reads only the header: dimensions and format name.
func DecodeConfig(r io.Reader) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", wrapDecodeErr(err)
	}
	return cfg, format, nil
}

// Decode decodes an image from the given reader, auto-detecting the format.
func Decode(r io.Reader) (*Buf, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", wrapDecodeErr(err)
	}
	buf, err := FromStdImage(img)
	if err != nil {
		return nil, "", fmt.Errorf("image: decode %s: %w", format, err)
	}
	return buf, format, nil
}

// DecodeBytes decodes an in-memory image, auto-detecting the format.
func DecodeBytes(data []byte) (*Buf, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

func wrapDecodeErr(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return fmt.Errorf("image: decode: %w", err)
}

// Encode writes b to w in the given format. Quality (1-100) applies to JPEG
// only; out-of-range values are clamped and 0 selects DefaultJPEGQuality.
func Encode(w io.Writer, b *Buf, format string, quality int) error {
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}
	img := b.NRGBA()

	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("image: encode PNG: %w", err)
		}
	case FormatJPEG:
		if quality == 0 {
			quality = DefaultJPEGQuality
		}
		quality = min(max(quality, 1), 100)
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("image: encode JPEG: %w", err)
		}
	case FormatWebP:
		if err := nativewebp.Encode(w, img, &nativewebp.Options{}); err != nil {
			return fmt.Errorf("image: encode WebP: %w", err)
		}
	}
	return nil
}

// EncodeToBytes encodes b and returns the bytes.
func EncodeToBytes(b *Buf, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b, format, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NRGBA returns a standard library view of the buffer. The view shares
// pixel memory with b and must be treated as read-only.
func (b *Buf) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.data,
		Stride: b.stride,
		Rect:   image.Rect(0, 0, b.width, b.height),
	}
}

// FromStdImage converts a standard library image into a Buf. Images with
// an empty bounds rectangle yield ErrInvalidDimensions.
func FromStdImage(img image.Image) (*Buf, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	buf, err := NewBuf(width, height)
	if err != nil {
		return nil, err
	}

	// Fast path: already straight-alpha RGBA.
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range height {
			start := (y+bounds.Min.Y-nrgba.Rect.Min.Y)*nrgba.Stride + (bounds.Min.X-nrgba.Rect.Min.X)*4
			copy(buf.RowBytes(y), nrgba.Pix[start:start+width*4])
		}
		return buf, nil
	}

	// Everything else goes through premultiplied RGBA, where image/draw has
	// fast paths for the decoders' native types (YCbCr, Gray, Paletted).
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
		bounds = rgba.Rect
	}
	for y := range height {
		src := rgba.Pix[(y+bounds.Min.Y-rgba.Rect.Min.Y)*rgba.Stride+(bounds.Min.X-rgba.Rect.Min.X)*4:]
		dst := buf.RowBytes(y)
		for x := 0; x < width*4; x += 4 {
			a := src[x+3]
			switch a {
			case 0xff:
				copy(dst[x:x+4], src[x:x+4])
			case 0:
				// transparent: leave zeroed
			default:
				c := color.NRGBAModel.Convert(color.RGBA{R: src[x], G: src[x+1], B: src[x+2], A: a}).(color.NRGBA)
				dst[x], dst[x+1], dst[x+2], dst[x+3] = c.R, c.G, c.B, c.A
			}
		}
	}
	return buf, nil
}
