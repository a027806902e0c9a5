package render

import (
	"fmt"

	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/op"
)

// applyTransform remaps pixels losslessly. Rotations are clockwise.
func (p *Pipeline) applyTransform(src *image.Buf, t op.TransformType) (*image.Buf, error) {
	w, h := src.Bounds()

	// srcAt maps a destination pixel to its source pixel.
	var srcAt func(dx, dy int) (int, int)
	dw, dh := w, h
	switch t {
	case op.Rotate90:
		dw, dh = h, w
		srcAt = func(dx, dy int) (int, int) { return dy, h - 1 - dx }
	case op.Rotate180:
		srcAt = func(dx, dy int) (int, int) { return w - 1 - dx, h - 1 - dy }
	case op.Rotate270:
		dw, dh = h, w
		srcAt = func(dx, dy int) (int, int) { return w - 1 - dy, dx }
	case op.FlipHorizontal:
		srcAt = func(dx, dy int) (int, int) { return w - 1 - dx, dy }
	case op.FlipVertical:
		dst := p.bufs.Get(w, h)
		p.workers.Rows(h, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				copy(dst.RowBytes(y), src.RowBytes(h-1-y))
			}
		})
		return dst, nil
	default:
		return nil, fmt.Errorf("%w: transform %q", ErrUnsupported, t)
	}

	dst := p.bufs.Get(dw, dh)
	srcData, stride := src.Data(), src.Stride()
	p.workers.Rows(dh, func(y0, y1 int) {
		for dy := y0; dy < y1; dy++ {
			row := dst.RowBytes(dy)
			for dx := range dw {
				sx, sy := srcAt(dx, dy)
				s := sy*stride + sx*image.BytesPerPixel
				copy(row[dx*4:dx*4+4], srcData[s:s+4])
			}
		}
	})
	return dst, nil
}
