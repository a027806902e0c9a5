package render

import (
	"context"
	"testing"

	"github.com/gogpu/retouch/op"
)

func TestRotate90PixelMapping(t *testing.T) {
	base := patternBuf(3, 2)

	got, err := New(nil).Render(context.Background(), base, ops(op.Transform{Type: op.Rotate90}))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w, h := got.Bounds(); w != 2 || h != 3 {
		t.Fatalf("size = %dx%d, want 2x3", w, h)
	}

	// Clockwise: the top-left source pixel lands top-right, the
	// bottom-left lands top-left.
	tests := []struct {
		sx, sy, dx, dy int
	}{
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{2, 0, 1, 2},
		{2, 1, 0, 2},
	}
	for _, tt := range tests {
		sr, sg, _, _ := base.GetRGBA(tt.sx, tt.sy)
		dr, dg, _, _ := got.GetRGBA(tt.dx, tt.dy)
		if sr != dr || sg != dg {
			t.Errorf("src(%d,%d) -> dst(%d,%d): got (%d,%d), want (%d,%d)",
				tt.sx, tt.sy, tt.dx, tt.dy, dr, dg, sr, sg)
		}
	}
}

func TestTransformIdentities(t *testing.T) {
	base := patternBuf(7, 5)
	r90 := op.Transform{Type: op.Rotate90}
	r180 := op.Transform{Type: op.Rotate180}
	r270 := op.Transform{Type: op.Rotate270}
	fh := op.Transform{Type: op.FlipHorizontal}
	fv := op.Transform{Type: op.FlipVertical}

	tests := []struct {
		name string
		a, b []op.Operation
	}{
		{"rotate90 twice is rotate180", ops(r90, r90), ops(r180)},
		{"rotate90 four times is identity", ops(r90, r90, r90, r90), nil},
		{"rotate90 then rotate270 is identity", ops(r90, r270), nil},
		{"rotate90 three times is rotate270", ops(r90, r90, r90), ops(r270)},
		{"flip horizontal twice is identity", ops(fh, fh), nil},
		{"flip vertical twice is identity", ops(fv, fv), nil},
		{"both flips is rotate180", ops(fh, fv), ops(r180)},
	}

	p := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := p.Render(context.Background(), base, tt.a)
			if err != nil {
				t.Fatalf("Render(a): %v", err)
			}
			b, err := p.Render(context.Background(), base, tt.b)
			if err != nil {
				t.Fatalf("Render(b): %v", err)
			}
			if !a.Equal(b) {
				t.Error("results differ")
			}
		})
	}
}
