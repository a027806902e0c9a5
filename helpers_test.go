package retouch

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/op"
)

// patternBuf creates an opaque buffer with no symmetry, so transforms are
// distinguishable.
func patternBuf(w, h int) *image.Buf {
	buf := image.MustNewBuf(w, h)
	for y := range h {
		for x := range w {
			_ = buf.SetRGBA(x, y, uint8(x*7), uint8(y*13), uint8((x+y)*5), 255)
		}
	}
	return buf
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	data, err := image.EncodeToBytes(patternBuf(w, h), image.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeToBytes() error = %v", err)
	}
	return data
}

// writePNG writes a pattern PNG into a fresh temp dir and returns its path.
func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.png")
	if err := os.WriteFile(path, pngBytes(t, w, h), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func readImage(t *testing.T, path string) *image.Buf {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open(%s) error = %v", path, err)
	}
	defer f.Close()
	buf, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("Decode(%s) error = %v", path, err)
	}
	return buf
}

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := New(append([]Option{WithWorkers(2)}, opts...)...)
	t.Cleanup(e.Close)
	return e
}

// loadedSession returns a session holding a w×h pattern image loaded from
// disk.
func loadedSession(t *testing.T, e *Engine, w, h int) (*Session, string) {
	t.Helper()
	path := writePNG(t, w, h)
	s := e.NewSession()
	if _, err := s.Load(t.Context(), path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s, path
}

func filterOp(id string, ft op.FilterType, intensity float64) op.Operation {
	return op.New(id, op.Filter{Type: ft, Intensity: intensity})
}

func brightnessOp(id string, v float64) op.Operation {
	return op.New(id, op.Adjustment{Brightness: op.Float(v)})
}

func transformOp(id string, tt op.TransformType) op.Operation {
	return op.New(id, op.Transform{Type: tt})
}

func cropOp(id string, x, y, w, h int) op.Operation {
	return op.New(id, op.Crop{X: x, Y: y, Width: w, Height: h})
}

func opIDs(ops []op.Operation) []string {
	ids := make([]string, len(ops))
	for i, o := range ops {
		ids[i] = o.ID
	}
	return ids
}

// zeroWidthBMP is a 24-bit BMP header declaring a 0x1 image.
func zeroWidthBMP() []byte {
	b := make([]byte, 54)
	copy(b, "BM")
	binary.LittleEndian.PutUint32(b[2:], 54)
	binary.LittleEndian.PutUint32(b[10:], 54)
	binary.LittleEndian.PutUint32(b[14:], 40)
	binary.LittleEndian.PutUint32(b[18:], 0)
	binary.LittleEndian.PutUint32(b[22:], 1)
	binary.LittleEndian.PutUint16(b[26:], 1)
	binary.LittleEndian.PutUint16(b[28:], 24)
	return b
}
