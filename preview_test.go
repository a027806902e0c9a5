package retouch

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/op"
)

func TestDataURL(t *testing.T) {
	got, err := DataURL([]byte{1, 2, 3}, "png")
	if err != nil {
		t.Fatalf("DataURL() error = %v", err)
	}
	if want := "data:image/png;base64,AQID"; got != want {
		t.Errorf("DataURL() = %q, want %q", got, want)
	}
}

func TestPreviewDoesNotTouchHistory(t *testing.T) {
	e := testEngine(t)
	s, _ := loadedSession(t, e, 30, 20)

	res, err := s.Preview(t.Context(), []op.Operation{transformOp("r", op.Rotate90)}, PreviewConstraints{})
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if res.Width != 20 || res.Height != 30 {
		t.Errorf("Preview() = %dx%d, want 20x30", res.Width, res.Height)
	}
	if got := s.HistoryState(); got != (HistoryState{}) {
		t.Errorf("HistoryState() = %+v after Preview, want zero", got)
	}
	if size, _ := s.CurrentSize(); size != (op.Size{Width: 30, Height: 20}) {
		t.Errorf("CurrentSize() = %+v after Preview, want 30x20", size)
	}
}

func TestPreviewDecodes(t *testing.T) {
	e := testEngine(t)
	s, _ := loadedSession(t, e, 30, 20)

	res, err := s.Preview(t.Context(), []op.Operation{filterOp("i", op.FilterInvert, 1)}, PreviewConstraints{})
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	payload, ok := strings.CutPrefix(res.Data, "data:image/png;base64,")
	if !ok {
		t.Fatalf("Preview().Data = %.40q..., want a PNG data URL", res.Data)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("base64 decode error = %v", err)
	}
	got, _, err := image.DecodeBytes(raw)
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	r, g, b, _ := got.GetRGBA(3, 2)
	wr, wg, wb, _ := patternBuf(30, 20).GetRGBA(3, 2)
	if r != 255-wr || g != 255-wg || b != 255-wb {
		t.Errorf("pixel (3,2) = (%d,%d,%d), want inverted (%d,%d,%d)", r, g, b, 255-wr, 255-wg, 255-wb)
	}
}

func TestPreviewNeverWritesCache(t *testing.T) {
	e := testEngine(t)
	s, _ := loadedSession(t, e, 16, 16)
	seq := []op.Operation{filterOp("g", op.FilterGrayscale, 1)}
	pc := PreviewConstraints{MaxWidth: 8}

	for i := range 2 {
		res, err := s.Preview(t.Context(), seq, pc)
		if err != nil {
			t.Fatalf("Preview() error = %v", err)
		}
		if res.Cached {
			t.Errorf("Preview() call %d served from cache, want a fresh render", i)
		}
	}
	if s.cache.Load() != nil {
		t.Error("Preview() stored a cache entry")
	}
}

func TestPreviewServesCommittedCache(t *testing.T) {
	e := testEngine(t)
	s, _ := loadedSession(t, e, 16, 16)
	pc := PreviewConstraints{MaxWidth: 8}

	applied, err := s.Apply(t.Context(), filterOp("g", op.FilterGrayscale, 1), pc)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if applied.Cached {
		t.Error("Apply() result marked cached")
	}

	tests := []struct {
		name string
		pc   PreviewConstraints
		want bool
	}{
		{"same bounds", pc, true},
		{"other bounds", PreviewConstraints{MaxWidth: 4}, false},
	}
	for _, tt := range tests {
		res, err := s.Preview(t.Context(), s.Operations(), tt.pc)
		if err != nil {
			t.Fatalf("%s: Preview() error = %v", tt.name, err)
		}
		if res.Cached != tt.want {
			t.Errorf("%s: Cached = %v, want %v", tt.name, res.Cached, tt.want)
		}
	}

	cur, err := s.Current(t.Context(), pc)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if !cur.Cached || cur.Data != applied.Data {
		t.Errorf("Current() Cached = %v, want the cached apply preview", cur.Cached)
	}
}

func TestPreviewCacheKeyedBySource(t *testing.T) {
	e := testEngine(t)
	s, _ := loadedSession(t, e, 16, 16)
	pc := PreviewConstraints{}
	if _, err := s.Current(t.Context(), pc); err != nil {
		t.Fatalf("Current() error = %v", err)
	}

	// Same (empty) sequence, new source: the old entry must not match.
	if _, err := s.LoadBytes(t.Context(), pngBytes(t, 16, 16), "again.png"); err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}
	s.cache.Store(&cacheEntry{key: newCacheKey(nil, s.state.Load().src.gen-1, pc)})
	res, err := s.Preview(t.Context(), nil, pc)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if res.Cached {
		t.Error("Preview() served an entry rendered against an older source")
	}
}

func TestPreviewInvalidSequence(t *testing.T) {
	e := testEngine(t)
	s, _ := loadedSession(t, e, 20, 10)
	seq := []op.Operation{
		transformOp("r", op.Rotate90),
		cropOp("c", 0, 0, 20, 10), // 10x20 after the rotation
	}
	_, err := s.Preview(t.Context(), seq, PreviewConstraints{})
	if !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("Preview() error = %v, want ErrInvalidOperation", err)
	}
	var rerr *Error
	if errors.As(err, &rerr) && rerr.OpID != "c" {
		t.Errorf("OpID = %q, want c", rerr.OpID)
	}
}

func TestPreviewFormatOption(t *testing.T) {
	var gotFormat string
	e := testEngine(t,
		WithPreviewFormat("jpg", 70),
		WithTransport(func(encoded []byte, format string) (string, error) {
			gotFormat = format
			return "blob:" + format, nil
		}),
	)
	s, _ := loadedSession(t, e, 16, 16)
	res, err := s.Current(t.Context(), PreviewConstraints{})
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if gotFormat != image.FormatJPEG || res.Data != "blob:jpeg" || res.Format != image.FormatJPEG {
		t.Errorf("Current() = %q (%s), transport saw %q, want jpeg", res.Data, res.Format, gotFormat)
	}
	if len(res.Encoded) < 2 || res.Encoded[0] != 0xFF || res.Encoded[1] != 0xD8 {
		t.Error("Encoded does not start with a JPEG SOI marker")
	}
}

func TestPreviewTransportError(t *testing.T) {
	boom := errors.New("boom")
	e := testEngine(t, WithTransport(func([]byte, string) (string, error) { return "", boom }))
	s, _ := loadedSession(t, e, 8, 8)
	_, err := s.Apply(t.Context(), filterOp("a", op.FilterInvert, 1), PreviewConstraints{})
	if !errors.Is(err, ErrProcessing) || !errors.Is(err, boom) {
		t.Errorf("Apply() error = %v, want ErrProcessing wrapping boom", err)
	}
	if got := s.HistoryState().HistoryCount; got != 0 {
		t.Errorf("HistoryCount = %d after failed preview, want 0", got)
	}
}
