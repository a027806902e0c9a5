package retouch

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/op"
)

// Transport turns an encoded preview into the string handed to callers,
// for example a data URL or a reference into a blob store.
type Transport func(encoded []byte, format string) (string, error)

// DataURL is the default Transport: "data:image/<format>;base64,<data>".
func DataURL(encoded []byte, format string) (string, error) {
	return fmt.Sprintf("data:image/%s;base64,%s", format, base64.StdEncoding.EncodeToString(encoded)), nil
}

// PreviewConstraints bounds the preview size. Zero leaves an axis
// unbounded. Previews keep the aspect ratio and are never upscaled.
type PreviewConstraints struct {
	MaxWidth  int `json:"max_width,omitempty"`
	MaxHeight int `json:"max_height,omitempty"`
}

// PreviewResult is an encoded preview.
type PreviewResult struct {
	// Data is the transport-encoded preview.
	Data string `json:"preview"`

	// Width and Height are the preview dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the preview codec.
	Format string `json:"format"`

	// Cached reports that the preview was served from the cache.
	Cached bool `json:"cached"`

	// Encoded holds the codec output before transport encoding.
	Encoded []byte `json:"-"`
}

// cacheKey identifies a preview: the sequence it was rendered from, the
// source generation and the requested bounds.
type cacheKey struct {
	hash    uint64
	n       int
	gen     uint64
	bounded PreviewConstraints
}

type cacheEntry struct {
	key    cacheKey
	result PreviewResult
}

func newCacheKey(ops []op.Operation, gen uint64, pc PreviewConstraints) cacheKey {
	return cacheKey{hash: op.Hash(ops), n: len(ops), gen: gen, bounded: pc}
}

// Preview renders ops against the original without touching the history
// or the current image. A cached preview of the same sequence and bounds
// is served when present; Preview never writes the cache.
func (s *Session) Preview(ctx context.Context, ops []op.Operation, pc PreviewConstraints) (PreviewResult, error) {
	st := s.state.Load()
	if st == nil {
		return PreviewResult{}, stateError("preview", ErrNoImage)
	}
	if err := op.ValidateSequence(ops, st.src.meta.Size()); err != nil {
		return PreviewResult{}, invalidOp("preview", validationOpID(err), err)
	}

	key := newCacheKey(ops, st.src.gen, pc)
	if res, ok := s.cached(key); ok {
		return res, nil
	}
	img, err := s.engine.render(ctx, "preview", st.src.img, ops)
	if err != nil {
		return PreviewResult{}, err
	}
	return s.encodePreview("preview", img, pc)
}

// Current returns a preview of the committed state, from the cache when
// possible.
func (s *Session) Current(ctx context.Context, pc PreviewConstraints) (PreviewResult, error) {
	st := s.state.Load()
	if st == nil {
		return PreviewResult{}, stateError("current", ErrNoImage)
	}
	return s.preview(ctx, "current", st, pc, true)
}

// preview downsamples and encodes the committed image of st. With store
// set the result replaces the cache entry.
func (s *Session) preview(ctx context.Context, call string, st *state, pc PreviewConstraints, store bool) (PreviewResult, error) {
	key := newCacheKey(st.applied, st.src.gen, pc)
	if res, ok := s.cached(key); ok {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return PreviewResult{}, processingError(call, err)
	}
	res, err := s.encodePreview(call, st.current, pc)
	if err != nil {
		return PreviewResult{}, err
	}
	if store {
		s.cache.Store(&cacheEntry{key: key, result: res})
	}
	return res, nil
}

func (s *Session) cached(key cacheKey) (PreviewResult, bool) {
	e := s.cache.Load()
	if e == nil || e.key != key {
		previewCacheTotal.WithLabelValues("miss").Inc()
		return PreviewResult{}, false
	}
	previewCacheTotal.WithLabelValues("hit").Inc()
	res := e.result
	res.Cached = true
	return res, true
}

func (s *Session) encodePreview(call string, img *image.Buf, pc PreviewConstraints) (PreviewResult, error) {
	opts := &s.engine.opts
	small, err := image.ResizeToFit(img, pc.MaxWidth, pc.MaxHeight)
	if err != nil {
		return PreviewResult{}, &Error{Kind: KindProcessing, Op: call, Detail: "downsample", Err: err}
	}
	encoded, err := image.EncodeToBytes(small, opts.previewFormat, opts.previewQuality)
	if err != nil {
		return PreviewResult{}, &Error{Kind: KindProcessing, Op: call, Detail: "encode preview", Err: err}
	}
	data, err := opts.transport(encoded, opts.previewFormat)
	if err != nil {
		return PreviewResult{}, &Error{Kind: KindProcessing, Op: call, Detail: "transport", Err: err}
	}
	return PreviewResult{
		Data:    data,
		Width:   small.Width(),
		Height:  small.Height(),
		Format:  opts.previewFormat,
		Encoded: encoded,
	}, nil
}
