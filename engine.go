package retouch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/internal/parallel"
	"github.com/gogpu/retouch/internal/render"
	"github.com/gogpu/retouch/op"
)

// Metadata describes a loaded source image.
type Metadata struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	ByteSize int64  `json:"byte_size"`
	Path     string `json:"path,omitempty"`
}

// Size returns the source dimensions.
func (m Metadata) Size() op.Size {
	return op.Size{Width: m.Width, Height: m.Height}
}

// Engine owns the resources shared by sessions and exports: the pixel
// worker pool, the render pipeline and the decode group.
//
// Thread safety: Engine is safe for concurrent use.
type Engine struct {
	opts     options
	workers  *parallel.WorkerPool
	pipeline *render.Pipeline
	decodes  singleflight.Group
	tracer   trace.Tracer
}

// New creates an engine.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	workers := parallel.NewWorkerPool(o.workers)
	Logger().Debug("engine created",
		"workers", workers.Workers(),
		"history_capacity", o.historyCapacity,
		"preview_format", o.previewFormat,
	)
	return &Engine{
		opts:     o,
		workers:  workers,
		pipeline: render.New(workers),
		tracer:   otel.Tracer("github.com/gogpu/retouch"),
	}
}

// Close stops the worker pool. Sessions keep working after Close but run
// pixel work on the calling goroutine.
func (e *Engine) Close() {
	e.workers.Close()
}

// Workers returns the number of pixel workers.
func (e *Engine) Workers() int {
	return e.workers.Workers()
}

// render runs one pipeline pass and records metrics for it. Failures are
// returned as KindProcessing errors.
func (e *Engine) render(ctx context.Context, caller string, base *image.Buf, ops []op.Operation) (*image.Buf, error) {
	timer := renderTimer(caller)
	img, err := e.pipeline.Render(ctx, base, ops)
	timer.ObserveDuration()
	renderPassesTotal.WithLabelValues(caller, resultLabel(err)).Inc()
	if err != nil {
		return nil, processingError(caller, err)
	}
	return img, nil
}

// processingError converts a pipeline failure into a KindProcessing error
// naming the failed operation.
func processingError(call string, err error) *Error {
	e := &Error{Kind: KindProcessing, Op: call, Err: err}
	var opErr *render.OpError
	switch {
	case errors.As(err, &opErr):
		e.OpID = opErr.ID
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		e.Detail = "cancelled"
	}
	return e
}

// loadFile reads and decodes the image at path, enforcing the engine limits.
func (e *Engine) loadFile(ctx context.Context, call, path string) (*image.Buf, Metadata, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, Metadata{}, fsError(call, path, err, KindLoad)
	}
	if !fi.Mode().IsRegular() {
		return nil, Metadata{}, &Error{Kind: KindLoad, Op: call, Path: path, Detail: "not a regular file"}
	}
	if fi.Size() > e.opts.maxSourceBytes {
		return nil, Metadata{}, &Error{
			Kind:   KindResourceExhausted,
			Op:     call,
			Path:   path,
			Detail: fmt.Sprintf("file is %d bytes, limit %d", fi.Size(), e.opts.maxSourceBytes),
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Metadata{}, fsError(call, path, err, KindLoad)
	}
	return e.decode(ctx, call, path, data)
}

// decode checks the header against the dimension limit before decoding
// the pixels.
func (e *Engine) decode(ctx context.Context, call, name string, data []byte) (*image.Buf, Metadata, error) {
	if int64(len(data)) > e.opts.maxSourceBytes {
		return nil, Metadata{}, &Error{
			Kind:   KindResourceExhausted,
			Op:     call,
			Path:   name,
			Detail: fmt.Sprintf("data is %d bytes, limit %d", len(data), e.opts.maxSourceBytes),
		}
	}
	if len(data) == 0 {
		return nil, Metadata{}, &Error{Kind: KindLoad, Op: call, Path: name, Err: image.ErrEmptyData}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, Metadata{}, decodeError(call, name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, Metadata{}, &Error{
			Kind:   KindLoad,
			Op:     call,
			Path:   name,
			Detail: fmt.Sprintf("image is %dx%d", cfg.Width, cfg.Height),
			Err:    image.ErrInvalidDimensions,
		}
	}
	if limit := e.opts.maxDimension; cfg.Width > limit || cfg.Height > limit {
		return nil, Metadata{}, &Error{
			Kind:   KindResourceExhausted,
			Op:     call,
			Path:   name,
			Detail: fmt.Sprintf("image is %dx%d, limit %d per side", cfg.Width, cfg.Height, limit),
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, Metadata{}, &Error{Kind: KindLoad, Op: call, Path: name, Detail: "cancelled", Err: err}
	}

	buf, _, err := image.DecodeBytes(data)
	if err != nil {
		return nil, Metadata{}, decodeError(call, name, err)
	}
	return buf, Metadata{
		Width:    buf.Width(),
		Height:   buf.Height(),
		Format:   format,
		ByteSize: int64(len(data)),
		Path:     name,
	}, nil
}

func decodeError(call, name string, err error) *Error {
	kind := KindLoad
	if errors.Is(err, image.ErrUnsupportedFormat) {
		kind = KindUnsupportedFormat
	}
	return &Error{Kind: kind, Op: call, Path: name, Err: err}
}

type decoded struct {
	img  *image.Buf
	meta Metadata
}

// sharedDecode decodes path once for all concurrent callers. The decode
// itself is not cancelled by any one caller; each caller still observes
// its own context.
func (e *Engine) sharedDecode(ctx context.Context, call, path string) (*image.Buf, Metadata, error) {
	ch := e.decodes.DoChan(path, func() (any, error) {
		img, meta, err := e.loadFile(context.WithoutCancel(ctx), call, path)
		if err != nil {
			return nil, err
		}
		return decoded{img: img, meta: meta}, nil
	})
	select {
	case <-ctx.Done():
		return nil, Metadata{}, &Error{Kind: KindLoad, Op: call, Path: path, Detail: "cancelled", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, Metadata{}, res.Err
		}
		d := res.Val.(decoded)
		return d.img, d.meta, nil
	}
}
