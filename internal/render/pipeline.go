// Package render replays operation sequences against a source image.
//
// Render is a strict left fold: each operation reads the previous buffer and
// writes a new one, so the source and every published buffer stay
// immutable. Intermediate buffers are recycled through an image.Pool once
// the next stage has consumed them.
package render

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogpu/retouch/internal/filter"
	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/internal/parallel"
	"github.com/gogpu/retouch/op"
)

// ErrUnsupported is wrapped by OpError for payloads the pipeline cannot run.
var ErrUnsupported = errors.New("render: unsupported operation")

// OpError reports the operation that failed during a render pass.
type OpError struct {
	ID   string
	Kind op.Kind
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("render: op %q (%s): %v", e.ID, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Pipeline renders operation sequences. It is safe for concurrent use;
// concurrent passes share the worker pool and the buffer pool.
type Pipeline struct {
	workers *parallel.WorkerPool
	bufs    *image.Pool
	tracer  trace.Tracer
}

// New creates a pipeline running pixel work on workers. A nil pool runs
// everything on the calling goroutine.
func New(workers *parallel.WorkerPool) *Pipeline {
	return &Pipeline{
		workers: workers,
		bufs:    image.NewPool(4),
		tracer:  otel.Tracer("github.com/gogpu/retouch/internal/render"),
	}
}

// Render applies ops to base in order and returns the result. base is never
// written. With no ops, base itself is returned. The context is checked
// before every operation and once more at the end; a cancelled pass returns
// ctx.Err() and no image.
func (p *Pipeline) Render(ctx context.Context, base *image.Buf, ops []op.Operation) (*image.Buf, error) {
	ctx, span := p.tracer.Start(ctx, "render.Pipeline.Render",
		trace.WithAttributes(
			attribute.Int("ops", len(ops)),
			attribute.Int("source_width", base.Width()),
			attribute.Int("source_height", base.Height()),
		),
	)
	defer span.End()

	cur := base
	release := func() {
		if cur != base {
			p.bufs.Put(cur)
		}
	}

	for _, o := range ops {
		if err := ctx.Err(); err != nil {
			release()
			span.RecordError(err)
			span.SetStatus(codes.Error, "context cancelled")
			return nil, err
		}

		span.AddEvent("op", trace.WithAttributes(
			attribute.String("id", o.ID),
			attribute.String("kind", string(o.Kind())),
		))

		next, err := p.apply(cur, o)
		if err != nil {
			release()
			opErr := &OpError{ID: o.ID, Kind: o.Kind(), Err: err}
			span.RecordError(opErr)
			span.SetStatus(codes.Error, opErr.Error())
			return nil, opErr
		}
		release()
		cur = next
	}

	if err := ctx.Err(); err != nil {
		release()
		span.RecordError(err)
		span.SetStatus(codes.Error, "context cancelled")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("result_width", cur.Width()),
		attribute.Int("result_height", cur.Height()),
	)
	return cur, nil
}

// apply runs a single operation. The returned buffer is always distinct
// from src.
func (p *Pipeline) apply(src *image.Buf, o op.Operation) (*image.Buf, error) {
	switch params := o.Params.(type) {
	case op.Filter:
		return p.applyFilter(src, params)
	case op.Adjustment:
		return p.applyAdjustment(src, params)
	case op.Transform:
		return p.applyTransform(src, params.Type)
	case op.Crop:
		return src.Crop(params.X, params.Y, params.Width, params.Height)
	case nil:
		return nil, fmt.Errorf("%w: missing params", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, params)
	}
}

func (p *Pipeline) newLike(src *image.Buf) *image.Buf {
	return p.bufs.Get(src.Width(), src.Height())
}

func (p *Pipeline) applyFilter(src *image.Buf, f op.Filter) (*image.Buf, error) {
	t := float32(f.Intensity)

	var m filter.ColorMatrix
	switch f.Type {
	case op.FilterGrayscale:
		m = filter.GrayscaleMatrix()
	case op.FilterSepia:
		m = filter.SepiaMatrix()
	case op.FilterInvert:
		m = filter.InvertMatrix()
	case op.FilterBlur:
		dst := p.newLike(src)
		filter.GaussianBlur(p.workers, src, dst, f.Radius)
		if t < 1 {
			filter.Blend(p.workers, src, dst, dst, t)
		}
		return dst, nil
	case op.FilterSharpen:
		dst := p.newLike(src)
		filter.Sharpen(p.workers, src, dst, t)
		return dst, nil
	default:
		return nil, fmt.Errorf("%w: filter %q", ErrUnsupported, f.Type)
	}

	dst := p.newLike(src)
	m.Lerp(t).Apply(p.workers, src, dst)
	return dst, nil
}

// applyAdjustment runs each present adjustment as its own pass, in the
// order brightness, contrast, saturation, hue, gamma, so that every step
// clamps independently.
func (p *Pipeline) applyAdjustment(src *image.Buf, a op.Adjustment) (*image.Buf, error) {
	if a.IsEmpty() {
		return nil, fmt.Errorf("%w: empty adjustment", ErrUnsupported)
	}

	var steps []func(in, out *image.Buf)
	if a.Brightness != nil {
		m := filter.BrightnessMatrix(float32(*a.Brightness))
		steps = append(steps, func(in, out *image.Buf) { m.Apply(p.workers, in, out) })
	}
	if a.Contrast != nil {
		m := filter.ContrastMatrix(float32(*a.Contrast))
		steps = append(steps, func(in, out *image.Buf) { m.Apply(p.workers, in, out) })
	}
	if a.Saturation != nil {
		factor := *a.Saturation
		steps = append(steps, func(in, out *image.Buf) { filter.Saturation(p.workers, in, out, factor) })
	}
	if a.Hue != nil {
		shift := *a.Hue
		steps = append(steps, func(in, out *image.Buf) { filter.HueRotate(p.workers, in, out, shift) })
	}
	if a.Gamma != nil {
		gamma := *a.Gamma
		steps = append(steps, func(in, out *image.Buf) { filter.Gamma(p.workers, in, out, gamma) })
	}

	cur := src
	for _, step := range steps {
		out := p.newLike(src)
		step(cur, out)
		if cur != src {
			p.bufs.Put(cur)
		}
		cur = out
	}
	return cur, nil
}
