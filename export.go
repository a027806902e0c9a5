package retouch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/op"
)

// ExportRequest describes a full-resolution export.
type ExportRequest struct {
	// OriginalPath is the source image. It is decoded fresh for every
	// export, so nothing cached by a session leaks into the output.
	OriginalPath string `json:"original_path"`

	// Operations are replayed in order.
	Operations []op.Operation `json:"operations"`

	// OutputPath is the destination file. Its directory must exist.
	OutputPath string `json:"output_path"`

	// Format is "jpeg" (or "jpg"), "png" or "webp". Empty derives the
	// format from the OutputPath extension.
	Format string `json:"format,omitempty"`

	// Quality is the JPEG quality, 1-100. Zero selects the engine default.
	// Other formats are lossless and ignore it without validation.
	Quality int `json:"quality,omitempty"`
}

// ExportResult describes a written export.
type ExportResult struct {
	Path     string `json:"path"`
	ByteSize int64  `json:"file_size"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Export renders req.Operations against a fresh decode of req.OriginalPath
// at full resolution and writes the result to req.OutputPath. The file is
// written to a temporary name in the destination directory and renamed
// into place, so a failed export never leaves a partial file behind.
func (e *Engine) Export(ctx context.Context, req ExportRequest) (res ExportResult, err error) {
	ctx, span := e.tracer.Start(ctx, "retouch.Engine.Export",
		trace.WithAttributes(
			attribute.String("output_path", req.OutputPath),
			attribute.Int("ops", len(req.Operations)),
		),
	)
	defer span.End()

	format := req.Format
	defer func() {
		exportsTotal.WithLabelValues(format, resultLabel(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "export failed")
			Logger().Warn("export failed", "path", req.OutputPath, "error", err)
		}
	}()

	if req.OutputPath == "" {
		return ExportResult{}, &Error{Kind: KindInvalidOperation, Op: "export", Detail: "output path is empty"}
	}
	if format == "" {
		format, err = image.FormatFromPath(req.OutputPath)
	} else {
		format, err = image.ParseFormat(format)
	}
	if err != nil {
		format = "unknown"
		return ExportResult{}, &Error{Kind: KindUnsupportedFormat, Op: "export", Path: req.OutputPath, Err: err}
	}
	quality := 0
	if image.IsLossy(format) {
		quality = req.Quality
		if quality == 0 {
			quality = e.opts.exportQuality
		}
		if quality < 1 || quality > 100 {
			return ExportResult{}, &Error{
				Kind:   KindInvalidOperation,
				Op:     "export",
				Detail: fmt.Sprintf("quality %d out of range 1-100", req.Quality),
			}
		}
	}

	src, meta, err := e.sharedDecode(ctx, "export", req.OriginalPath)
	if err != nil {
		return ExportResult{}, err
	}
	if err := op.ValidateSequence(req.Operations, meta.Size()); err != nil {
		return ExportResult{}, invalidOp("export", validationOpID(err), err)
	}
	img, err := e.render(ctx, "export", src, req.Operations)
	if err != nil {
		return ExportResult{}, err
	}
	span.AddEvent("rendered", trace.WithAttributes(
		attribute.Int("width", img.Width()),
		attribute.Int("height", img.Height()),
	))

	size, err := writeAtomic(req.OutputPath, img, format, quality)
	if err != nil {
		return ExportResult{}, err
	}
	exportBytes.Observe(float64(size))
	Logger().Info("exported",
		"path", req.OutputPath,
		"format", format,
		"bytes", size,
		"width", img.Width(),
		"height", img.Height(),
		"ops", len(req.Operations),
	)
	return ExportResult{
		Path:     req.OutputPath,
		ByteSize: size,
		Format:   format,
		Width:    img.Width(),
		Height:   img.Height(),
	}, nil
}

// Export writes the session's committed state. The original is decoded
// fresh from the loaded path; sessions loaded from bytes cannot export.
func (s *Session) Export(ctx context.Context, outputPath, format string, quality int) (ExportResult, error) {
	st := s.state.Load()
	if st == nil {
		return ExportResult{}, stateError("export", ErrNoImage)
	}
	return s.engine.Export(ctx, ExportRequest{
		OriginalPath: st.src.meta.Path,
		Operations:   st.applied,
		OutputPath:   outputPath,
		Format:       format,
		Quality:      quality,
	})
}

// writeAtomic encodes img next to path and renames it into place.
func writeAtomic(path string, img *image.Buf, format string, quality int) (int64, error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".retouch-*"+filepath.Ext(path))
	if err != nil {
		return 0, fsError("export", path, err, KindSave)
	}
	tmp := f.Name()
	fail := func(err error) (int64, error) {
		_ = f.Close()
		_ = os.Remove(tmp)
		return 0, err
	}

	w := bufio.NewWriter(f)
	if err := image.Encode(w, img, format, quality); err != nil {
		return fail(&Error{Kind: KindSave, Op: "export", Path: path, Detail: "encode", Err: err})
	}
	if err := w.Flush(); err != nil {
		return fail(fsError("export", path, err, KindSave))
	}
	if err := f.Chmod(0o644); err != nil && !errors.Is(err, errors.ErrUnsupported) {
		return fail(fsError("export", path, err, KindSave))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fsError("export", path, err, KindSave)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, fsError("export", path, err, KindSave)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return 0, fsError("export", path, err, KindSave)
	}
	return fi.Size(), nil
}
