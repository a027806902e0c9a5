// Package dispatch exposes a retouch session as JSON commands.
//
// A request names a command and carries its payload; the response echoes
// the request id and holds either the command result or an error of the
// form {"type": kind, "message": text}. Serve reads newline-delimited
// requests from a stream and writes one response line per request.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gogpu/retouch"
)

// Request is one command invocation.
type Request struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers the request with the same ID.
type Response struct {
	ID     string         `json:"id"`
	OK     bool           `json:"ok"`
	Result any            `json:"result,omitempty"`
	Error  *retouch.Error `json:"error,omitempty"`
}

type handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Dispatcher routes commands to one session.
//
// Thread safety: Dispatcher is safe for concurrent use. Ordering between
// mutating commands is the session's: they run one at a time.
type Dispatcher struct {
	engine   *retouch.Engine
	session  *retouch.Session
	defaults retouch.PreviewConstraints
	handlers map[string]handler
}

// New creates a dispatcher with a fresh session on engine. defaults bound
// previews whose request leaves the size unset.
func New(engine *retouch.Engine, defaults retouch.PreviewConstraints) *Dispatcher {
	d := &Dispatcher{
		engine:   engine,
		session:  engine.NewSession(),
		defaults: defaults,
	}
	d.handlers = map[string]handler{
		CmdOpenImage:      d.openImage,
		CmdApplyOperation: d.applyOperation,
		CmdUndo:           d.undo,
		CmdRedo:           d.redo,
		CmdPreview:        d.preview,
		CmdExportImage:    d.exportImage,
		CmdHistoryState:   d.historyState,
		CmdClear:          d.clear,
	}
	return d
}

// Session returns the dispatcher's session.
func (d *Dispatcher) Session() *retouch.Session {
	return d.session
}

// Close releases the session.
func (d *Dispatcher) Close() {
	d.session.Close()
}

// Handle runs one request.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	h, ok := d.handlers[req.Command]
	if !ok {
		return failure(req.ID, &retouch.Error{
			Kind:   retouch.KindInvalidOperation,
			Op:     "dispatch",
			Detail: fmt.Sprintf("unknown command %q", req.Command),
		})
	}
	res, err := h(ctx, req.Payload)
	if err != nil {
		retouch.Logger().Debug("command failed", "id", req.ID, "command", req.Command, "error", err)
		return failure(req.ID, err)
	}
	return Response{ID: req.ID, OK: true, Result: res}
}

// Mutating reports whether the command changes session state. Serve runs
// mutating commands in arrival order.
func Mutating(command string) bool {
	switch command {
	case CmdOpenImage, CmdApplyOperation, CmdUndo, CmdRedo, CmdClear:
		return true
	}
	return false
}

func failure(id string, err error) Response {
	var rerr *retouch.Error
	if !errors.As(err, &rerr) {
		rerr = &retouch.Error{Kind: retouch.KindProcessing, Err: err}
	}
	return Response{ID: id, Error: rerr}
}

func decode[T any](payload json.RawMessage, command string) (T, error) {
	var in T
	if len(payload) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(payload, &in); err != nil {
		return in, &retouch.Error{
			Kind:   retouch.KindInvalidOperation,
			Op:     command,
			Detail: "malformed payload",
			Err:    err,
		}
	}
	return in, nil
}

// bounds fills unset axes from the defaults.
func (d *Dispatcher) bounds(maxWidth, maxHeight int) retouch.PreviewConstraints {
	pc := d.defaults
	if maxWidth > 0 {
		pc.MaxWidth = maxWidth
	}
	if maxHeight > 0 {
		pc.MaxHeight = maxHeight
	}
	return pc
}

func (d *Dispatcher) openImage(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decode[OpenImageInput](payload, CmdOpenImage)
	if err != nil {
		return nil, err
	}
	if in.FilePath == "" {
		return nil, &retouch.Error{Kind: retouch.KindInvalidOperation, Op: CmdOpenImage, Detail: "file_path is empty"}
	}
	meta, err := d.session.Load(ctx, in.FilePath)
	if err != nil {
		return nil, err
	}
	prev, err := d.session.Current(ctx, d.bounds(in.PreviewMaxWidth, in.PreviewMaxHeight))
	if err != nil {
		return nil, err
	}
	return OpenImageOutput{
		PreviewBase64:  prev.Data,
		OriginalWidth:  meta.Width,
		OriginalHeight: meta.Height,
		Format:         meta.Format,
	}, nil
}

func (d *Dispatcher) applyOperation(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decode[ApplyOperationInput](payload, CmdApplyOperation)
	if err != nil {
		return nil, err
	}
	pc := d.defaults
	if in.PreviewWidth != nil {
		pc.MaxWidth = *in.PreviewWidth
	}
	res, err := d.session.Apply(ctx, in.Operation, pc)
	if err != nil {
		return nil, err
	}
	return stepOutput(res), nil
}

func (d *Dispatcher) undo(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decode[HistoryStepInput](payload, CmdUndo)
	if err != nil {
		return nil, err
	}
	res, err := d.session.Undo(ctx, d.bounds(in.PreviewMaxWidth, in.PreviewMaxHeight))
	if err != nil {
		return nil, err
	}
	return stepOutput(res), nil
}

func (d *Dispatcher) redo(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decode[HistoryStepInput](payload, CmdRedo)
	if err != nil {
		return nil, err
	}
	res, err := d.session.Redo(ctx, d.bounds(in.PreviewMaxWidth, in.PreviewMaxHeight))
	if err != nil {
		return nil, err
	}
	return stepOutput(res), nil
}

func stepOutput(res retouch.EditResult) ApplyOperationOutput {
	return ApplyOperationOutput{
		PreviewBase64: res.Data,
		NewWidth:      res.Size.Width,
		NewHeight:     res.Size.Height,
		History:       res.History,
	}
}

func (d *Dispatcher) preview(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decode[PreviewInput](payload, CmdPreview)
	if err != nil {
		return nil, err
	}
	prev, err := d.session.Preview(ctx, in.Operations, d.bounds(in.MaxWidth, in.MaxHeight))
	if err != nil {
		return nil, err
	}
	return PreviewOutput{PreviewBase64: prev.Data, Width: prev.Width, Height: prev.Height}, nil
}

func (d *Dispatcher) exportImage(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decode[ExportInput](payload, CmdExportImage)
	if err != nil {
		return nil, err
	}
	quality := 0
	if in.Quality != nil {
		if *in.Quality < 1 || *in.Quality > 100 {
			return nil, &retouch.Error{
				Kind:   retouch.KindInvalidOperation,
				Op:     CmdExportImage,
				Detail: fmt.Sprintf("quality %d out of range 1-100", *in.Quality),
			}
		}
		quality = *in.Quality
	}
	meta, err := d.session.Metadata()
	if err != nil {
		return nil, err
	}
	res, err := d.engine.Export(ctx, retouch.ExportRequest{
		OriginalPath: meta.Path,
		Operations:   in.Operations,
		OutputPath:   in.OutputPath,
		Format:       in.Format,
		Quality:      quality,
	})
	if err != nil {
		return nil, err
	}
	return ExportOutput{Success: true, OutputPath: res.Path, FileSize: res.ByteSize}, nil
}

func (d *Dispatcher) historyState(context.Context, json.RawMessage) (any, error) {
	return d.session.HistoryState(), nil
}

func (d *Dispatcher) clear(context.Context, json.RawMessage) (any, error) {
	if err := d.session.Reset(); err != nil {
		return nil, err
	}
	return ClearOutput{Success: true}, nil
}
