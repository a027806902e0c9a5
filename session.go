package retouch

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/gogpu/retouch/internal/image"
	"github.com/gogpu/retouch/op"
)

// source is an immutable loaded original.
type source struct {
	img  *image.Buf
	meta Metadata
	gen  uint64
}

// state is what readers observe: the original, the image derived from it
// and the sequence that derived it, published together.
type state struct {
	src     *source
	current *image.Buf
	applied []op.Operation
}

// Session holds one image being edited: the immutable original, the
// current image derived from it, the undo/redo history and a one-entry
// preview cache.
//
// Thread safety: Session is safe for concurrent use. Load, Apply, Undo,
// Redo and Reset are serialized in call order. Preview, Current and the
// accessors never wait for them and always see a committed state.
type Session struct {
	id      string
	engine  *Engine
	mu      sync.Mutex
	history *History
	state   atomic.Pointer[state]
	cache   atomic.Pointer[cacheEntry]
	gen     atomic.Uint64
}

// NewSession creates an empty session. Every call except Load and
// LoadBytes returns ErrNoImage until an image is loaded.
func (e *Engine) NewSession() *Session {
	return &Session{
		id:      uuid.NewString(),
		engine:  e,
		history: NewHistory(e.opts.historyCapacity),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Load decodes the image at path and makes it the session's original.
// History is cleared and the current image reset to the original. On
// failure the session is unchanged.
func (s *Session) Load(ctx context.Context, path string) (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, meta, err := s.engine.loadFile(ctx, "load", path)
	if err != nil {
		Logger().Warn("load failed", "session", s.id, "path", path, "error", err)
		return Metadata{}, err
	}
	s.install(img, meta)
	return meta, nil
}

// LoadBytes is like Load for an in-memory encoded image. name is reported
// as the metadata path.
func (s *Session) LoadBytes(ctx context.Context, data []byte, name string) (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, meta, err := s.engine.decode(ctx, "load", name, data)
	if err != nil {
		Logger().Warn("load failed", "session", s.id, "name", name, "error", err)
		return Metadata{}, err
	}
	s.install(img, meta)
	return meta, nil
}

func (s *Session) install(img *image.Buf, meta Metadata) {
	src := &source{img: img, meta: meta, gen: s.gen.Add(1)}
	s.history.Clear()
	s.state.Store(&state{src: src, current: img})
	s.cache.Store(nil)
	historySize.Set(0)
	Logger().Info("image loaded",
		"session", s.id,
		"path", meta.Path,
		"format", meta.Format,
		"width", meta.Width,
		"height", meta.Height,
	)
}

// EditResult is the outcome of a committed edit. The preview, the
// full-resolution size and the history state all describe the same commit.
type EditResult struct {
	PreviewResult

	// Size is the full-resolution size of the current image.
	Size op.Size `json:"size"`

	// History is the undo/redo state after the edit.
	History HistoryState `json:"history"`
}

// Apply validates o against the current image, renders it and commits it
// to the history. Nothing changes when validation or rendering fails.
//
// When the history is full the oldest operation is evicted and the rest
// are replayed from the original. If the remaining sequence no longer fits
// the original (the evicted operation rotated or cropped the image), Apply
// fails with KindInvalidOperation naming the conflicting operation and the
// session is unchanged.
func (s *Session) Apply(ctx context.Context, o op.Operation, pc PreviewConstraints) (EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.Load()
	if st == nil {
		return EditResult{}, stateError("apply", ErrNoImage)
	}
	bounds := op.Size{Width: st.current.Width(), Height: st.current.Height()}
	if err := op.Validate(o, &bounds); err != nil {
		Logger().Debug("operation rejected", "session", s.id, "op", o.ID, "error", err)
		return EditResult{}, invalidOp("apply", o.ID, err)
	}

	prev := s.history.Snapshot()
	next := prev.push(o, s.history.Capacity())

	var (
		img *image.Buf
		err error
	)
	if len(next.Applied) == len(prev.Applied)+1 {
		// Rendering is a left fold, so the committed image plus o equals
		// a full replay.
		img, err = s.engine.render(ctx, "apply", st.current, []op.Operation{o})
	} else {
		evicted := prev.Applied[0].ID
		if verr := op.ValidateSequence(next.Applied, st.src.meta.Size()); verr != nil {
			Logger().Debug("eviction conflict", "session", s.id, "evicted", evicted, "error", verr)
			return EditResult{}, &Error{
				Kind:   KindInvalidOperation,
				Op:     "apply",
				OpID:   validationOpID(verr),
				Detail: fmt.Sprintf("history full: evicting %q invalidates the remaining operations", evicted),
				Err:    verr,
			}
		}
		Logger().Debug("history full, evicting oldest", "session", s.id, "evicted", evicted)
		img, err = s.engine.render(ctx, "apply", st.src.img, next.Applied)
	}
	if err != nil {
		Logger().Warn("apply failed", "session", s.id, "op", o.ID, "error", err)
		return EditResult{}, err
	}

	res, err := s.commit(ctx, "apply", st.src, img, next, pc)
	if err != nil {
		return EditResult{}, err
	}
	Logger().Debug("operation applied", "session", s.id, "op", o.ID, "kind", o.Kind(), "history", len(next.Applied))
	return res, nil
}

// Undo reverts the newest applied operation. It returns ErrNothingToUndo
// when nothing is applied.
func (s *Session) Undo(ctx context.Context, pc PreviewConstraints) (EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.Load()
	if st == nil {
		return EditResult{}, stateError("undo", ErrNoImage)
	}
	next, err := s.history.Snapshot().undo()
	if err != nil {
		return EditResult{}, stateError("undo", err)
	}
	img, err := s.engine.render(ctx, "undo", st.src.img, next.Applied)
	if err != nil {
		Logger().Warn("undo failed", "session", s.id, "error", err)
		return EditResult{}, err
	}
	res, err := s.commit(ctx, "undo", st.src, img, next, pc)
	if err != nil {
		return EditResult{}, err
	}
	Logger().Debug("undo", "session", s.id, "history", len(next.Applied), "redo", len(next.Undone))
	return res, nil
}

// Redo reapplies the most recently undone operation. It returns
// ErrNothingToRedo when nothing was undone.
func (s *Session) Redo(ctx context.Context, pc PreviewConstraints) (EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.Load()
	if st == nil {
		return EditResult{}, stateError("redo", ErrNoImage)
	}
	next, err := s.history.Snapshot().redo()
	if err != nil {
		return EditResult{}, stateError("redo", err)
	}
	redone := next.Applied[len(next.Applied)-1]
	img, err := s.engine.render(ctx, "redo", st.current, []op.Operation{redone})
	if err != nil {
		Logger().Warn("redo failed", "session", s.id, "op", redone.ID, "error", err)
		return EditResult{}, err
	}
	res, err := s.commit(ctx, "redo", st.src, img, next, pc)
	if err != nil {
		return EditResult{}, err
	}
	Logger().Debug("redo", "session", s.id, "op", redone.ID, "history", len(next.Applied), "redo", len(next.Undone))
	return res, nil
}

// Reset clears the history and restores the current image to the
// original.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.Load()
	if st == nil {
		return stateError("reset", ErrNoImage)
	}
	s.history.Clear()
	s.state.Store(&state{src: st.src, current: st.src.img})
	s.cache.Store(nil)
	historySize.Set(0)
	Logger().Debug("history cleared", "session", s.id)
	return nil
}

// commit encodes the preview of the candidate state, then records next in
// the history and publishes img as the current image. Nothing is published
// when the preview fails. The caller holds s.mu.
func (s *Session) commit(ctx context.Context, call string, src *source, img *image.Buf, next HistorySnapshot, pc PreviewConstraints) (EditResult, error) {
	st := &state{src: src, current: img, applied: slices.Clone(next.Applied)}
	res, err := s.preview(ctx, call, st, pc, false)
	if err != nil {
		return EditResult{}, err
	}

	s.history.restore(next)
	s.state.Store(st)
	if !res.Cached {
		s.cache.Store(&cacheEntry{key: newCacheKey(st.applied, src.gen, pc), result: res})
	}
	historySize.Set(float64(len(st.applied)))
	return EditResult{
		PreviewResult: res,
		Size:          op.Size{Width: img.Width(), Height: img.Height()},
		History:       next.State(),
	}, nil
}

// HistoryState returns the undo/redo availability and counts.
func (s *Session) HistoryState() HistoryState {
	return s.history.State()
}

// Operations returns a copy of the applied operations, oldest first.
func (s *Session) Operations() []op.Operation {
	return s.history.Applied()
}

// Metadata returns the loaded source's metadata.
func (s *Session) Metadata() (Metadata, error) {
	st := s.state.Load()
	if st == nil {
		return Metadata{}, stateError("metadata", ErrNoImage)
	}
	return st.src.meta, nil
}

// Original returns a copy of the loaded source image.
func (s *Session) Original() (*image.Buf, error) {
	st := s.state.Load()
	if st == nil {
		return nil, stateError("original", ErrNoImage)
	}
	return st.src.img.Clone(), nil
}

// CurrentImage returns a copy of the full-resolution current image.
func (s *Session) CurrentImage() (*image.Buf, error) {
	st := s.state.Load()
	if st == nil {
		return nil, stateError("current", ErrNoImage)
	}
	return st.current.Clone(), nil
}

// CurrentSize returns the dimensions of the current image.
func (s *Session) CurrentSize() (op.Size, error) {
	st := s.state.Load()
	if st == nil {
		return op.Size{}, stateError("current", ErrNoImage)
	}
	return op.Size{Width: st.current.Width(), Height: st.current.Height()}, nil
}

// Close releases the images and history. The session can be reused by
// loading a new image.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Clear()
	s.state.Store(nil)
	s.cache.Store(nil)
}

// stateError attaches the call name to a state sentinel.
func stateError(call string, sentinel error) *Error {
	e, ok := sentinel.(*Error)
	if !ok {
		return &Error{Kind: KindState, Op: call, Err: sentinel}
	}
	return &Error{Kind: e.Kind, Op: call, Detail: e.Detail}
}
