// Package retouch is a non-destructive image editing engine.
//
// # Overview
//
// A [Session] keeps an immutable original image and an ordered history of
// edit operations ([op.Operation]). The image shown to the user is always
// the original with the applied operations replayed in order, so any edit
// can be undone without loss and an export at full resolution reproduces
// exactly what was previewed.
//
// # Quick Start
//
//	eng := retouch.New()
//	defer eng.Close()
//
//	s := eng.NewSession()
//	meta, err := s.Load(ctx, "photo.jpg")
//	if err != nil {
//		return err
//	}
//
//	pc := retouch.PreviewConstraints{MaxWidth: 1024, MaxHeight: 768}
//	prev, err := s.Apply(ctx, op.New(uuid.NewString(), op.Filter{
//		Type:      op.FilterSepia,
//		Intensity: 0.8,
//	}), pc)
//
//	prev, err = s.Undo(ctx, pc)
//
//	_, err = s.Export(ctx, "photo-edited.png", "png", 0)
//
// # Operations
//
// Operations are filters (grayscale, sepia, invert, blur, sharpen), color
// adjustments (brightness, contrast, saturation, hue, gamma), lossless
// transforms (rotations and flips) and crops. Every operation is validated
// before it touches the session; a rejected operation changes nothing.
//
// # Previews
//
// Apply, Undo, Redo and Current return a downsampled, encoded preview of
// the committed state. The encoded bytes are handed to a [Transport];
// the default produces a data URL. The most recent committed preview is
// cached per session. [Session.Preview] renders arbitrary sequences
// against the original without changing the session.
//
// # Export
//
// [Engine.Export] decodes the original file again, replays the operations
// at full resolution and writes the result atomically. Concurrent exports
// of the same source share one decode.
//
// # Concurrency
//
// Pixel work is split into row bands and spread over the engine's worker
// pool. Mutations of a session run one at a time in call order; previews,
// exports and accessors run concurrently with them and always observe a
// committed state.
//
// # Errors
//
// Every error returned by the engine is an [*Error] carrying an
// [ErrorKind]. Use errors.Is with the sentinel values ([ErrInvalidOperation],
// [ErrNothingToUndo], ...) or [KindOf] to classify them.
package retouch
