package retouch

import (
	"github.com/gogpu/retouch/internal/image"
)

// Default limits for loaded sources.
const (
	// DefaultMaxDimension is the largest accepted width or height.
	DefaultMaxDimension = 16384

	// DefaultMaxSourceBytes is the largest accepted source file.
	DefaultMaxSourceBytes = 500 << 20
)

// Option configures an Engine during creation.
// Use functional options to customize Engine behavior.
//
// Example:
//
//	// Defaults: GOMAXPROCS workers, 50-entry history, PNG previews
//	eng := retouch.New()
//
//	// Small JPEG previews for a remote client
//	eng := retouch.New(retouch.WithPreviewFormat("jpeg", 80))
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	workers         int
	historyCapacity int
	maxDimension    int
	maxSourceBytes  int64
	previewFormat   string
	previewQuality  int
	exportQuality   int
	transport       Transport
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		workers:         0, // GOMAXPROCS
		historyCapacity: DefaultHistoryCapacity,
		maxDimension:    DefaultMaxDimension,
		maxSourceBytes:  DefaultMaxSourceBytes,
		previewFormat:   image.FormatPNG,
		previewQuality:  image.DefaultJPEGQuality,
		exportQuality:   image.DefaultJPEGQuality,
		transport:       DataURL,
	}
}

// WithWorkers sets the number of pixel workers. Zero or negative selects
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithHistoryCapacity sets how many applied operations a session keeps.
// Non-positive values are ignored.
func WithHistoryCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.historyCapacity = n
		}
	}
}

// WithMaxDimension sets the largest accepted source width or height.
// Non-positive values are ignored.
func WithMaxDimension(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDimension = n
		}
	}
}

// WithMaxSourceBytes sets the largest accepted source size in bytes.
// Non-positive values are ignored.
func WithMaxSourceBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSourceBytes = n
		}
	}
}

// WithPreviewFormat selects the preview codec ("png", "jpeg" or "webp")
// and, for JPEG, its quality. Unknown formats are ignored.
func WithPreviewFormat(format string, quality int) Option {
	return func(o *options) {
		f, err := image.ParseFormat(format)
		if err != nil {
			return
		}
		o.previewFormat = f
		if quality >= 1 && quality <= 100 {
			o.previewQuality = quality
		}
	}
}

// WithExportQuality sets the JPEG quality used when an export request
// does not name one. Values outside 1-100 are ignored.
func WithExportQuality(q int) Option {
	return func(o *options) {
		if q >= 1 && q <= 100 {
			o.exportQuality = q
		}
	}
}

// WithTransport replaces the preview transport encoder. A nil transport
// is ignored.
func WithTransport(t Transport) Option {
	return func(o *options) {
		if t != nil {
			o.transport = t
		}
	}
}
