package image

import "sync"

// Pool is a thread-safe pool for reusing Buf instances.
//
// Pool groups buffers by dimensions. The render pipeline returns the
// intermediate buffers of a pass here once the next stage has consumed them,
// so a chain of same-size operations allocates only a couple of buffers.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*Buf
	maxSize int // max buffers per bucket
}

// poolKey identifies a bucket of identically sized buffers.
type poolKey struct {
	width  int
	height int
}

// NewPool creates a new buffer pool with the given maximum buffers per bucket.
// A maxPerBucket of 0 means unlimited (use with caution).
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][]*Buf),
		maxSize: maxPerBucket,
	}
}

// Get retrieves a buffer from the pool or creates a new one.
// Reused buffers are NOT cleared: callers overwrite every pixel.
// Returns nil for invalid dimensions.
func (p *Pool) Get(width, height int) *Buf {
	key := poolKey{width: width, height: height}

	p.mu.Lock()
	bucket := p.buckets[key]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()
		return buf
	}
	p.mu.Unlock()

	buf, err := NewBuf(width, height)
	if err != nil {
		return nil
	}
	return buf
}

// Put returns a buffer to the pool for reuse. The caller must not retain
// any reference to buf. Nil buffers and buffers beyond bucket capacity
// are discarded.
func (p *Pool) Put(buf *Buf) {
	if buf == nil || buf.stride != buf.width*BytesPerPixel {
		return
	}

	key := poolKey{width: buf.width, height: buf.height}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, buf)
}

// Len returns the total number of pooled buffers.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}
