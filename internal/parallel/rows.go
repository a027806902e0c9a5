package parallel

// minBandRows is the smallest band handed to a worker. Smaller images run
// on the calling goroutine.
const minBandRows = 16

// Bands splits [0, height) into at most n contiguous [y0, y1) ranges of
// near-equal size, each at least minRows tall (the last band may be shorter
// only when height itself is).
func Bands(height, n, minRows int) [][2]int {
	if height <= 0 {
		return nil
	}
	if minRows < 1 {
		minRows = 1
	}
	n = min(max(n, 1), max(height/minRows, 1))

	bands := make([][2]int, 0, n)
	base, rem := height/n, height%n
	y := 0
	for i := range n {
		h := base
		if i < rem {
			h++
		}
		bands = append(bands, [2]int{y, y + h})
		y += h
	}
	return bands
}

// Rows runs fn over disjoint row bands covering [0, height) and waits for
// all of them. A nil pool runs a single band inline.
func (p *WorkerPool) Rows(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	if p == nil {
		fn(0, height)
		return
	}
	bands := Bands(height, p.workers*2, minBandRows)
	if len(bands) == 1 {
		fn(0, height)
		return
	}
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { fn(b[0], b[1]) }
	}
	p.ExecuteAll(work)
}
