package image

// solidBuf creates a buffer filled with one color.
func solidBuf(w, h int, r, g, b, a uint8) *Buf {
	buf := MustNewBuf(w, h)
	for y := range h {
		for x := range w {
			_ = buf.SetRGBA(x, y, r, g, b, a)
		}
	}
	return buf
}
