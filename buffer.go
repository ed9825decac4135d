package flexus

// wbuf is the shared output buffer for one encode pass. Writes land at
// absolute offsets and may extend the buffer; growth zero-fills, so a
// reserved window can be patched after later fields resolve.
type wbuf struct {
	b []byte
}

func (w *wbuf) bytes() []byte { return w.b }

func (w *wbuf) writeAt(off int, p []byte) {
	if end := off + len(p); end > len(w.b) {
		w.grow(end)
	}
	copy(w.b[off:], p)
}

// reserve zero-fills [off, off+n) without writing payload bytes.
func (w *wbuf) reserve(off, n int) {
	if end := off + n; end > len(w.b) {
		w.grow(end)
	}
	clear(w.b[off : off+n])
}

func (w *wbuf) append(p []byte) {
	w.b = append(w.b, p...)
}

func (w *wbuf) truncate(n int) {
	w.b = w.b[:n]
}

func (w *wbuf) grow(n int) {
	if cap(w.b) >= n {
		w.b = w.b[:n]
		return
	}
	nb := make([]byte, n, n*2+32)
	copy(nb, w.b)
	w.b = nb
}
