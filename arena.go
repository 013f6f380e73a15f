package framegraph

// arenaChunk is the number of compiled ops per arena chunk.
const arenaChunk = 256

// Arena is a chunked pool of compiled ops. Pointers handed out stay valid
// until Reset, which recycles every slot and bumps the generation so that
// programs built from the previous contents can detect they are stale.
type Arena struct {
	chunks     [][]Compiled
	n          int
	generation uint64
}

// Alloc returns a zeroed compiled op. Slice capacity from the previous
// generation is kept to avoid churn across rebuilds.
func (a *Arena) Alloc() *Compiled {
	ci, i := a.n/arenaChunk, a.n%arenaChunk
	if ci == len(a.chunks) {
		a.chunks = append(a.chunks, make([]Compiled, arenaChunk))
	}
	c := &a.chunks[ci][i]
	*c = Compiled{
		Waits:       c.Waits[:0],
		Barriers:    c.Barriers[:0],
		Signals:     c.Signals[:0],
		Children:    c.Children[:0],
		BufferDeps:  c.BufferDeps[:0],
		TextureDeps: c.TextureDeps[:0],
	}
	a.n++
	return c
}

// Reset invalidates every op handed out since the last Reset.
func (a *Arena) Reset() {
	for ci := 0; ci*arenaChunk < a.n; ci++ {
		chunk := a.chunks[ci]
		for i := range chunk {
			c := &chunk[i]
			c.run = nil
			c.Pass = nil
			clear(c.Waits)
			clear(c.Barriers)
			clear(c.Signals)
			clear(c.Children)
		}
	}
	a.n = 0
	a.generation++
}

// Len returns the number of live ops.
func (a *Arena) Len() int { return a.n }

// Generation returns the number of resets so far.
func (a *Arena) Generation() uint64 { return a.generation }
