package session

import "github.com/hyperjump/interleave/internal/models"

// Cursor walks the chapter pairs of two books. Position k pairs source chapter
// k+First with destination chapter k+First+Delta.
type Cursor struct {
	Current int `json:"current"`
	First   int `json:"first"`
	Delta   int `json:"delta"`

	nSrc, nDst int
}

// NewCursor returns a cursor over books of nSrc and nDst chapters, placed on the first
// valid position.
func NewCursor(first, delta, nSrc, nDst int) *Cursor {
	c := &Cursor{First: first, Delta: delta, nSrc: nSrc, nDst: nDst}
	c.Seek(0)
	return c
}

// bounds returns the valid position range [lo, hi]. hi < lo when no pair exists.
func (c *Cursor) bounds() (lo, hi int) {
	lo = max(0, -c.First, -(c.First + c.Delta))
	hi = min(c.nSrc-c.First, c.nDst-c.First-c.Delta) - 1
	return lo, hi
}

// Len returns the number of valid positions.
func (c *Cursor) Len() int {
	lo, hi := c.bounds()
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

// Valid reports whether the cursor points at an existing chapter pair.
func (c *Cursor) Valid() bool {
	lo, hi := c.bounds()
	return c.Current >= lo && c.Current <= hi
}

// Pair returns the chapter pair under the cursor.
func (c *Cursor) Pair() models.ChapterPair {
	src := c.Current + c.First
	return models.ChapterPair{Src: src, Dst: src + c.Delta}
}

// Seek moves to position k, clamped to the valid range.
func (c *Cursor) Seek(k int) models.ChapterPair {
	lo, hi := c.bounds()
	if k > hi {
		k = hi
	}
	if k < lo {
		k = lo
	}
	c.Current = k
	return c.Pair()
}

// Move steps forward (step > 0) or back, clamped to the valid range.
func (c *Cursor) Move(step int) models.ChapterPair {
	return c.Seek(c.Current + step)
}

// Pairs lists every valid chapter pair in order.
func (c *Cursor) Pairs() []models.ChapterPair {
	lo, hi := c.bounds()
	var out []models.ChapterPair
	for k := lo; k <= hi; k++ {
		src := k + c.First
		out = append(out, models.ChapterPair{Src: src, Dst: src + c.Delta})
	}
	return out
}
