package engine

// Clock numbers emissions within one run.
//
// Every emitted item is stamped with a strictly increasing seq starting at 1,
// so the seq of an item is its position in the output order. The resolver
// is single-threaded; Clock carries no synchronization.
type Clock struct {
	seq int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}
