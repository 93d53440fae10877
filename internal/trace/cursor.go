package trace

import "iter"

// Cursor gives index-addressable access to a lazily produced step sequence.
// Steps are pulled from the underlying sequence only as far as the highest
// index requested and cached from then on.
type Cursor struct {
	next  func() (Step, bool)
	stop  func()
	cache []Step
	done  bool
}

// NewCursor wraps seq. Call Close when done if the sequence was not drained.
func NewCursor(seq iter.Seq[Step]) *Cursor {
	next, stop := iter.Pull(seq)
	return &Cursor{next: next, stop: stop}
}

// NewCursorFromSteps wraps an already materialised trace.
func NewCursorFromSteps(steps []Step) *Cursor {
	return &Cursor{cache: steps, done: true, stop: func() {}}
}

func (c *Cursor) fill(n int) {
	for len(c.cache) < n && !c.done {
		s, ok := c.next()
		if !ok {
			c.finish()
			return
		}
		c.cache = append(c.cache, s)
	}
}

func (c *Cursor) finish() {
	if !c.done {
		c.done = true
		c.stop()
	}
}

// At returns step i, pulling forward as needed.
func (c *Cursor) At(i int) (Step, bool) {
	if i < 0 {
		return Step{}, false
	}
	c.fill(i + 1)
	if i >= len(c.cache) {
		return Step{}, false
	}
	return c.cache[i], true
}

// Loaded is the number of steps pulled so far.
func (c *Cursor) Loaded() int { return len(c.cache) }

// Done reports whether the sequence is exhausted.
func (c *Cursor) Done() bool { return c.done }

// Len drains the sequence and returns the total number of steps.
func (c *Cursor) Len() int {
	c.fill(int(^uint(0) >> 1))
	return len(c.cache)
}

// Last drains the sequence and returns its final step.
func (c *Cursor) Last() (Step, bool) {
	n := c.Len()
	if n == 0 {
		return Step{}, false
	}
	return c.cache[n-1], true
}

// All drains the sequence and returns every step.
func (c *Cursor) All() []Step {
	c.Len()
	return c.cache
}

// Close stops the underlying sequence early.
func (c *Cursor) Close() { c.finish() }
