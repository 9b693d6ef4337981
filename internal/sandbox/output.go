package sandbox

import (
	"bytes"
	"sync"
)

const maxOutputBytes = 1 << 20

const truncatedNotice = "\n[output truncated]"

// cappedBuffer keeps the first limit bytes written to it and silently drops
// the rest, so a runaway print loop cannot exhaust memory.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room := c.limit - c.buf.Len()
	if room <= 0 {
		c.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		c.buf.Write(p[:room])
		c.truncated = true
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.truncated {
		return c.buf.String() + truncatedNotice
	}
	return c.buf.String()
}
