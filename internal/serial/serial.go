// Package serial produces SOA serial numbers.
//
// The default scheme uses the Unix timestamp, which secondary nameservers
// interpret as "newer wins". When two mutations land in the same second the
// generator falls back to current+1 so a serial is never reused.
package serial

import "time"

// Generator produces strictly increasing uint32 serials.
type Generator struct {
	// Now is the clock; nil means time.Now. Injectable for tests.
	Now func() time.Time
}

// Next returns the next serial after current. The result is always
// strictly greater than current, even when the clock stands still or
// runs backwards.
func (g *Generator) Next(current uint32) uint32 {
	now := time.Now
	if g != nil && g.Now != nil {
		now = g.Now
	}
	ts := uint32(now().Unix())
	if ts <= current {
		return current + 1
	}
	return ts
}
