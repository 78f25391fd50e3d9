package service

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

// TicketNumberPattern matches every generated ticket number.
var TicketNumberPattern = regexp.MustCompile(`^GLOW-\d{9}$`)

// TicketNumberGenerator derives ticket numbers from the wall clock and a
// random suffix. Numbers are short and readable, not unique; callers retry on
// collision.
type TicketNumberGenerator struct {
	now  func() time.Time
	intN func(int) int
}

// NewTicketNumberGenerator uses the system clock and math/rand.
func NewTicketNumberGenerator() *TicketNumberGenerator {
	return &TicketNumberGenerator{now: time.Now, intN: rand.Intn}
}

// Next returns "GLOW-" + the last six digits of the Unix millisecond clock +
// a zero-padded three digit random number.
func (g *TicketNumberGenerator) Next() string {
	ms := g.now().UnixMilli() % 1_000_000
	if ms < 0 {
		ms = -ms
	}
	return fmt.Sprintf("GLOW-%06d%03d", ms, g.intN(1000))
}
