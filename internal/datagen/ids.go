//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// idDigits is the width of the numeric part of every generated identifier.
const idDigits = 15

// Dimension identifier prefixes.
const (
	PrefixProduct  = "PRO"
	PrefixRetailer = "RET"
	PrefixLocation = "LOC"
	PrefixCampaign = "CAM"
)

// ErrMalformedID is returned by ParseID for identifiers that are not a
// three letter prefix followed by digits.
var ErrMalformedID = errors.New("malformed identifier")

// IDGenerator hands out sequential identifiers of the form PREFIX followed
// by a zero-padded 15 digit counter. It is safe for concurrent use.
type IDGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewIDGenerator returns a generator with every counter at zero.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{counters: make(map[string]int64)}
}

// Seed sets the last issued number for prefix.
func (g *IDGenerator) Seed(prefix string, last int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[prefix] = last
}

// SeedFromID seeds the counter of the identifier's prefix from an existing
// identifier such as a table's high-water mark. Empty ids are ignored.
func (g *IDGenerator) SeedFromID(id string) error {
	if id == "" {
		return nil
	}
	prefix, n, err := ParseID(id)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if n > g.counters[prefix] {
		g.counters[prefix] = n
	}
	return nil
}

// Next returns the next identifier for prefix.
func (g *IDGenerator) Next(prefix string) string {
	g.mu.Lock()
	g.counters[prefix]++
	n := g.counters[prefix]
	g.mu.Unlock()
	return FormatID(prefix, n)
}

// Current returns the last issued number for prefix.
func (g *IDGenerator) Current(prefix string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counters[prefix]
}

// FormatID renders prefix and n as an identifier.
func FormatID(prefix string, n int64) string {
	return fmt.Sprintf("%s%0*d", prefix, idDigits, n)
}

// ParseID splits an identifier into its prefix and number.
func ParseID(id string) (string, int64, error) {
	if len(id) < 4 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	prefix, digits := id[:3], id[3:]
	if strings.ToUpper(prefix) != prefix || strings.ContainsAny(prefix, "0123456789") {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	return prefix, n, nil
}
