// Package otp issues six-digit one-time codes and keeps track of the single
// pending code per account.
package otp

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	Digits     = 6
	DefaultTTL = 5 * time.Minute
)

var codeSpace = big.NewInt(1_000_000)

// Code is a freshly issued one-time code.
type Code struct {
	Value     string
	ExpiresAt time.Time
}

type Generator struct {
	ttl    time.Duration
	random io.Reader
}

func NewGenerator(ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{ttl: ttl, random: rand.Reader}
}

// Generate draws a uniformly distributed code in [000000, 999999] and stamps
// it with now+ttl.
func (g *Generator) Generate(now time.Time) (Code, error) {
	n, err := rand.Int(g.random, codeSpace)
	if err != nil {
		return Code{}, fmt.Errorf("generate otp: %w", err)
	}
	return Code{
		Value:     fmt.Sprintf("%0*d", Digits, n.Int64()),
		ExpiresAt: now.Add(g.ttl),
	}, nil
}

func (g *Generator) TTL() time.Duration { return g.ttl }
