// Package idgen builds the short public identifiers used for emergency profiles.
//
// An identifier looks like RID-1700000000000-AB12C: a prefix, the creation time
// in unix milliseconds and an uppercase base36 suffix read from crypto/rand.
// Identifiers are not guaranteed unique; storage must reject duplicates.
package idgen

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	MinSuffixLength = 5
	MaxSuffixLength = 9

	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var alphabetSize = big.NewInt(int64(len(alphabet)))

type Generator struct {
	suffixLength int
	now          func() time.Time
}

type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// New returns a generator whose suffix length is clamped to [5, 9].
func New(suffixLength int, opts ...Option) *Generator {
	if suffixLength < MinSuffixLength {
		suffixLength = MinSuffixLength
	}
	if suffixLength > MaxSuffixLength {
		suffixLength = MaxSuffixLength
	}

	g := &Generator{
		suffixLength: suffixLength,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Generate(prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 15 + g.suffixLength)
	b.WriteString(prefix)
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(g.now().UnixMilli(), 10))
	b.WriteByte('-')
	b.WriteString(randomSuffix(g.suffixLength))
	return b.String()
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic("idgen: crypto/rand unavailable: " + err.Error())
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf)
}
