package services

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	trackingCodePrefix      = "TF-"
	trackingCodeRandomChars = 4
	trackingCodeAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// TrackingCodeGenerator produces customer-facing order codes of the form
// TF-<base36 unix millis><4 random base36 chars>, uppercase. The timestamp
// component keeps codes roughly sortable; the random tail disambiguates
// orders created in the same millisecond.
type TrackingCodeGenerator struct {
	clock  func() time.Time
	random func(b []byte) error
}

// NewTrackingCodeGenerator constructs a generator with real time and entropy.
func NewTrackingCodeGenerator() *TrackingCodeGenerator {
	return &TrackingCodeGenerator{
		clock: time.Now,
		random: func(b []byte) error {
			_, err := rand.Read(b)
			return err
		},
	}
}

// Generate returns a fresh candidate code. Uniqueness is enforced at
// persistence time; callers retry on collision.
func (g *TrackingCodeGenerator) Generate() (string, error) {
	if g == nil || g.clock == nil || g.random == nil {
		return "", fmt.Errorf("tracking code generator not initialised")
	}

	millis := g.clock().UTC().UnixMilli()
	stamp := strings.ToUpper(strconv.FormatInt(millis, 36))

	buf := make([]byte, trackingCodeRandomChars)
	if err := g.random(buf); err != nil {
		return "", fmt.Errorf("tracking code entropy: %w", err)
	}

	var tail strings.Builder
	for _, b := range buf {
		tail.WriteByte(trackingCodeAlphabet[int(b)%len(trackingCodeAlphabet)])
	}

	return trackingCodePrefix + stamp + tail.String(), nil
}
