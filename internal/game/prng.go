package game

import (
	"crypto/hmac"
	"crypto/sha256"
	"math"
	"strconv"
)

const platformStreamLabel = "platforms"

// ByteGenerator is a deterministic byte stream: round r is
// HMAC-SHA256(key=seed, "<label>:<r>") and bytes are consumed in order.
// Each generator owns its state; there is no shared stream.
type ByteGenerator struct {
	seed         []byte
	label        string
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

func NewByteGenerator(seed []byte, label string) *ByteGenerator {
	bg := &ByteGenerator{
		seed:  append([]byte(nil), seed...),
		label: label,
	}
	bg.generateRound()
	return bg
}

// Next returns the next byte of the stream.
func (bg *ByteGenerator) Next() byte {
	if bg.currentPos >= len(bg.buffer) {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextFloat consumes exactly 4 bytes and returns a value in [0, 1).
func (bg *ByteGenerator) NextFloat() float64 {
	return bytesToFloat([4]byte{bg.Next(), bg.Next(), bg.Next(), bg.Next()})
}

// IntBetween maps one float draw onto the inclusive integer range [lo, hi].
func (bg *ByteGenerator) IntBetween(lo, hi int) (int, float64) {
	f := bg.NextFloat()
	return scaleInt(f, lo, hi), f
}

func scaleInt(f float64, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(math.Floor(f*float64(hi-lo+1)))
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, bg.seed)
	h.Write([]byte(bg.label))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.FormatUint(bg.currentRound, 10)))
	copy(bg.buffer[:], h.Sum(nil))
}

// bytesToFloat is Σ b_i / 256^(i+1); every term is exact in float64.
func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	divider := 1.0
	for _, b := range bytes {
		divider *= 256
		result += float64(b) / divider
	}
	return result
}
