package models

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"
)

// NormalSource produces independent standard normal draws. Implementations are
// not safe for concurrent use; each worker owns one.
type NormalSource interface {
	NormFloat64() float64
}

// SourceFactory returns the normal source for one stream of a run. The same
// stream index always yields the same sequence for a given factory.
type SourceFactory func(stream uint64) NormalSource

type NormalMethod string

const (
	Ziggurat  NormalMethod = "ziggurat"
	BoxMuller NormalMethod = "box-muller"
)

func ParseNormalMethod(s string) (NormalMethod, error) {
	switch NormalMethod(s) {
	case Ziggurat, "":
		return Ziggurat, nil
	case BoxMuller:
		return BoxMuller, nil
	}
	return "", fmt.Errorf("%w: unknown normal method %q", ErrInvalidParameter, s)
}

// NewSourceFactory seeds every stream from seed. Streams are decorrelated by
// hashing (seed, stream) before seeding the PCG generator.
func NewSourceFactory(method NormalMethod, seed uint64) SourceFactory {
	return func(stream uint64) NormalSource {
		rng := rand.New(rand.NewSource(MixSeed(seed, stream)))
		if method == BoxMuller {
			return &boxMullerSource{rng: rng}
		}
		return rng
	}
}

// MixSeed derives a child seed with the SplitMix64 finalizer.
func MixSeed(seed, stream uint64) uint64 {
	z := seed + (stream+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// RandomSeed draws a run seed from the operating system.
func RandomSeed() uint64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

type boxMullerSource struct {
	rng   *rand.Rand
	spare float64
	ready bool
}

func (b *boxMullerSource) NormFloat64() float64 {
	if b.ready {
		b.ready = false
		return b.spare
	}

	u1 := b.rng.Float64()
	for u1 == 0 {
		u1 = b.rng.Float64()
	}
	u2 := b.rng.Float64()

	r := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	b.spare = r * math.Sin(theta)
	b.ready = true
	return r * math.Cos(theta)
}
