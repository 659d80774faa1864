// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package since

import "fmt"

const (
	numberBits  = 24
	indexBits   = 16
	lengthBits  = 16
	indexShift  = numberBits
	lengthShift = numberBits + indexBits

	NumberMax uint64 = 1 << numberBits
	IndexMax  uint64 = 1 << indexBits
	LengthMax uint64 = 1 << lengthBits

	numberMask = NumberMax - 1
	indexMask  = IndexMax - 1
	lengthMask = LengthMax - 1
)

// EpochNumberWithFraction is a rational position inside the epoch sequence:
// Number full epochs plus Index/Length of the next one. It packs into
// length:16 | index:16 | number:24.
type EpochNumberWithFraction uint64

// NewEpoch returns the packed epoch, or false unless number < 2^24,
// 0 < length < 2^16 and index < length.
func NewEpoch(number, index, length uint64) (EpochNumberWithFraction, bool) {
	if number >= NumberMax || index >= IndexMax || length >= LengthMax || length == 0 || index >= length {
		return 0, false
	}
	return newEpochUnchecked(number, index, length), true
}

// MustEpoch is NewEpoch for constant arguments. It panics on invalid input.
func MustEpoch(number, index, length uint64) EpochNumberWithFraction {
	e, ok := NewEpoch(number, index, length)
	if !ok {
		panic(fmt.Sprintf("invalid epoch %d %d/%d", number, index, length))
	}
	return e
}

func newEpochUnchecked(number, index, length uint64) EpochNumberWithFraction {
	return EpochNumberWithFraction(length<<lengthShift | index<<indexShift | number)
}

// EpochFromFullValue interprets a packed value. A zero length would make the
// fraction undefined, so it is rewritten to index 0 of length 1.
func EpochFromFullValue(v uint64) EpochNumberWithFraction {
	e := EpochNumberWithFraction(v)
	if e.Length() == 0 {
		return newEpochUnchecked(e.Number(), 0, 1)
	}
	return e
}

func (e EpochNumberWithFraction) Number() uint64    { return uint64(e) & numberMask }
func (e EpochNumberWithFraction) Index() uint64     { return (uint64(e) >> indexShift) & indexMask }
func (e EpochNumberWithFraction) Length() uint64    { return (uint64(e) >> lengthShift) & lengthMask }
func (e EpochNumberWithFraction) FullValue() uint64 { return uint64(e) }

func (e EpochNumberWithFraction) String() string {
	return fmt.Sprintf("%d(%d/%d)", e.Number(), e.Index(), e.Length())
}

// Compare orders two epochs by their rational value. It returns -1, 0 or 1.
func (e EpochNumberWithFraction) Compare(other EpochNumberWithFraction) int {
	switch {
	case e.Number() < other.Number():
		return -1
	case e.Number() > other.Number():
		return 1
	}
	// Both factors are below 2^16, the products fit in a u64.
	a := e.Index() * other.Length()
	b := other.Index() * e.Length()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Add returns e + other with the fraction reduced to lowest terms. It fails
// when the epoch number, or the reduced fraction, no longer fits.
func (e EpochNumberWithFraction) Add(other EpochNumberWithFraction) (EpochNumberWithFraction, bool) {
	number := e.Number() + other.Number()

	// Indexes and lengths are below 2^16 so none of this can overflow.
	numerator := e.Index()*other.Length() + other.Index()*e.Length()
	denominator := e.Length() * other.Length()
	if denominator == 0 {
		return 0, false
	}
	if divisor := gcd(numerator, denominator); divisor != 0 {
		numerator /= divisor
		denominator /= divisor
	}

	number += numerator / denominator
	numerator %= denominator

	return NewEpoch(number, numerator, denominator)
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
