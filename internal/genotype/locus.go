package genotype

import "fmt"

// Locus is an ordered pair of bits (a, b) packed as a<<1 | b.
type Locus uint8

const (
	L00 Locus = 0b00
	L01 Locus = 0b01
	L10 Locus = 0b10
	L11 Locus = 0b11
)

// NewLocus builds a locus from two bits.
func NewLocus(a, b int) (Locus, error) {
	if (a != 0 && a != 1) || (b != 0 && b != 1) {
		return 0, fmt.Errorf("%w: locus bits must be 0 or 1, got (%d,%d)", ErrInvalidArgument, a, b)
	}
	return Locus(a<<1 | b), nil
}

func (l Locus) Bits() (a, b int) {
	return int(l>>1) & 1, int(l) & 1
}

func (l Locus) Valid() bool {
	return l <= L11
}

// Ones counts the set bits of the pair.
func (l Locus) Ones() int {
	a, b := l.Bits()
	return a + b
}

func (l Locus) String() string {
	a, b := l.Bits()
	return fmt.Sprintf("(%d,%d)", a, b)
}
