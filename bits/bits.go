// Package bits provides the field-extraction and sign-extension primitives
// shared by the decoder, the executor and the memory subsystem. All helpers
// operate on 32-bit machine words.
//
// Bit ranges are always constants chosen by the caller, so an invalid range
// is a programming error and panics instead of returning an error.
package bits

import "fmt"

// SizeofBits is the machine word width in bits.
const SizeofBits = 32

// Mask returns a word with ones in bit positions [high, low].
func Mask(high, low uint) uint32 {
	checkRange(high, low)
	m := ^uint32(0)
	if high != SizeofBits-1 {
		m = ^(m << (high + 1))
	}
	return m &^ (uint32(1)<<low - 1)
}

// GetBits returns bits [high, low] of word shifted down to bit 0.
func GetBits(word uint32, high, low uint) uint32 {
	return (word & Mask(high, low)) >> low
}

// SetBit sets (set == true) or clears bit pos of word.
func SetBit(word uint32, pos uint, set bool) uint32 {
	if pos >= SizeofBits {
		panic(fmt.Sprintf("bits: bit index %d out of range", pos))
	}
	if set {
		return word | uint32(1)<<pos
	}
	return word &^ (uint32(1) << pos)
}

// SignExtendTo sign-extends the low oldSize bits of word to newSize bits.
// Bits above newSize-1 are cleared in the result.
//
// The value is first truncated to oldSize bits, then the sign bit m is
// folded with (x ^ m) - m, which broadcasts it into every higher position.
func SignExtendTo(word uint32, newSize, oldSize uint) uint32 {
	switch {
	case oldSize == 0:
		panic("bits: initial size must be non-zero")
	case newSize < oldSize:
		panic(fmt.Sprintf("bits: cannot sign extend %d bits to %d", oldSize, newSize))
	case newSize > SizeofBits:
		panic(fmt.Sprintf("bits: target size %d exceeds word width", newSize))
	}
	if newSize == oldSize {
		return word
	}
	zeroed := GetBits(word, oldSize-1, 0)
	m := uint32(1) << (oldSize - 1)
	return GetBits((zeroed^m)-m, newSize-1, 0)
}

// SignExtend sign-extends the low oldSize bits of word to the full word.
func SignExtend(word uint32, oldSize uint) uint32 {
	return SignExtendTo(word, SizeofBits, oldSize)
}

func checkRange(high, low uint) {
	if high < low {
		panic(fmt.Sprintf("bits: incorrect range [%d:%d]", high, low))
	}
	if high >= SizeofBits {
		panic(fmt.Sprintf("bits: bit index %d out of range", high))
	}
}
