package bits

import (
	mbits "math/bits"
	"testing"
)

func TestGetBits(t *testing.T) {
	const val = 0xDEADBEEF
	if got := GetBits(val, 15, 0); got != 0xBEEF {
		t.Errorf("GetBits[15:0]: got 0x%x, want 0xBEEF", got)
	}
	if got := GetBits(val, 31, 16); got != 0xDEAD {
		t.Errorf("GetBits[31:16]: got 0x%x, want 0xDEAD", got)
	}
	if got := GetBits(val, 15, 15); got != 1 {
		t.Errorf("GetBits[15:15]: got %d, want 1", got)
	}
}

func TestGetBitsAllOnesWidth(t *testing.T) {
	for high := uint(0); high < SizeofBits; high++ {
		for low := uint(0); low <= high; low++ {
			got := GetBits(0xFFFFFFFF, high, low)
			want := high - low + 1
			if uint(mbits.Len32(got)) != want || uint(mbits.OnesCount32(got)) != want {
				t.Fatalf("GetBits(ones, %d, %d) = 0x%x, want %d ones", high, low, got, want)
			}
		}
	}
}

func TestSignExtendTo(t *testing.T) {
	tests := []struct {
		newSize, oldSize uint
		want             uint32
	}{
		{32, 16, 0xFFFFBEEF},
		{21, 16, 0x1FBEEF},
		{32, 17, 0xBEEF},
		{32, 15, 0x3EEF},
		{16, 15, 0x3EEF},
		{16, 16, 0xBEEF},
	}
	for _, tt := range tests {
		if got := SignExtendTo(0xBEEF, tt.newSize, tt.oldSize); got != tt.want {
			t.Errorf("SignExtendTo(0xBEEF, %d, %d): got 0x%x, want 0x%x",
				tt.newSize, tt.oldSize, got, tt.want)
		}
	}
}

func TestSignExtendFull(t *testing.T) {
	if got := SignExtend(0xBEEF, 16); got != 0xFFFFBEEF {
		t.Errorf("SignExtend(0xBEEF, 16): got 0x%x, want 0xFFFFBEEF", got)
	}
	if got := SignExtend(0xBEEF, 17); got != 0xBEEF {
		t.Errorf("SignExtend(0xBEEF, 17): got 0x%x, want 0xBEEF", got)
	}
	if got := SignExtend(0xBEEF, 15); got != 0x3EEF {
		t.Errorf("SignExtend(0xBEEF, 15): got 0x%x, want 0x3EEF", got)
	}
}

func TestSignExtendIdempotent(t *testing.T) {
	for _, size := range []uint{1, 5, 12, 13, 16, 21, 31, 32} {
		for _, x := range []uint32{0, 1, 0x7FF, 0x800, 0xFFF, 0xBEEF, 0x80000000, 0xFFFFFFFF} {
			once := SignExtend(x, size)
			if twice := SignExtend(once, size); twice != once {
				t.Errorf("SignExtend not idempotent for x=0x%x size=%d: 0x%x vs 0x%x", x, size, once, twice)
			}
			if size < SizeofBits && x&(1<<(size-1)) != 0 {
				if hi := GetBits(once, SizeofBits-1, size-1); hi != Mask(SizeofBits-size, 0) {
					t.Errorf("SignExtend(0x%x, %d) = 0x%x: upper bits not set", x, size, once)
				}
			}
		}
	}
}

func TestSetBit(t *testing.T) {
	const val = 0xBEEF
	if got := SetBit(val, 0, false); got != 0xBEEE {
		t.Errorf("clear bit 0: got 0x%x", got)
	}
	if got := SetBit(val, 4, true); got != 0xBEFF {
		t.Errorf("set bit 4: got 0x%x", got)
	}
	if got := SetBit(val, 2, true); got != 0xBEEF {
		t.Errorf("set bit 2: got 0x%x", got)
	}
	if got := SetBit(val, 4, false); got != 0xBEEF {
		t.Errorf("clear bit 4: got 0x%x", got)
	}
}

func TestInvalidRangePanics(t *testing.T) {
	cases := map[string]func(){
		"reversed":    func() { GetBits(0, 3, 4) },
		"too high":    func() { GetBits(0, 32, 0) },
		"shrink":      func() { SignExtendTo(0, 8, 16) },
		"zero size":   func() { SignExtend(0, 0) },
		"setbit high": func() { SetBit(0, 32, true) },
	}
	for name, fn := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", name)
				}
			}()
			fn()
		}()
	}
}
