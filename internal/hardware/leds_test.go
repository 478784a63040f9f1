package hardware

import (
	"bytes"
	"testing"
)

func TestEncodeByte(t *testing.T) {
	cases := []struct {
		in   uint8
		want []byte
	}{
		// All ones: 0b110 repeated eight times.
		{0xFF, []byte{0xDB, 0x6D, 0xB6}},
		// All zeros: 0b100 repeated eight times.
		{0x00, []byte{0x92, 0x49, 0x24}},
		// MSB first: 0b110 then seven 0b100 groups.
		{0x80, []byte{0xD2, 0x49, 0x24}},
	}
	for _, tc := range cases {
		dst := make([]byte, 3)
		if n := encodeByte(dst, tc.in); n != 3 {
			t.Fatalf("encodeByte(%#x) wrote %d bytes", tc.in, n)
		}
		if !bytes.Equal(dst, tc.want) {
			t.Errorf("encodeByte(%#x) = % x, want % x", tc.in, dst, tc.want)
		}
	}
}
