package bytepack

import "math"

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

// grow extends buf by n zero bytes and returns the offset of the first new byte.
func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	if newLen > math.MaxUint32 {
		panic("bytepack: packed value exceeds 4 GiB")
	}
	buf = ensureCapacity(buf, newLen)
	buf = buf[:newLen]
	clear(buf[off:])
	return off, buf
}

func appendRaw(buf []byte, chunk []byte) []byte {
	n := len(chunk)
	off, buf := grow(buf, n)
	copy(buf[off:], chunk)
	return buf
}
