package wire

// VarSize layout: the two high bits of the first byte select the width,
// the remaining 6/14/22/30 bits hold the value big-endian.
//
//	00xxxxxx                             0 .. 0x3F
//	01xxxxxx xxxxxxxx                    0 .. 0x3FFF
//	10xxxxxx xxxxxxxx xxxxxxxx           0 .. 0x3FFFFF
//	11xxxxxx xxxxxxxx xxxxxxxx xxxxxxxx  0 .. 0x3FFFFFFF
const (
	MaxSize1 = 0x3F
	MaxSize2 = 0x3FFF
	MaxSize3 = 0x3FFFFF
	// MaxSize is the largest value a VarSize can carry.
	MaxSize = 0x3FFFFFFF

	sizeClassMask = 0xC0
)

// SizeLen returns the number of bytes WriteSize uses for n.
func SizeLen(n int) int {
	switch {
	case n <= MaxSize1:
		return 1
	case n <= MaxSize2:
		return 2
	case n <= MaxSize3:
		return 3
	}
	return 4
}

// AppendSize appends the VarSize encoding of n to dst.
// n must be in [0, MaxSize]; larger values panic.
func AppendSize(dst []byte, n int) []byte {
	if n < 0 || n > MaxSize {
		panic(ErrSizeOverflow)
	}

	switch SizeLen(n) {
	case 1:
		return append(dst, byte(n))
	case 2:
		return append(dst, byte(n>>8)&0x3F|0x40, byte(n))
	case 3:
		return append(dst, byte(n>>16)&0x3F|0x80, byte(n>>8), byte(n))
	}
	return append(dst, byte(n>>24)&0x3F|0xC0, byte(n>>16), byte(n>>8), byte(n))
}

// ReadSize decodes a VarSize at data[*offset:limit] and advances offset past it.
// It fails with ErrUnderrun if the encoded width runs past limit.
func ReadSize(data []byte, offset *int, limit int) (int, error) {
	at := *offset
	remaining := limit - at
	if remaining <= 0 {
		return 0, underrun("size", 1, remaining)
	}

	b0 := data[at]
	switch b0 & sizeClassMask {
	case 0x00:
		*offset = at + 1
		return int(b0), nil
	case 0x40:
		if remaining < 2 {
			return 0, underrun("size", 2, remaining)
		}
		*offset = at + 2
		return int(b0&0x3F)<<8 | int(data[at+1]), nil
	case 0x80:
		if remaining < 3 {
			return 0, underrun("size", 3, remaining)
		}
		*offset = at + 3
		return int(b0&0x3F)<<16 | int(data[at+1])<<8 | int(data[at+2]), nil
	}
	if remaining < 4 {
		return 0, underrun("size", 4, remaining)
	}
	*offset = at + 4
	return int(b0&0x3F)<<24 | int(data[at+1])<<16 | int(data[at+2])<<8 | int(data[at+3]), nil
}
