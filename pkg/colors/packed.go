package colors

// Pack encodes RGBA channels as 0xRRGGBBAA.
func Pack(r, g, b, a uint8) uint32 {
	return uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a)
}

// Unpack decodes a 0xRRGGBBAA colour.
func Unpack(c uint32) (r, g, b, a uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}
