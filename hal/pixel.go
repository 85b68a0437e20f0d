package hal

func rgb888From565(p uint16) (r, g, b uint8) {
	rr := (p >> 11) & 0x1F
	gg := (p >> 5) & 0x3F
	bb := p & 0x1F

	r = uint8((rr * 255) / 31)
	g = uint8((gg * 255) / 63)
	b = uint8((bb * 255) / 31)
	return r, g, b
}

// be565 reads one bus-order pixel.
func be565(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
