package ax178

// Seven-segment digit encoding: segment a is bit 0 through g at bit 6.
//
//	 _a_
//	f| g |b
//	 |___|
//	e|   |c
//	 |_d_|
const (
	segBlank    uint8 = 0x00 // leading zero suppression, reads as 0
	segOverload uint8 = 0x38 // the "L" of the OL overload glyph
)

// decodeSegments maps a digit group's segment bits to its numeric value.
// blank and overload report the two non-numeric glyphs; any other pattern is
// unrecognized and means the bit window slipped.
func decodeSegments(pattern uint8) (digit int, blank, overload, ok bool) {
	switch pattern {
	case 0x3F:
		return 0, false, false, true
	case 0x06:
		return 1, false, false, true
	case 0x5B:
		return 2, false, false, true
	case 0x4F:
		return 3, false, false, true
	case 0x66:
		return 4, false, false, true
	case 0x6D:
		return 5, false, false, true
	case 0x7D:
		return 6, false, false, true
	case 0x07:
		return 7, false, false, true
	case 0x7F:
		return 8, false, false, true
	case 0x6F:
		return 9, false, false, true
	case segBlank:
		return 0, true, false, true
	case segOverload:
		return 0, false, true, true
	}
	return 0, false, false, false
}

// segmentPattern is the inverse of decodeSegments for the ten digits.
func segmentPattern(digit int) uint8 {
	return [10]uint8{0x3F, 0x06, 0x5B, 0x4F, 0x66, 0x6D, 0x7D, 0x07, 0x7F, 0x6F}[digit]
}
