package schema

// EnumWidthBits returns the bit width of an enum's declared underlying
// type. Unknown widths default to 8, matching the exporter's fallback.
func EnumWidthBits(underlying string) int {
	switch underlying {
	case "uint8", "int8":
		return 8
	case "uint16", "int16":
		return 16
	case "uint32", "int32":
		return 32
	case "uint64", "int64":
		return 64
	default:
		return 8
	}
}

// HasNegative reports whether any variant carries a negative value.
func (e *Enum) HasNegative() bool {
	for _, p := range e.Pairs {
		if p.Value < 0 {
			return true
		}
	}
	return false
}

// NormalizeEnum deduplicates variant values and, when the enum mixes
// negative values with large unsigned ones, reinterprets every value
// through the signed integer of the declared width. The host serializes
// enum values as 64-bit signed integers regardless of declared width, so
// an 8-bit variant stored as 255 and one stored as -1 are the same value
// and must collapse to a single signed representation (-1).
func NormalizeEnum(e *Enum) {
	if e.HasNegative() {
		bits := EnumWidthBits(e.Underlying)
		for i := range e.Pairs {
			e.Pairs[i].Value = signExtend(e.Pairs[i].Value, bits)
		}
	}

	seen := make(map[int64]bool, len(e.Pairs))
	out := e.Pairs[:0]
	for _, p := range e.Pairs {
		if seen[p.Value] {
			continue
		}
		seen[p.Value] = true
		out = append(out, p)
	}
	e.Pairs = out
}

// signExtend truncates v to the given bit width and sign-extends it back
// to 64 bits.
func signExtend(v int64, bits int) int64 {
	switch bits {
	case 8:
		return int64(int8(v))
	case 16:
		return int64(int16(v))
	case 32:
		return int64(int32(v))
	default:
		return v
	}
}
