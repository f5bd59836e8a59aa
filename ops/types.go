package ops

type NumericTypes interface {
	SignedInts | UnsignedInts | Floats
}

type SignedInts interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type UnsignedInts interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type Floats interface {
	~float32 | ~float64
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
