package schema

import "errors"

type FieldType uint8

const (
	Int8FieldType FieldType = iota
	Int16FieldType
	Int32FieldType
	Int64FieldType

	Float64FieldType
	Float32FieldType

	Uint64FieldType
	Uint8FieldType
	Uint32FieldType
	Uint16FieldType

	StringFieldType
)

var (
	ErrUnsupportedDataType = errors.New("unsupported data type")
)

func (f FieldType) String() string {
	switch f {
	case Int8FieldType:
		return "Int8"
	case Int16FieldType:
		return "Int16"
	case Int32FieldType:
		return "Int32"
	case Int64FieldType:
		return "Int64"
	case Float64FieldType:
		return "Float64"
	case Float32FieldType:
		return "Float32"
	case Uint64FieldType:
		return "Uint64"
	case Uint8FieldType:
		return "Uint8"
	case Uint32FieldType:
		return "Uint32"
	case Uint16FieldType:
		return "Uint16"
	case StringFieldType:
		return "String"
	default:
		return ""
	}
}

// Size of a single value in bytes, 0 for variable sized types.
func (f FieldType) Size() int {
	switch f {

	case Int8FieldType, Uint8FieldType:
		return 1
	case Int16FieldType, Uint16FieldType:
		return 2
	case Int32FieldType, Float32FieldType, Uint32FieldType:
		return 4
	case Int64FieldType, Float64FieldType, Uint64FieldType:
		return 8
	case StringFieldType:
		return 0

	default:
		panic("unknown field type " + f.String())
	}
}

func (f FieldType) IsNumeric() bool {
	switch f {
	case Int8FieldType, Int16FieldType, Int32FieldType, Int64FieldType,
		Uint8FieldType, Uint16FieldType, Uint32FieldType, Uint64FieldType,
		Float32FieldType, Float64FieldType:
		return true
	default:
		return false
	}
}

func (f FieldType) IsFloat() bool {
	return f == Float32FieldType || f == Float64FieldType
}
