package ftpc

// Type is the representation type used for transfers (TYPE command).
type Type string

const (
	// TypeASCII is the default representation type ("TYPE A").
	TypeASCII Type = "A"
	// TypeBinary is the image type ("TYPE I"), required for file content.
	TypeBinary Type = "I"
)

func (t Type) String() string {
	switch t {
	case TypeASCII:
		return "ascii"
	case TypeBinary:
		return "binary"
	default:
		return string(t)
	}
}
