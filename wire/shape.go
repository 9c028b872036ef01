package wire

import "strings"

// maxDerivedFields is the largest field count for which a record looks for
// a size-derived field. Peers use the same threshold, so it is part of the wire format.
const maxDerivedFields = 3

// Kind classifies a schema node.
type Kind uint8

const (
	KindUint8 Kind = iota + 1
	KindInt8
	KindBool
	KindChar
	KindUint16
	KindInt16
	KindUint32
	KindInt32
	KindUint64
	KindInt64
	KindFloat32
	KindFloat64
	KindEnum
	KindString
	KindArray
	KindRecord
)

var kindNames = [...]string{
	KindUint8:   "uint8",
	KindInt8:    "int8",
	KindBool:    "bool",
	KindChar:    "char",
	KindUint16:  "uint16",
	KindInt16:   "int16",
	KindUint32:  "uint32",
	KindInt32:   "int32",
	KindUint64:  "uint64",
	KindInt64:   "int64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindEnum:    "enum",
	KindString:  "string",
	KindArray:   "array",
	KindRecord:  "record",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// shape is the type-level view of a schema used for size analysis.
type shape struct {
	kind Kind
	name string
	// width of scalars and enums
	width  int
	elem   *shape
	fields []*shape
}

// hasConstantSize reports whether every value of the shape encodes to the same number of bytes.
// Arrays and strings never do.
func (s *shape) hasConstantSize() bool {
	switch s.kind {
	case KindArray, KindString:
		return false
	case KindRecord:
		for _, f := range s.fields {
			if !f.hasConstantSize() {
				return false
			}
		}
		return true
	}
	return true
}

// constantSize returns the encoded width of a constant-size shape, -1 otherwise.
func (s *shape) constantSize() int {
	if !s.hasConstantSize() {
		return -1
	}
	if s.kind != KindRecord {
		return s.width
	}

	size := 0
	for _, f := range s.fields {
		size += f.constantSize()
	}
	return size
}

// canUtilizeDerivation reports whether the shape could have its length inferred
// from the remaining payload instead of an explicit prefix.
func (s *shape) canUtilizeDerivation() bool {
	switch s.kind {
	case KindString:
		return true
	case KindArray:
		return s.elem.hasConstantSize()
	case KindRecord:
		if len(s.fields) > maxDerivedFields {
			return false
		}

		derivable := 0
		for _, f := range s.fields {
			if f.breaksDerivation() {
				return false
			}
			if f.canUtilizeDerivation() {
				derivable++
			}
		}
		return derivable == 1
	}
	return false
}

// breaksDerivation reports whether the shape rules out derivation for any enclosing record.
func (s *shape) breaksDerivation() bool {
	switch s.kind {
	case KindString:
		return false
	case KindArray:
		return !s.elem.hasConstantSize()
	case KindRecord:
		derivable := 0
		for _, f := range s.fields {
			if f.breaksDerivation() {
				return true
			}
			if f.canUtilizeDerivation() {
				derivable++
			}
		}
		if len(s.fields) <= maxDerivedFields {
			return derivable > 1
		}
		return derivable > 0
	}
	return false
}

// derivedField picks the field of a record that carries the derived length.
// It returns the field index and the constant size of all fields after it.
func (s *shape) derivedField() (index, offsetFromEnd int, ok bool) {
	if s.kind != KindRecord || len(s.fields) > maxDerivedFields {
		return 0, 0, false
	}

	index = -1
	for i, f := range s.fields {
		if f.breaksDerivation() {
			return 0, 0, false
		}
		if f.canUtilizeDerivation() {
			if index >= 0 {
				return 0, 0, false
			}
			index = i
		}
	}
	if index < 0 {
		return 0, 0, false
	}

	for _, f := range s.fields[index+1:] {
		offsetFromEnd += f.constantSize()
	}
	return index, offsetFromEnd, true
}

// validate rejects records without fields anywhere in the tree.
func (s *shape) validate() error {
	switch s.kind {
	case KindArray:
		return s.elem.validate()
	case KindRecord:
		if len(s.fields) == 0 {
			return &SchemaError{Name: s.name, Err: ErrEmptyRecord}
		}
		for _, f := range s.fields {
			if err := f.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *shape) String() string {
	switch s.kind {
	case KindArray:
		return "[]" + s.elem.String()
	case KindRecord, KindEnum:
		if s.name != "" {
			return s.name
		}
	}
	return s.kind.String()
}

// SchemaError reports a schema that cannot be compiled.
type SchemaError struct {
	Name string
	Err  error
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("wire: schema")
	if e.Name != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Name)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
