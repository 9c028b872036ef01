package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrUnderrun is returned when the payload ends before a value could be read.
	ErrUnderrun = errors.New("wire: streaming underrun")
	// ErrTrailingBytes is returned when a payload holds more bytes than its record consumed.
	ErrTrailingBytes = errors.New("wire: trailing bytes after record")
	// ErrEmptyRecord is returned at compile time for a record schema without fields.
	ErrEmptyRecord = errors.New("wire: record has no fields")
	// ErrSizeOverflow is returned when a size does not fit into a VarSize.
	ErrSizeOverflow = errors.New("wire: size exceeds varsize range")
)

// underrun reports a read of need bytes with only have bytes left.
func underrun(what string, need, have int) error {
	return fmt.Errorf("%w: %s needs %d bytes, %d left", ErrUnderrun, what, need, have)
}
