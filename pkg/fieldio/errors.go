package fieldio

import (
	"errors"
	"fmt"
)

var (
	// ErrBadMagic is returned when the input does not start with "VXDF".
	ErrBadMagic = errors.New("fieldio: not a VXDF file")

	// ErrUnsupportedVersion is wrapped by every *VersionError.
	ErrUnsupportedVersion = errors.New("fieldio: unsupported format version")

	// ErrChecksum is returned when the payload does not match its CRC.
	ErrChecksum = errors.New("fieldio: payload checksum mismatch")

	// ErrCorrupt is returned for headers or payloads that are internally
	// inconsistent.
	ErrCorrupt = errors.New("fieldio: corrupt field")

	// ErrTooLarge is returned when a field's payload does not fit the
	// format's 32-bit size fields.
	ErrTooLarge = errors.New("fieldio: field too large for format")
)

// VersionError reports a header version this package cannot read.
type VersionError struct {
	Version uint8
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("fieldio: unsupported format version %d (want %d)", e.Version, Version)
}

func (e *VersionError) Unwrap() error { return ErrUnsupportedVersion }

// WidthMismatchError reports decoding a file into an element type of the
// wrong size.
type WidthMismatchError struct {
	File   uint8 // bytes per element in the file
	Target uint8 // bytes per element requested
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("fieldio: file holds %d-bit distances, decoding into %d-bit", 8*int(e.File), 8*int(e.Target))
}
