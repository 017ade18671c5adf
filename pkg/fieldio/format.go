// Package fieldio reads and writes distance fields in the VXDF container
// format.
//
// A file is a fixed 36-byte little-endian header followed by the payload:
//
//	offset size field
//	     0    4 magic "VXDF"
//	     4    1 version (1)
//	     5    1 element width in bytes (1, 2 or 4)
//	     6    1 compression (0 none, 1 LZ4 block, 2 zstd frame)
//	     7    1 reserved, zero
//	     8   12 dims X, Y, Z (uint32 each)
//	    20    4 cap
//	    24    4 raw payload size
//	    28    4 stored payload size
//	    32    4 CRC-32C of the raw payload
//
// The raw payload is every distance as a little-endian unsigned integer of
// the element width, x fastest, then y, then z.
package fieldio

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/chazu/voxfield/pkg/distfield"
)

// Version is the format version written by this package.
const Version = 1

// HeaderSize is the encoded size of Header.
const HeaderSize = 36

var magic = [4]byte{'V', 'X', 'D', 'F'}

// Compression identifies the payload codec.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 is a single LZ4 block (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd is a single zstd frame (better ratio).
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression maps "none", "lz4" or "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	}
	return 0, fmt.Errorf("fieldio: unknown compression %q (want none, lz4 or zstd)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Compression) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Compression) UnmarshalText(b []byte) error {
	v, err := ParseCompression(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Header describes an encoded field. Compression is the codec actually used
// for the payload, which is CompressionNone when compressing did not pay off.
type Header struct {
	Version     uint8          `json:"version" yaml:"version"`
	Width       uint8          `json:"width" yaml:"width"`
	Compression Compression    `json:"compression" yaml:"compression"`
	Dims        distfield.Dims `json:"dims" yaml:"dims"`
	Cap         uint32         `json:"cap" yaml:"cap"`
	RawSize     uint32         `json:"raw_size" yaml:"raw_size"`
	StoredSize  uint32         `json:"stored_size" yaml:"stored_size"`
	Checksum    uint32         `json:"checksum" yaml:"checksum"`
}

// Ratio returns stored size over raw size.
func (h Header) Ratio() float64 {
	if h.RawSize == 0 {
		return 1
	}
	return float64(h.StoredSize) / float64(h.RawSize)
}

func (h Header) marshal() [HeaderSize]byte {
	var b [HeaderSize]byte
	copy(b[0:4], magic[:])
	b[4] = h.Version
	b[5] = h.Width
	b[6] = uint8(h.Compression)
	binary.LittleEndian.PutUint32(b[8:], uint32(h.Dims.X))
	binary.LittleEndian.PutUint32(b[12:], uint32(h.Dims.Y))
	binary.LittleEndian.PutUint32(b[16:], uint32(h.Dims.Z))
	binary.LittleEndian.PutUint32(b[20:], h.Cap)
	binary.LittleEndian.PutUint32(b[24:], h.RawSize)
	binary.LittleEndian.PutUint32(b[28:], h.StoredSize)
	binary.LittleEndian.PutUint32(b[32:], h.Checksum)
	return b
}

// unmarshalHeader parses and sanity-checks a header. It does not look at
// the payload.
func unmarshalHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header is %d bytes", ErrCorrupt, len(b))
	}
	if [4]byte(b[0:4]) != magic {
		return Header{}, ErrBadMagic
	}
	h := Header{
		Version:     b[4],
		Width:       b[5],
		Compression: Compression(b[6]),
		Dims: distfield.Dims{
			X: int(binary.LittleEndian.Uint32(b[8:])),
			Y: int(binary.LittleEndian.Uint32(b[12:])),
			Z: int(binary.LittleEndian.Uint32(b[16:])),
		},
		Cap:        binary.LittleEndian.Uint32(b[20:]),
		RawSize:    binary.LittleEndian.Uint32(b[24:]),
		StoredSize: binary.LittleEndian.Uint32(b[28:]),
		Checksum:   binary.LittleEndian.Uint32(b[32:]),
	}
	if h.Version != Version {
		return h, &VersionError{Version: h.Version}
	}
	switch h.Width {
	case 1, 2, 4:
	default:
		return h, fmt.Errorf("%w: element width %d", ErrCorrupt, h.Width)
	}
	switch h.Compression {
	case CompressionNone, CompressionLZ4, CompressionZstd:
	default:
		return h, fmt.Errorf("%w: compression %d", ErrCorrupt, h.Compression)
	}
	if err := h.Dims.Validate(); err != nil {
		return h, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if want := uint64(h.Dims.Len()) * uint64(h.Width); uint64(h.RawSize) != want {
		return h, fmt.Errorf("%w: raw size %d, dims need %d", ErrCorrupt, h.RawSize, want)
	}
	if h.StoredSize > h.RawSize {
		return h, fmt.Errorf("%w: stored size %d exceeds raw size %d", ErrCorrupt, h.StoredSize, h.RawSize)
	}
	if h.Compression == CompressionNone && h.StoredSize != h.RawSize {
		return h, fmt.Errorf("%w: uncompressed payload of %d bytes, expected %d", ErrCorrupt, h.StoredSize, h.RawSize)
	}
	if h.Cap == 0 || uint64(h.Cap) > widthMax(h.Width) {
		return h, fmt.Errorf("%w: cap %d does not fit %d-byte elements", ErrCorrupt, h.Cap, h.Width)
	}
	return h, nil
}

func widthMax(w uint8) uint64 {
	return 1<<(8*uint64(w)) - 1
}

// widthOf returns the element size of T in bytes.
func widthOf[T distfield.Distance]() uint8 {
	switch uint64(distfield.MaxOf[T]()) {
	case 0xFF:
		return 1
	case 0xFFFF:
		return 2
	default:
		return 4
	}
}
