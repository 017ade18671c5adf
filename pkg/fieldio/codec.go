package fieldio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/chazu/voxfield/pkg/distfield"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Encode writes f to w using compression c and returns the header written.
func Encode[T distfield.Distance](w io.Writer, f *distfield.Field[T], c Compression) (Header, error) {
	if err := f.Dims.Validate(); err != nil {
		return Header{}, err
	}
	if len(f.Data) != f.Dims.Len() {
		return Header{}, &distfield.LengthMismatchError{Buffer: "distance", Expected: f.Dims.Len(), Actual: len(f.Data)}
	}
	if f.Cap == 0 {
		return Header{}, distfield.ErrInvalidCap
	}

	width := widthOf[T]()
	rawSize := uint64(len(f.Data)) * uint64(width)
	if rawSize > math.MaxUint32 {
		return Header{}, fmt.Errorf("%w: %s at %d bytes per cell", ErrTooLarge, f.Dims, width)
	}

	raw := pack(f.Data, width)
	stored, used, err := compress(raw, c)
	if err != nil {
		return Header{}, err
	}

	h := Header{
		Version:     Version,
		Width:       width,
		Compression: used,
		Dims:        f.Dims,
		Cap:         uint32(f.Cap),
		RawSize:     uint32(len(raw)),
		StoredSize:  uint32(len(stored)),
		Checksum:    crc32.Checksum(raw, castagnoli),
	}
	hb := h.marshal()
	if _, err := w.Write(hb[:]); err != nil {
		return Header{}, fmt.Errorf("fieldio: write header: %w", err)
	}
	if _, err := w.Write(stored); err != nil {
		return Header{}, fmt.Errorf("fieldio: write payload: %w", err)
	}
	return h, nil
}

// PeekHeader reads and validates only the header.
func PeekHeader(r io.Reader) (Header, error) {
	var b [HeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Header{}, fmt.Errorf("%w: truncated header", ErrCorrupt)
		}
		return Header{}, err
	}
	return unmarshalHeader(b[:])
}

// Decode reads a field whose element width matches T.
func Decode[T distfield.Distance](r io.Reader) (*distfield.Field[T], Header, error) {
	h, err := PeekHeader(r)
	if err != nil {
		return nil, h, err
	}
	if want := widthOf[T](); h.Width != want {
		return nil, h, &WidthMismatchError{File: h.Width, Target: want}
	}
	raw, err := readPayload(r, h)
	if err != nil {
		return nil, h, err
	}
	return &distfield.Field[T]{
		Dims: h.Dims,
		Cap:  T(h.Cap),
		Data: unpack[T](raw, h.Width),
	}, h, nil
}

// DecodeAny reads a field of any element width, widening it to uint32.
func DecodeAny(r io.Reader) (*distfield.Field[uint32], Header, error) {
	h, err := PeekHeader(r)
	if err != nil {
		return nil, h, err
	}
	raw, err := readPayload(r, h)
	if err != nil {
		return nil, h, err
	}
	return &distfield.Field[uint32]{
		Dims: h.Dims,
		Cap:  h.Cap,
		Data: unpack[uint32](raw, h.Width),
	}, h, nil
}

// readPayload reads, expands and verifies the payload described by h. The
// stored bytes are grown as they arrive, never sized from the header.
func readPayload(r io.Reader, h Header) ([]byte, error) {
	stored, err := io.ReadAll(io.LimitReader(r, int64(h.StoredSize)))
	if err != nil {
		return nil, err
	}
	if len(stored) != int(h.StoredSize) {
		return nil, fmt.Errorf("%w: truncated payload, %d of %d bytes", ErrCorrupt, len(stored), h.StoredSize)
	}
	raw, err := decompress(stored, h.Compression, int(h.RawSize))
	if err != nil {
		return nil, err
	}
	if crc32.Checksum(raw, castagnoli) != h.Checksum {
		return nil, ErrChecksum
	}
	return raw, nil
}

// pack serializes data as little-endian integers of the given width.
func pack[T distfield.Distance](data []T, width uint8) []byte {
	out := make([]byte, len(data)*int(width))
	switch width {
	case 1:
		for i, v := range data {
			out[i] = byte(v)
		}
	case 2:
		for i, v := range data {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
		}
	default:
		for i, v := range data {
			binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
		}
	}
	return out
}

// unpack is the inverse of pack. T must be at least width bytes wide.
func unpack[T distfield.Distance](raw []byte, width uint8) []T {
	n := len(raw) / int(width)
	out := make([]T, n)
	switch width {
	case 1:
		for i := range out {
			out[i] = T(raw[i])
		}
	case 2:
		for i := range out {
			out[i] = T(binary.LittleEndian.Uint16(raw[2*i:]))
		}
	default:
		for i := range out {
			out[i] = T(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	}
	return out
}

// WriteFile encodes f into path. The file is written beside path and renamed
// into place, so readers never see a partial field.
func WriteFile[T distfield.Distance](path string, f *distfield.Field[T], c Compression) (Header, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return Header{}, fmt.Errorf("fieldio: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return Header{}, fmt.Errorf("fieldio: %w", err)
	}
	bw := bufio.NewWriter(tmp)
	h, err := Encode(bw, f, c)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Header{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Header{}, fmt.Errorf("fieldio: %w", err)
	}
	return h, nil
}

// ReadFile decodes the field stored at path.
func ReadFile[T distfield.Distance](path string) (*distfield.Field[T], Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("fieldio: %w", err)
	}
	defer file.Close()
	return Decode[T](bufio.NewReader(file))
}

// ReadFileAny decodes the field stored at path whatever its width.
func ReadFileAny(path string) (*distfield.Field[uint32], Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("fieldio: %w", err)
	}
	defer file.Close()
	return DecodeAny(bufio.NewReader(file))
}

// PeekFile reads only the header of the field stored at path.
func PeekFile(path string) (Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("fieldio: %w", err)
	}
	defer file.Close()
	return PeekHeader(file)
}
