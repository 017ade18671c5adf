package fieldio

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/voxfield/pkg/distfield"
)

// sphereField transforms a ball of radius r centred in an n-cube.
func sphereField[T distfield.Distance](t *testing.T, n, r int) *distfield.Field[T] {
	t.Helper()
	dims := distfield.Cube(n)
	occ := make([]bool, dims.Len())
	c := n / 2
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dx, dy, dz := x-c, y-c, z-c
				occ[dims.Index(x, y, z)] = dx*dx+dy*dy+dz*dz <= r*r
			}
		}
	}
	f, err := distfield.New[T](occ, dims)
	require.NoError(t, err)
	return f
}

// noiseField holds random distances, which compress poorly.
func noiseField(n int) *distfield.Field[uint8] {
	dims := distfield.Cube(n)
	rng := rand.New(rand.NewPCG(7, 11))
	data := make([]uint8, dims.Len())
	for i := range data {
		data[i] = uint8(rng.UintN(256))
	}
	return &distfield.Field[uint8]{Dims: dims, Cap: 255, Data: data}
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			t.Run("uint8", func(t *testing.T) { roundTrip(t, sphereField[uint8](t, 24, 6), c) })
			t.Run("uint16", func(t *testing.T) { roundTrip(t, sphereField[uint16](t, 24, 6), c) })
			t.Run("uint32", func(t *testing.T) { roundTrip(t, sphereField[uint32](t, 24, 6), c) })
		})
	}
}

func roundTrip[T distfield.Distance](t *testing.T, f *distfield.Field[T], c Compression) {
	t.Helper()
	var buf bytes.Buffer
	h, err := Encode(&buf, f, c)
	require.NoError(t, err)
	assert.Equal(t, HeaderSize+int(h.StoredSize), buf.Len())
	assert.Equal(t, uint8(Version), h.Version)
	assert.Equal(t, f.Dims, h.Dims)
	assert.Equal(t, uint32(f.Cap), h.Cap)

	got, gh, err := Decode[T](&buf)
	require.NoError(t, err)
	assert.Equal(t, h, gh)
	assert.Equal(t, f.Dims, got.Dims)
	assert.Equal(t, f.Cap, got.Cap)
	assert.Equal(t, f.Data, got.Data)
}

func TestCompressionShrinksSmoothFields(t *testing.T) {
	f := sphereField[uint16](t, 32, 8)
	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		var buf bytes.Buffer
		h, err := Encode(&buf, f, c)
		require.NoError(t, err)
		assert.Equal(t, c, h.Compression, "smooth field should stay compressed")
		assert.Less(t, h.Ratio(), minSavings)
	}
}

func TestIncompressibleStoredRaw(t *testing.T) {
	f := noiseField(16)
	var buf bytes.Buffer
	h, err := Encode(&buf, f, CompressionLZ4)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, h.Compression)
	assert.Equal(t, h.RawSize, h.StoredSize)

	got, _, err := Decode[uint8](&buf)
	require.NoError(t, err)
	assert.Equal(t, f.Data, got.Data)
}

func TestPeekHeader(t *testing.T) {
	f := sphereField[uint16](t, 10, 3)
	var buf bytes.Buffer
	h, err := Encode(&buf, f, CompressionZstd)
	require.NoError(t, err)

	peeked, err := PeekHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, h, peeked)
	assert.Equal(t, uint8(2), peeked.Width)
	assert.Equal(t, uint32(10*10*10*2), peeked.RawSize)
}

func TestDecodeAnyWidens(t *testing.T) {
	f := sphereField[uint8](t, 12, 4)
	var buf bytes.Buffer
	_, err := Encode(&buf, f, CompressionLZ4)
	require.NoError(t, err)

	wide, h, err := DecodeAny(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), h.Width)
	assert.Equal(t, uint32(f.Cap), wide.Cap)
	require.Len(t, wide.Data, len(f.Data))
	for i, v := range f.Data {
		require.Equal(t, uint32(v), wide.Data[i], "cell %d", i)
	}
}

func TestWidthMismatch(t *testing.T) {
	var buf bytes.Buffer
	_, err := Encode(&buf, sphereField[uint16](t, 6, 2), CompressionNone)
	require.NoError(t, err)

	_, _, err = Decode[uint8](&buf)
	var wm *WidthMismatchError
	require.ErrorAs(t, err, &wm)
	assert.Equal(t, uint8(2), wm.File)
	assert.Equal(t, uint8(1), wm.Target)
	assert.Contains(t, wm.Error(), "16-bit")
}

func encoded(t *testing.T, c Compression) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := Encode(&buf, sphereField[uint8](t, 16, 5), c)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeRejectsDamage(t *testing.T) {
	tests := []struct {
		name   string
		c      Compression
		damage func(b []byte) []byte
		want   error
	}{
		{"bad magic", CompressionNone, func(b []byte) []byte { b[0] = 'X'; return b }, ErrBadMagic},
		{"future version", CompressionNone, func(b []byte) []byte { b[4] = 9; return b }, ErrUnsupportedVersion},
		{"bad width", CompressionNone, func(b []byte) []byte { b[5] = 3; return b }, ErrCorrupt},
		{"bad compression", CompressionNone, func(b []byte) []byte { b[6] = 7; return b }, ErrCorrupt},
		{"zero dims", CompressionNone, func(b []byte) []byte { b[8], b[9] = 0, 0; return b }, ErrCorrupt},
		{"zero cap", CompressionNone, func(b []byte) []byte { clear(b[20:24]); return b }, ErrCorrupt},
		{"flipped payload bit", CompressionNone, func(b []byte) []byte { b[HeaderSize+100] ^= 1; return b }, ErrChecksum},
		{"short header", CompressionNone, func(b []byte) []byte { return b[:10] }, ErrCorrupt},
		{"truncated payload", CompressionZstd, func(b []byte) []byte { return b[:len(b)-5] }, ErrCorrupt},
		{"garbled lz4", CompressionLZ4, func(b []byte) []byte {
			for i := HeaderSize; i < len(b); i++ {
				b[i] = 0xFF
			}
			return b
		}, ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.damage(encoded(t, tt.c))
			_, _, err := Decode[uint8](bytes.NewReader(b))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "error %v is not %v", err, tt.want)
		})
	}
}

func TestVersionError(t *testing.T) {
	b := encoded(t, CompressionNone)
	b[4] = 2
	_, err := PeekHeader(bytes.NewReader(b))
	var ve *VersionError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, uint8(2), ve.Version)
}

func TestEncodeRejectsBadFields(t *testing.T) {
	var buf bytes.Buffer

	_, err := Encode(&buf, &distfield.Field[uint8]{Dims: distfield.Cube(2), Cap: 3, Data: make([]uint8, 7)}, CompressionNone)
	assert.ErrorIs(t, err, distfield.ErrLengthMismatch)

	_, err = Encode(&buf, &distfield.Field[uint8]{Dims: distfield.Dims{X: 0, Y: 1, Z: 1}, Cap: 3}, CompressionNone)
	assert.ErrorIs(t, err, distfield.ErrInvalidDims)

	_, err = Encode(&buf, &distfield.Field[uint8]{Dims: distfield.Cube(1), Cap: 0, Data: make([]uint8, 1)}, CompressionNone)
	assert.ErrorIs(t, err, distfield.ErrInvalidCap)

	_, err = Encode(&buf, &distfield.Field[uint8]{Dims: distfield.Cube(2), Cap: 3, Data: make([]uint8, 8)}, Compression(9))
	assert.Error(t, err)
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ball.vxdf")
	f := sphereField[uint16](t, 20, 6)

	h, err := WriteFile(path, f, CompressionZstd)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(HeaderSize)+int64(h.StoredSize), info.Size())

	peeked, err := PeekFile(path)
	require.NoError(t, err)
	assert.Equal(t, h, peeked)

	got, _, err := ReadFile[uint16](path)
	require.NoError(t, err)
	assert.Equal(t, f.Data, got.Data)

	wide, _, err := ReadFileAny(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(f.Cap), wide.Cap)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be gone")
}

func TestReadFileMissing(t *testing.T) {
	_, _, err := ReadFile[uint8](filepath.Join(t.TempDir(), "nope.vxdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in   string
		want Compression
		ok   bool
	}{
		{"", CompressionNone, true},
		{"none", CompressionNone, true},
		{"LZ4", CompressionLZ4, true},
		{" zstd ", CompressionZstd, true},
		{"gzip", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	var c Compression
	require.NoError(t, c.UnmarshalText([]byte("lz4")))
	assert.Equal(t, CompressionLZ4, c)
	text, err := CompressionZstd.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "zstd", string(text))
	assert.Equal(t, "Compression(5)", Compression(5).String())
}

// A header may claim a payload of up to 4 GiB. Decoding a stream that ends
// right after such a header must fail without reserving that much memory.
func TestDecodeOversizedClaimOnShortInput(t *testing.T) {
	h := Header{
		Version:     Version,
		Width:       4,
		Compression: CompressionZstd,
		Dims:        distfield.Dims{X: 1024, Y: 1024, Z: 1023},
		Cap:         1,
	}
	h.RawSize = uint32(h.Dims.Len() * 4)
	h.StoredSize = h.RawSize
	hb := h.marshal()
	input := append(hb[:], 1, 2, 3, 4)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, _, err := DecodeAny(bytes.NewReader(input))
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "truncated payload")
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20),
		"decoding a 40-byte input allocated %d bytes", after.TotalAlloc-before.TotalAlloc)
}
