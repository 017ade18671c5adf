package distfield

import "testing"

// FuzzTransform decodes dims, a cap hint and an occupancy bitmap from raw
// bytes and checks the result against the brute-force reference.
func FuzzTransform(f *testing.F) {
	f.Add([]byte{1, 1, 1, 0, 0x01})
	f.Add([]byte{3, 3, 3, 4, 0x10, 0x00, 0x80, 0x00})
	f.Add([]byte{5, 2, 4, 0, 0x00, 0x00, 0x00, 0x00, 0x00})
	f.Add([]byte{0, 6, 1, 2, 0xff, 0x00, 0x0f})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) < 4 {
			return
		}
		dims := Dims{X: int(data[0]%6) + 1, Y: int(data[1]%6) + 1, Z: int(data[2]%6) + 1}
		var opts []Option
		if h := int(data[3] % 16); h > 0 {
			opts = append(opts, WithCap(h))
		}
		bits := data[4:]
		occ := make([]bool, dims.Len())
		for i := range occ {
			if i/8 < len(bits) {
				occ[i] = bits[i/8]&(1<<(i%8)) != 0
			}
		}

		got, limit, err := Transform[uint8](occ, dims, opts...)
		if err != nil {
			t.Fatalf("transform %s: %v", dims, err)
		}
		want := bruteForce(occ, dims, limit)
		for i := range got {
			if got[i] > limit {
				t.Fatalf("cell %d = %d exceeds cap %d", i, got[i], limit)
			}
			if (got[i] == 0) != occ[i] {
				t.Fatalf("cell %d = %d but occupied=%v", i, got[i], occ[i])
			}
			if got[i] != want[i] {
				t.Fatalf("cell %d = %d, want %d", i, got[i], want[i])
			}
		}
	})
}
