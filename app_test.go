package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/chazu/voxfield/pkg/distfield"
	"github.com/chazu/voxfield/pkg/fieldio"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 2
	return cfg
}

// TestBakeUnitCube exercises the full pipeline on a box whose voxelization
// is known exactly: a 4mm cube on a 1mm grid with one cell of padding.
func TestBakeUnitCube(t *testing.T) {
	app := NewApp(nil)
	res, err := app.Bake(`(scene "cube" (box :size (vec3 4 4 4)))`, testConfig())
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}

	if want := (distfield.Dims{X: 6, Y: 6, Z: 6}); res.Grid.Dims != want {
		t.Fatalf("dims = %s, want %s", res.Grid.Dims, want)
	}
	if res.Grid.Origin != [3]float64{-1, -1, -1} {
		t.Errorf("origin = %v, want [-1 -1 -1]", res.Grid.Origin)
	}
	if res.Occupied != 64 {
		t.Errorf("occupied = %d, want 64", res.Occupied)
	}
	if res.Stats.Occupied != 64 {
		t.Errorf("stats occupied = %d, want 64", res.Stats.Occupied)
	}
	// 6+6+6-3 bounds every finite distance in the grid.
	if res.Cap != 15 {
		t.Errorf("cap = %d, want 15", res.Cap)
	}
	// The far corners sit one cell off each face: distance 3.
	if res.Stats.Max != 3 {
		t.Errorf("max distance = %d, want 3", res.Stats.Max)
	}
	if res.Stats.Saturated != 0 {
		t.Errorf("saturated = %d, want 0", res.Stats.Saturated)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestBakeEncodeRoundTrip(t *testing.T) {
	app := NewApp(nil)
	cfg := testConfig()
	cfg.Width = 16

	res, err := app.Bake(`(scene "s" (sphere :radius 3))`, cfg)
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}

	var buf bytes.Buffer
	h, err := res.Encode(&buf, fieldio.CompressionLZ4)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if h.Width != 2 {
		t.Errorf("header width = %d bytes, want 2", h.Width)
	}

	f, h2, err := fieldio.DecodeAny(&buf)
	if err != nil {
		t.Fatalf("DecodeAny: %v", err)
	}
	if h2.Dims != res.Grid.Dims {
		t.Errorf("decoded dims = %s, want %s", h2.Dims, res.Grid.Dims)
	}
	if got := f.Stats(); got.Occupied != res.Stats.Occupied || got.Max != res.Stats.Max {
		t.Errorf("decoded stats %+v differ from baked %+v", got, res.Stats)
	}
}

func TestBakeCapSaturates(t *testing.T) {
	app := NewApp(nil)
	cfg := testConfig()
	cfg.Cap = 2

	res, err := app.Bake(`(scene "cube" (box :size (vec3 4 4 4)))`, cfg)
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	if res.Cap != 2 {
		t.Fatalf("cap = %d, want 2", res.Cap)
	}
	if res.Stats.Max != 2 {
		t.Errorf("max = %d, want 2", res.Stats.Max)
	}
	// 6^3 cells, 64 occupied, 6*16 at distance 1 on the faces. Everything
	// else is at least 2 and so saturates.
	if want := 216 - 64 - 96; res.Stats.Saturated != want {
		t.Errorf("saturated = %d, want %d", res.Stats.Saturated, want)
	}
}

func TestBakeWidths(t *testing.T) {
	app := NewApp(nil)
	for _, width := range []int{8, 16, 32} {
		cfg := testConfig()
		cfg.Width = width
		res, err := app.Bake(`(scene "cube" (box :size (vec3 2 2 2)))`, cfg)
		if err != nil {
			t.Fatalf("width %d: %v", width, err)
		}
		if res.Width != width {
			t.Errorf("width = %d, want %d", res.Width, width)
		}
		if res.Occupied != 8 {
			t.Errorf("width %d: occupied = %d, want 8", width, res.Occupied)
		}
	}
}

func TestBakeSceneGridDefaults(t *testing.T) {
	app := NewApp(nil)
	source := `
(grid :cell 0.5 :padding 3)
(scene "cube" (box :size (vec3 2 2 2)))`

	res, err := app.Bake(source, testConfig())
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	if res.Grid.Cell != 0.5 {
		t.Errorf("cell = %g, want 0.5", res.Grid.Cell)
	}
	// 2/0.5 = 4 cells plus 3 on each side.
	if res.Grid.Dims.X != 10 {
		t.Errorf("dims.X = %d, want 10", res.Grid.Dims.X)
	}

	cfg := testConfig()
	cfg.Cell = 1
	cfg.Padding = 0
	res, err = app.Bake(source, cfg)
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	if res.Grid.Cell != 1 || res.Grid.Dims.X != 2 {
		t.Errorf("config should override the scene grid, got cell %g dims %s", res.Grid.Cell, res.Grid.Dims)
	}
}

func TestBakeExamples(t *testing.T) {
	for _, name := range []string{"examples/bracket.scene", "examples/ball.scene"} {
		t.Run(name, func(t *testing.T) {
			source, err := os.ReadFile(name)
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			res, err := NewApp(nil).Bake(string(source), testConfig())
			if err != nil {
				t.Fatalf("Bake: %v", err)
			}
			if res.Occupied == 0 {
				t.Error("no occupied voxels")
			}
			if res.Occupied == res.Grid.Dims.Len() {
				t.Error("every voxel occupied")
			}
			if len(res.Warnings) != 0 {
				t.Errorf("unexpected warnings: %v", res.Warnings)
			}
		})
	}
}

func TestBakeSyntaxError(t *testing.T) {
	_, err := NewApp(nil).Bake(`(scene "broken"`, testConfig())
	var se *SceneError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SceneError, got %v", err)
	}
	if len(se.Errors) == 0 {
		t.Error("SceneError carries no entries")
	}
}

func TestBakeEmptySource(t *testing.T) {
	_, err := NewApp(nil).Bake("", testConfig())
	if err == nil || !strings.Contains(err.Error(), "nothing to bake") {
		t.Fatalf("expected nothing-to-bake error, got %v", err)
	}
}

func TestBakeRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Width = 12
	if _, err := NewApp(nil).Bake(`(scene "s" (sphere :radius 1))`, cfg); err == nil {
		t.Fatal("expected error for width 12")
	}
}
