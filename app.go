package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/chazu/voxfield/pkg/distfield"
	"github.com/chazu/voxfield/pkg/engine"
	"github.com/chazu/voxfield/pkg/fieldio"
	"github.com/chazu/voxfield/pkg/graph"
	"github.com/chazu/voxfield/pkg/kernel"
	"github.com/chazu/voxfield/pkg/kernel/sdfx"
	"github.com/chazu/voxfield/pkg/voxelize"
)

// App runs the bake pipeline: scene source to distance field.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	log    *slog.Logger
}

// NewApp creates a new App with an engine and the sdfx kernel.
func NewApp(log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
		log:    log,
	}
}

// SceneError reports source that failed to evaluate or validate. Each entry
// carries its line when known.
type SceneError struct {
	Errors []engine.EvalError
}

func (e *SceneError) Error() string {
	if len(e.Errors) == 1 {
		return "scene: " + e.Errors[0].Error()
	}
	msg := fmt.Sprintf("scene: %d errors", len(e.Errors))
	for _, ee := range e.Errors {
		msg += "\n  " + ee.Error()
	}
	return msg
}

// BakeResult is the output of one bake, ready to be written.
type BakeResult struct {
	Graph    *graph.SceneGraph
	Grid     voxelize.Grid
	Width    int // bits per distance
	Cap      uint32
	Occupied int
	Stats    distfield.Stats
	Warnings []string

	encode func(w io.Writer, c fieldio.Compression) (fieldio.Header, error)
	write  func(path string, c fieldio.Compression) (fieldio.Header, error)
}

// Encode writes the field to w.
func (r *BakeResult) Encode(w io.Writer, c fieldio.Compression) (fieldio.Header, error) {
	return r.encode(w, c)
}

// WriteFile writes the field to path.
func (r *BakeResult) WriteFile(path string, c fieldio.Compression) (fieldio.Header, error) {
	return r.write(path, c)
}

// Bake evaluates source, voxelizes the scene and computes its distance
// field under cfg.
func (a *App) Bake(source string, cfg Config) (*BakeResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	// Step 1: Evaluate the Lisp source into a scene graph.
	g, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if len(evalErrs) > 0 {
		return nil, &SceneError{Errors: evalErrs}
	}

	// Step 2: Validate structure and geometry.
	res := &BakeResult{Graph: g, Width: cfg.Width}
	vr := graph.ValidateAll(g)
	for _, w := range vr.Warnings {
		res.Warnings = append(res.Warnings, w.Message)
		a.log.Warn("scene warning", "node", w.NodeID.Short(), "msg", w.Message)
	}
	if len(vr.Errors) > 0 {
		se := &SceneError{}
		for _, e := range vr.Errors {
			se.Errors = append(se.Errors, engine.EvalError{Message: e.Error()})
		}
		return nil, se
	}

	// Step 3: Build one solid and fit a grid around it.
	solid, err := voxelize.BuildSolid(g, a.kernel)
	if err != nil {
		if errors.Is(err, voxelize.ErrEmptyScene) {
			return nil, fmt.Errorf("nothing to bake: declare a (scene ...)")
		}
		return nil, err
	}
	cell, padding := resolveGrid(cfg, g.Grid)
	lo, hi := solid.BoundingBox()
	grid, err := voxelize.FitGrid(lo, hi, cell, padding)
	if err != nil {
		return nil, err
	}
	res.Grid = grid

	// Step 4: Sample occupancy.
	workers := cfg.workers()
	occupied, err := voxelize.Sample(a.kernel, solid, grid, workers)
	if err != nil {
		return nil, err
	}
	res.Occupied = voxelize.Count(occupied)
	a.log.Info("voxelized scene",
		"dims", grid.Dims,
		"cell", grid.Cell,
		"occupied", res.Occupied,
		"elapsed", time.Since(start))

	// Step 5: Distance transform at the requested width.
	opts := []distfield.Option{distfield.WithWorkers(workers)}
	if cfg.Cap > 0 {
		opts = append(opts, distfield.WithCap(cfg.Cap))
	}
	switch cfg.Width {
	case 8:
		err = transformInto[uint8](res, occupied, grid.Dims, opts)
	case 16:
		err = transformInto[uint16](res, occupied, grid.Dims, opts)
	default:
		err = transformInto[uint32](res, occupied, grid.Dims, opts)
	}
	if err != nil {
		return nil, err
	}

	a.log.Info("baked distance field",
		"width", cfg.Width,
		"cap", res.Cap,
		"saturated", res.Stats.Saturated,
		"elapsed", time.Since(start))
	return res, nil
}

// transformInto computes the field as T and binds the writers on res.
func transformInto[T distfield.Distance](res *BakeResult, occupied []bool, dims distfield.Dims, opts []distfield.Option) error {
	f, err := distfield.New[T](occupied, dims, opts...)
	if err != nil {
		return err
	}
	res.Cap = uint32(f.Cap)
	res.Stats = f.Stats()
	res.encode = func(w io.Writer, c fieldio.Compression) (fieldio.Header, error) {
		return fieldio.Encode(w, f, c)
	}
	res.write = func(path string, c fieldio.Compression) (fieldio.Header, error) {
		return fieldio.WriteFile(path, f, c)
	}
	return nil
}

// resolveGrid picks cell and padding: config first, then the scene's
// (grid ...) form, then the package defaults.
func resolveGrid(cfg Config, scene graph.GridDefaults) (float64, int) {
	cell := cfg.Cell
	if cell == 0 {
		cell = scene.Cell
	}
	if cell == 0 {
		cell = DefaultCell
	}

	padding := cfg.Padding
	if padding < 0 && scene.Padding > 0 {
		padding = scene.Padding
	}
	if padding < 0 {
		padding = DefaultPadding
	}
	return cell, padding
}
