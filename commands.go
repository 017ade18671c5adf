package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chazu/voxfield/pkg/distfield"
	"github.com/chazu/voxfield/pkg/fieldio"
)

// newRootCmd assembles the command tree. Each call returns fresh flag
// state, so tests can execute commands independently.
func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "voxfield",
		Short: "Bake Manhattan distance fields from voxelized scenes",
		Long: `voxfield evaluates a Lisp scene description, voxelizes it and stores
the city-block distance from every cell to the nearest occupied cell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return installLogger(cmd.ErrOrStderr(), logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(newBakeCmd(), newInspectCmd(), newSliceCmd())
	return root
}

// installLogger routes slog and the distfield package to a text handler on
// w at the named level.
func installLogger(w io.Writer, level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	distfield.SetLogger(logger)
	return nil
}

type bakeFlags struct {
	output      string
	config      string
	cell        float64
	padding     int
	width       int
	cap         int
	workers     int
	compression string
}

func newBakeCmd() *cobra.Command {
	var f bakeFlags
	cmd := &cobra.Command{
		Use:   "bake SCENE",
		Short: "Evaluate a scene and write its distance field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBake(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output field file (required)")
	cmd.Flags().StringVar(&f.config, "config", "", "YAML file with bake settings")
	cmd.Flags().Float64Var(&f.cell, "cell", 0, "Voxel edge length in scene units")
	cmd.Flags().IntVar(&f.padding, "padding", 0, "Free voxels around the scene bounds")
	cmd.Flags().IntVar(&f.width, "width", 8, "Bits per distance (8, 16 or 32)")
	cmd.Flags().IntVar(&f.cap, "cap", 0, "Saturation cap (0 for the largest useful cap)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Goroutines per pass (0 for GOMAXPROCS)")
	cmd.Flags().StringVar(&f.compression, "compression", "zstd", "Payload compression (none, lz4, zstd)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// bakeConfig loads the config file and overlays the flags the user set.
func bakeConfig(cmd *cobra.Command, f bakeFlags) (Config, error) {
	cfg, err := LoadConfig(f.config)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("cell") {
		cfg.Cell = f.cell
	}
	if flags.Changed("padding") {
		cfg.Padding = f.padding
	}
	if flags.Changed("width") {
		cfg.Width = f.width
	}
	if flags.Changed("cap") {
		cfg.Cap = f.cap
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("compression") {
		c, err := fieldio.ParseCompression(f.compression)
		if err != nil {
			return cfg, err
		}
		cfg.Compression = c
	}
	return cfg, cfg.Validate()
}

func runBake(cmd *cobra.Command, scenePath string, f bakeFlags) error {
	cfg, err := bakeConfig(cmd, f)
	if err != nil {
		return err
	}
	// The config file's level applies unless --log-level was given.
	if !cmd.Flags().Changed("log-level") && f.config != "" {
		if err := installLogger(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
			return err
		}
	}
	source, err := os.ReadFile(scenePath)
	if err != nil {
		return err
	}

	app := NewApp(slog.Default())
	res, err := app.Bake(string(source), cfg)
	if err != nil {
		return err
	}
	h, err := res.WriteFile(f.output, cfg.Compression)
	if err != nil {
		return fmt.Errorf("write %s: %w", f.output, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "wrote %s: %s cells, %d-bit, cap %d, %s %.1f%%\n",
		f.output, h.Dims, res.Width, h.Cap, h.Compression, 100*h.Ratio())
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}

func newInspectCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print a field file's header and value statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, h, err := fieldio.ReadFileAny(args[0])
			if err != nil {
				return err
			}
			r := newInspectReport(h, field.Stats())
			if asYAML {
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(r)
			}
			r.writeText(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the report as YAML")
	return cmd
}

// inspectReport is what inspect prints.
type inspectReport struct {
	Header    fieldio.Header `yaml:"header"`
	Ratio     float64        `yaml:"ratio"`
	Cells     int            `yaml:"cells"`
	Occupied  int            `yaml:"occupied"`
	Saturated int            `yaml:"saturated"`
	Min       uint64         `yaml:"min"`
	Max       uint64         `yaml:"max"`
	Mean      float64        `yaml:"mean"`
	Histogram []int          `yaml:"histogram,flow"`
}

// inspectBuckets bounds the histogram printed by inspect.
const inspectBuckets = 16

func newInspectReport(h fieldio.Header, s distfield.Stats) inspectReport {
	hist := s.Histogram
	if len(hist) > inspectBuckets {
		hist = hist[:inspectBuckets]
	}
	return inspectReport{
		Header:    h,
		Ratio:     h.Ratio(),
		Cells:     s.Cells,
		Occupied:  s.Occupied,
		Saturated: s.Saturated,
		Min:       s.Min,
		Max:       s.Max,
		Mean:      s.Mean,
		Histogram: hist,
	}
}

func (r inspectReport) writeText(w io.Writer) {
	h := r.Header
	fmt.Fprintf(w, "version:     %d\n", h.Version)
	fmt.Fprintf(w, "dims:        %s\n", h.Dims)
	fmt.Fprintf(w, "width:       %d-bit\n", 8*int(h.Width))
	fmt.Fprintf(w, "cap:         %d\n", h.Cap)
	fmt.Fprintf(w, "compression: %s (%d of %d bytes, %.1f%%)\n", h.Compression, h.StoredSize, h.RawSize, 100*r.Ratio)
	fmt.Fprintf(w, "checksum:    %08x\n", h.Checksum)
	fmt.Fprintf(w, "cells:       %d (%d occupied, %d saturated)\n", r.Cells, r.Occupied, r.Saturated)
	fmt.Fprintf(w, "distance:    min %d, max %d, mean %.3f\n", r.Min, r.Max, r.Mean)
	for d, n := range r.Histogram {
		if n > 0 {
			fmt.Fprintf(w, "  %3d: %d\n", d, n)
		}
	}
}

func newSliceCmd() *cobra.Command {
	var z int
	cmd := &cobra.Command{
		Use:   "slice FILE",
		Short: "Print one Z slice of a field as a digit grid",
		Long: `Prints the slice at --z with one character per cell: the distance as a
digit, '+' for distances of 10 or more and '.' for saturated cells.
Rows run from y = 0 at the top.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, _, err := fieldio.ReadFileAny(args[0])
			if err != nil {
				return err
			}
			return renderSlice(cmd.OutOrStdout(), field, z)
		},
	}
	cmd.Flags().IntVar(&z, "z", 0, "Slice index along Z")
	return cmd
}
