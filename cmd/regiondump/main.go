// Command regiondump decodes region save files and writes their contents as
// JSON.
//
// It accepts a single .region.bin file, a folder of region files, a world
// save (with a chunks/ subfolder), or a universe folder holding several
// worlds.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/meigma/region"
	"github.com/meigma/region/export"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "regiondump:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("regiondump", pflag.ContinueOnError)
	flags.StringP("output", "o", "", "output file or directory (default: alongside input)")
	flags.Bool("stdout", false, "write JSON to stdout instead of files")
	flags.Bool("compact", false, "write compact JSON without indentation")
	flags.BoolP("quiet", "q", false, "suppress progress logging")
	flags.Bool("summary-only", false, "export block summary and containers only")
	flags.Bool("no-blocks", false, "omit the per-position block map")
	flags.IntP("workers", "w", defaultConfig().Workers, "chunk decode workers per region")
	configPath := flags.String("config", "", "YAML config file")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: regiondump [flags] <path>\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("expected exactly one input path")
	}

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = loadConfigFile(*configPath); err != nil {
			return err
		}
	}
	cfg.applyFlags(flags)

	level := slog.LevelInfo
	if cfg.Quiet {
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	inputs, err := findRegionFiles(flags.Arg(0))
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no .region.bin files under %s", flags.Arg(0))
	}

	for _, in := range inputs {
		if err := dumpRegion(in, cfg, logger); err != nil {
			return err
		}
	}
	return nil
}

// regionFile is one region file to dump, tagged with the world it belongs to
// when the input is a universe folder.
type regionFile struct {
	path  string
	world string
}

// findRegionFiles resolves an input path to the region files beneath it. A
// file is taken as-is; a folder is tried as a flat region folder, then as a
// world save with a chunks/ subfolder, then as a universe of worlds.
func findRegionFiles(path string) ([]regionFile, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return []regionFile{{path: path}}, nil
	}

	if files := globRegions(path); len(files) > 0 {
		return files, nil
	}
	if files := globRegions(filepath.Join(path, "chunks")); len(files) > 0 {
		return files, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var out []regionFile
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		for _, f := range globRegions(filepath.Join(path, e.Name(), "chunks")) {
			f.world = e.Name()
			out = append(out, f)
		}
	}
	return out, nil
}

func globRegions(dir string) []regionFile {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.region.bin"))
	sort.Strings(matches)
	out := make([]regionFile, 0, len(matches))
	for _, m := range matches {
		if _, _, err := region.ParseFilename(filepath.Base(m)); err == nil {
			out = append(out, regionFile{path: m})
		}
	}
	return out
}

func dumpRegion(in regionFile, cfg Config, logger *slog.Logger) error {
	c, err := region.Open(in.path, region.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("%s: %w", in.path, err)
	}
	defer c.Close()

	rx, rz := c.Region()
	logger.Info("decoding region",
		"path", in.path,
		"region_x", rx,
		"region_z", rz,
		"populated_slots", c.PopulatedSlots())

	opts := []export.Option{export.WithWorkers(cfg.Workers)}
	if cfg.NoBlocks {
		opts = append(opts, export.WithoutBlocks())
	}
	var r *export.Region
	if cfg.SummaryOnly {
		r = export.Summary(c, opts...)
	} else {
		r = export.Export(c, opts...)
	}

	stats := c.Stats()
	logger.Info("region decoded",
		"region_x", rx,
		"region_z", rz,
		"chunks", stats.Decoded,
		"failed", stats.Failed)

	if cfg.Stdout {
		return writeJSON(os.Stdout, r, cfg.Compact)
	}

	dst, err := outputPath(in, cfg.Output)
	if err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := writeJSON(f, r, cfg.Compact); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("wrote export", "path", dst)
	return nil
}

// outputPath picks the destination for one region's JSON. A .json output
// path is used directly; anything else is treated as a directory.
func outputPath(in regionFile, output string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(in.path), ".bin") + ".json"
	if in.world != "" {
		name = in.world + "." + name
	}

	switch {
	case output == "":
		return filepath.Join(filepath.Dir(in.path), name), nil
	case strings.HasSuffix(output, ".json"):
		return output, nil
	default:
		if err := os.MkdirAll(output, 0o755); err != nil {
			return "", err
		}
		return filepath.Join(output, name), nil
	}
}

func writeJSON(w io.Writer, r *export.Region, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}
