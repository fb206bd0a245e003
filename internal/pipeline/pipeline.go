// Package pipeline provides the single entry point that runs framing and
// packing over a whole function graph in one call. Grounded on
// original_source/recompiler.cpp's Recompiler::recompile(force): one
// validation gate, one sorted function list, one packer, one flush.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"rexrecomp/internal/framer"
	"rexrecomp/internal/model"
	"rexrecomp/internal/packer"
	"rexrecomp/internal/ppc"
	"rexrecomp/internal/rexlog"
)

// Recompile runs the whole pipeline once: frame every function the graph
// reports, pack the results into translation units and support files, and
// flush them to disk. Unless force is true, a graph that failed its own
// validation blocks code generation entirely rather than emitting a partial
// or unreliable tree.
func Recompile(cfg model.Config, bin model.BinaryImage, graph model.FunctionGraph, force bool) error {
	log := rexlog.Default()

	if !graph.Valid() && !force {
		return fmt.Errorf("pipeline: function graph failed validation; rerun with force to override")
	}

	fr := framer.New(bin, graph, cfg, ppc.Decode)

	functions := graph.Functions()
	log.Trace("recompiling %d functions", len(functions))

	sources := make([]*framer.FunctionSource, 0, len(functions))
	for _, fn := range functions {
		if fn.Authority == model.AuthorityImport {
			continue
		}
		src, err := fr.Recompile(fn)
		if err != nil {
			return fmt.Errorf("pipeline: recompile %#x: %w", fn.Base, err)
		}
		sources = append(sources, src)
	}

	p := packer.New(cfg.ProjectName, bin, cfg)
	pending := p.Pack(sources)

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("pipeline: create output dir %s: %w", outDir, err)
	}

	written, skipped, err := packer.FlushPendingWrites(pending, readerFor(outDir), writerFor(outDir))
	if err != nil {
		return err
	}
	log.Trace("recompilation complete: %d written, %d unchanged", written, skipped)
	return nil
}

// readerFor and writerFor adapt the plain output directory to the packer's
// FileReader/FileWriter abstractions, so a caller wanting an in-memory or
// dry-run pipeline can swap FlushPendingWrites's callbacks directly instead.
func readerFor(dir string) packer.FileReader {
	return func(path string) ([]byte, bool) {
		content, err := os.ReadFile(filepath.Join(dir, path))
		if err != nil {
			return nil, false
		}
		return content, true
	}
}

func writerFor(dir string) packer.FileWriter {
	return func(path string, content []byte) error {
		return os.WriteFile(filepath.Join(dir, path), content, 0o644)
	}
}
