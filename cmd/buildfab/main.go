// Command buildfab evaluates a building script and exports the generated
// facade mesh.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/rogelgarcia/buildfab/pkg/engine"
	"github.com/rogelgarcia/buildfab/pkg/fab"
	"github.com/rogelgarcia/buildfab/pkg/mesh"
	"github.com/rogelgarcia/buildfab/pkg/snapshot"
)

func main() {
	scriptFile := flag.String("script", "", "Path to building script")
	optionsFile := flag.String("options", "", "Path to TOML build options")
	outFile := flag.String("o", "", "Output STL path (default: <script>.stl)")
	snapshotDir := flag.String("snapshot-dir", "", "Write plan snapshots (WebP) per layer into this directory")
	snapshotSize := flag.Int("snapshot-size", 512, "Snapshot image size in pixels")
	parallel := flag.Int("parallel", 0, "Concurrent layer builds (overrides options file)")
	policy := flag.String("policy", "", "Corner resolution policy (overrides options file)")

	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("buildfab: ")

	if *scriptFile == "" {
		log.Fatal("no script given; use -script")
	}

	opts := fab.DefaultOptions()
	if *optionsFile != "" {
		data, err := os.ReadFile(*optionsFile)
		if err != nil {
			log.Fatalf("options: %v", err)
		}
		if err := toml.Unmarshal(data, &opts); err != nil {
			log.Fatalf("options: %s: %v", *optionsFile, err)
		}
	}
	// CLI flags override the options file.
	if *parallel > 0 {
		opts.Parallel = *parallel
	}
	if *policy != "" {
		opts.CornerPolicy = *policy
	}
	if *snapshotDir != "" {
		opts.Snapshots = true
	}

	source, err := os.ReadFile(*scriptFile)
	if err != nil {
		log.Fatalf("script: %v", err)
	}

	building, evalErrs, err := engine.NewEngine().Evaluate(string(source))
	if err != nil {
		log.Fatalf("evaluate: %v", err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(os.Stderr, "%s: %v\n", *scriptFile, e)
		}
		os.Exit(1)
	}
	if len(building.Layers) == 0 {
		log.Fatal("script produced no layers")
	}

	builder, err := fab.NewBuilder(opts)
	if err != nil {
		log.Fatalf("builder: %v", err)
	}
	res, err := builder.Build(building)
	if err != nil {
		log.Fatalf("build: %v", err)
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "error: %v\n", e)
	}

	if *snapshotDir != "" {
		if err := os.MkdirAll(*snapshotDir, 0o755); err != nil {
			log.Fatalf("snapshot dir: %v", err)
		}
		for _, lr := range res.Layers {
			if lr.Snapshot == nil {
				continue
			}
			path := filepath.Join(*snapshotDir, fmt.Sprintf("layer-%d.webp", lr.Index))
			if err := snapshot.SaveWebP(path, lr.Snapshot, *snapshotSize); err != nil {
				log.Fatalf("snapshot: %v", err)
			}
			log.Printf("snapshot %s", path)
		}
	}

	out := *outFile
	if out == "" {
		base := filepath.Base(*scriptFile)
		out = base[:len(base)-len(filepath.Ext(base))] + ".stl"
	}
	if err := mesh.SaveSTL(out, res.Merged); err != nil {
		log.Fatalf("export: %v", err)
	}
	log.Printf("%s: %d triangles, %d layers", out, res.Merged.TriangleCount(), len(res.Layers))

	if len(res.Errors) > 0 {
		os.Exit(1)
	}
}
