package fab

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rogelgarcia/buildfab/pkg/facade"
	"github.com/rogelgarcia/buildfab/pkg/mesh"
	"github.com/rogelgarcia/buildfab/pkg/outline"
	"github.com/rogelgarcia/buildfab/pkg/snapshot"
)

// BuildError reports a fatal failure while building one layer.
type BuildError struct {
	Layer int
	Phase string // "frames", "profiles", "perimeter", "mesh"
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("layer %d: %s: %v", e.Layer, e.Phase, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// InvalidModelError wraps the validation errors that aborted a build
// before any geometry was produced.
type InvalidModelError struct {
	Errs []facade.ValidationError
}

func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("model failed validation with %d errors (first: %v)", len(e.Errs), e.Errs[0])
}

// LayerResult is the output of one layer build.
type LayerResult struct {
	Index    int
	Mesh     *mesh.Mesh
	Snapshot *snapshot.Layer // nil unless Options.Snapshots
	Warnings []facade.Warning
}

// Result is the output of a full building build. A layer that failed
// fatally contributes an entry to Errors and an empty mesh; the other
// layers still build.
type Result struct {
	Name     string
	Layers   []LayerResult
	Merged   *mesh.Mesh
	Warnings []facade.Warning
	Errors   []*BuildError
}

// Err returns the joined layer errors, or nil when every layer built.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Builder runs the fabrication pipeline. A Builder is safe for concurrent
// use; all per-build state lives on the stack.
type Builder struct {
	opts     Options
	strategy outline.Strategy
}

// NewBuilder resolves the configured corner policy and returns a ready
// Builder.
func NewBuilder(opts Options) (*Builder, error) {
	opts = opts.normalized()
	strat, ok := outline.StrategyByName(opts.CornerPolicy)
	if !ok {
		return nil, fmt.Errorf("unknown corner policy %q", opts.CornerPolicy)
	}
	return &Builder{opts: opts, strategy: strat}, nil
}

// Build validates the model, builds every layer, then merges the layer
// meshes bottom to top with stitch bands over any vertical gaps. Layers
// build independently (optionally in parallel); the merge pass is serial
// so the output ordering never depends on scheduling.
func (b *Builder) Build(bld *facade.Building) (*Result, error) {
	verrs, vwarns := facade.Validate(bld)
	if len(verrs) > 0 {
		return nil, &InvalidModelError{Errs: verrs}
	}

	res := &Result{
		Name:     bld.Name,
		Layers:   make([]LayerResult, len(bld.Layers)),
		Warnings: vwarns,
	}

	workers := b.opts.Parallel
	if workers > len(bld.Layers) {
		workers = len(bld.Layers)
	}
	sem := make(chan struct{}, max(workers, 1))
	var wg sync.WaitGroup
	layerErrs := make([]*BuildError, len(bld.Layers))
	for i, l := range bld.Layers {
		wg.Add(1)
		go func(i int, l *facade.Layer) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			lr, err := b.BuildLayer(l, i)
			res.Layers[i] = lr
			layerErrs[i] = err
		}(i, l)
	}
	wg.Wait()

	res.Merged = &mesh.Mesh{Name: bld.Name}
	for i, lr := range res.Layers {
		res.Warnings = append(res.Warnings, lr.Warnings...)
		if layerErrs[i] != nil {
			res.Errors = append(res.Errors, layerErrs[i])
			continue
		}
		if i > 0 && layerErrs[i-1] == nil {
			emitStitch(res.Merged, bld.Layers[i], bld.Layers[i-1].Top(), bld.Layers[i].Base, b.opts)
		}
		res.Merged.Append(lr.Mesh)
	}
	return res, nil
}

// BuildLayer runs the full pipeline for a single layer: frames, profiles,
// corner precedence, perimeter, cutouts, per-face geometry, corner
// patches, roof, and final cleanup.
func (b *Builder) BuildLayer(l *facade.Layer, idx int) (LayerResult, *BuildError) {
	lr := LayerResult{Index: idx, Mesh: &mesh.Mesh{}}
	opts := b.opts

	frames, err := outline.Frames(l.Footprint, opts.Tol)
	if err != nil {
		return lr, &BuildError{Layer: idx, Phase: "frames", Err: err}
	}

	profiles := make([]*outline.Profile, len(frames))
	for i, f := range frames {
		p, warns := outline.BuildProfile(l, f, opts.params())
		profiles[i] = p
		lr.Warnings = append(lr.Warnings, stampLayer(warns, idx)...)
	}

	lr.Warnings = append(lr.Warnings, applyCornerPrecedence(profiles, idx, opts)...)

	dmin := make([]float64, len(profiles))
	for i, p := range profiles {
		dmin[i] = p.DMin
	}
	loop, err := outline.BuildPerimeter(frames, dmin, b.strategy, opts.params())
	if err != nil {
		return lr, &BuildError{Layer: idx, Phase: "perimeter", Err: err}
	}

	cuts, warns := computeCuts(l, idx, profiles, opts)
	lr.Warnings = append(lr.Warnings, warns...)

	n := len(frames)
	name := l.Name
	if name == "" {
		name = fmt.Sprintf("layer-%d", idx)
	}
	lr.Mesh = &mesh.Mesh{Name: name}
	z0, z1 := l.Base, l.Top()

	for f := 0; f < n; f++ {
		spec := l.FaceSpecFor(facade.FaceID(f))
		fb := faceBuild{
			frame:    frames[f],
			prof:     profiles[f],
			base:     loop.Baselines[f],
			flow:     spec.Flow,
			cutStart: cuts.next[f],
			cutEnd:   cuts.prev[(f+1)%n],
			z0:       z0,
			z1:       z1,
			opts:     opts,
		}
		fm := finishFace(fb.build(), frames[f], loop.Baselines[f], spec.Material, z0, z1, idx, &lr.Warnings)
		lr.Mesh.Append(fm)
	}

	for _, c := range loop.Corners {
		mat := l.FaceSpecFor(c.Owner).Material
		cm := buildCornerPatch(c, mat, z0, z1, opts)
		cm = finishCorner(cm, c, mat, z0, z1, idx, &lr.Warnings)
		if !cm.IsEmpty() {
			lr.Mesh.Append(cm)
		}
	}

	emitRoof(lr.Mesh, loop, z1, l.Material, idx, opts, &lr.Warnings)
	normalizeNormals(lr.Mesh)

	if err := mesh.Validate(lr.Mesh); err != nil {
		return lr, &BuildError{Layer: idx, Phase: "mesh", Err: err}
	}

	if opts.Snapshots {
		lr.Snapshot = snapshot.Capture(idx, name, frames, profiles, loop)
	}
	return lr, nil
}

// stampLayer fills in the layer index on warnings produced by the
// layer-agnostic plan stage.
func stampLayer(warns []facade.Warning, idx int) []facade.Warning {
	for i := range warns {
		warns[i].Layer = idx
	}
	return warns
}
