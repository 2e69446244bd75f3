package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/rogelgarcia/buildfab/pkg/facade"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms authoring source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids registering keyword symbols as globals, which would
//     conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: corner-cut -> corner_cut
//     zygomys does not allow hyphens in identifiers (it reads them as
//     subtraction). This converts kebab-case identifiers to underscore
//     form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when the hyphen sits between identifier characters.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// buildState accumulates the model during one evaluation.
type buildState struct {
	building *facade.Building
}

type sexpVec2 struct {
	v facade.Vec2
}

func (s *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %.3f %.3f)", s.v.X, s.v.Y)
}
func (s *sexpVec2) Type() *zygo.RegisteredType { return nil }

type sexpMaterial struct {
	spec facade.MaterialSpec
}

func (s *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(material %q)", s.spec.Name)
}
func (s *sexpMaterial) Type() *zygo.RegisteredType { return nil }

type sexpDepth struct {
	spec facade.DepthSpec
}

func (s *sexpDepth) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(wedge %.3f %.3f)", s.spec.Left, s.spec.Right)
}
func (s *sexpDepth) Type() *zygo.RegisteredType { return nil }

type sexpFootprint struct {
	pts []facade.Vec2
}

func (s *sexpFootprint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(footprint %d points)", len(s.pts))
}
func (s *sexpFootprint) Type() *zygo.RegisteredType { return nil }

type sexpOpening struct {
	op facade.Opening
}

func (s *sexpOpening) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(window %.2f..%.2f)", s.op.UStart, s.op.UEnd)
}
func (s *sexpOpening) Type() *zygo.RegisteredType { return nil }

type sexpFace struct {
	id   facade.FaceID
	spec facade.FaceSpec
}

func (s *sexpFace) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(face %d)", s.id)
}
func (s *sexpFace) Type() *zygo.RegisteredType { return nil }

type sexpBay struct {
	bay facade.Bay
}

func (s *sexpBay) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(bay :face %d %.2f..%.2f)", s.bay.Face, s.bay.UStart, s.bay.UEnd)
}
func (s *sexpBay) Type() *zygo.RegisteredType { return nil }

type sexpOverride struct {
	ov facade.DepthOverride
}

func (s *sexpOverride) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(depth-override :face %d)", s.ov.Face)
}
func (s *sexpOverride) Type() *zygo.RegisteredType { return nil }

type sexpCut struct {
	cut facade.CornerCut
}

func (s *sexpCut) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(corner-cut %d)", s.cut.Corner)
}
func (s *sexpCut) Type() *zygo.RegisteredType { return nil }

type sexpLayer struct {
	layer *facade.Layer
}

func (s *sexpLayer) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(layer %q)", s.layer.Name)
}
func (s *sexpLayer) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string. It returns the
// keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument
// list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value is a flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_per-bay) and plain strings.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toFlow converts a keyword to a texture flow mode.
func toFlow(s zygo.Sexp) (facade.TextureFlow, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected flow keyword (:continuous, :per-bay): %w", err)
	}
	switch name {
	case "continuous":
		return facade.FlowContinuous, nil
	case "per-bay", "per_bay":
		return facade.FlowPerBay, nil
	}
	return 0, fmt.Errorf("invalid flow %q, expected continuous or per-bay", name)
}

// toDepthSpec accepts either a plain number (uniform depth) or a wedge
// expression.
func toDepthSpec(s zygo.Sexp) (facade.DepthSpec, error) {
	if d, ok := s.(*sexpDepth); ok {
		return d.spec, nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return facade.DepthSpec{}, fmt.Errorf("expected depth number or wedge: %w", err)
	}
	return facade.Uniform(f), nil
}

func toMaterial(s zygo.Sexp) (facade.MaterialSpec, error) {
	if m, ok := s.(*sexpMaterial); ok {
		return m.spec, nil
	}
	// A bare string is shorthand for a material with default UV scale.
	if name, err := toString(s); err == nil && !strings.HasPrefix(name, kwPrefix) {
		return facade.MaterialSpec{Name: name}, nil
	}
	return facade.MaterialSpec{}, fmt.Errorf("expected material, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the authoring DSL builtins into a zygomys
// environment. The builtins populate st during evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable string
// literals.
func registerBuiltins(env *zygo.Zlisp, st *buildState) {

	// -----------------------------------------------------------------------
	// (vec2 3.5 0)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{v: facade.Vec2{X: x, Y: y}}, nil
	})

	// -----------------------------------------------------------------------
	// (material "brick" :uv-scale 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := facade.MaterialSpec{}

		if len(pa.positional) > 0 {
			s, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("material: name: %w", err)
			}
			spec.Name = s
		}
		if v, ok := pa.kw["uv-scale"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("material: uv-scale: %w", err)
			}
			spec.UVScale = f
		}
		return &sexpMaterial{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (wedge 0.1 0.3) — depth varying linearly over its interval
	// -----------------------------------------------------------------------
	env.AddFunction("wedge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("wedge requires exactly 2 arguments, got %d", len(args))
		}
		l, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wedge: left: %w", err)
		}
		r, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wedge: right: %w", err)
		}
		return &sexpDepth{spec: facade.Wedge(l, r)}, nil
	})

	// -----------------------------------------------------------------------
	// (footprint (vec2 0 0) (vec2 0 10) (vec2 10 10) (vec2 10 0))
	// -----------------------------------------------------------------------
	env.AddFunction("footprint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		fp := &sexpFootprint{}
		for i, a := range args {
			v, ok := a.(*sexpVec2)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("footprint: point %d: expected vec2, got %T", i, a)
			}
			fp.pts = append(fp.pts, v.v)
		}
		return fp, nil
	})

	// -----------------------------------------------------------------------
	// (window :from 0.5 :to 2.0 :sill 0.9 :head 2.1 :reveal 0.05)
	// -----------------------------------------------------------------------
	env.AddFunction("window", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		op := facade.Opening{}
		for kw, dst := range map[string]*float64{
			"from": &op.UStart, "to": &op.UEnd,
			"sill": &op.Sill, "head": &op.Head, "reveal": &op.Reveal,
		} {
			if v, ok := pa.kw[kw]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("window: %s: %w", kw, err)
				}
				*dst = f
			}
		}
		return &sexpOpening{op: op}, nil
	})

	// -----------------------------------------------------------------------
	// (face 0 :depth 0.1 :material (material "brick") :flow :per-bay)
	// -----------------------------------------------------------------------
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("face requires a face index")
		}
		idx, err := toInt(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: index: %w", err)
		}
		f := &sexpFace{id: facade.FaceID(idx)}

		if v, ok := pa.kw["depth"]; ok {
			d, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("face: depth: %w", err)
			}
			f.spec.Depth = d
		}
		if v, ok := pa.kw["material"]; ok {
			m, err := toMaterial(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("face: material: %w", err)
			}
			f.spec.Material = m
		}
		if v, ok := pa.kw["flow"]; ok {
			fl, err := toFlow(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("face: flow: %w", err)
			}
			f.spec.Flow = fl
		}
		return f, nil
	})

	// -----------------------------------------------------------------------
	// (bay :face 0 :from 2 :to 5 :depth 0.3 :id "entry"
	//      :material (material "stone") (window ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("bay", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		b := facade.Bay{}

		if v, ok := pa.kw["face"]; ok {
			idx, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bay: face: %w", err)
			}
			b.Face = facade.FaceID(idx)
		}
		if v, ok := pa.kw["from"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bay: from: %w", err)
			}
			b.UStart = f
		}
		if v, ok := pa.kw["to"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bay: to: %w", err)
			}
			b.UEnd = f
		}
		if v, ok := pa.kw["depth"]; ok {
			d, err := toDepthSpec(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bay: depth: %w", err)
			}
			b.Depth = &d
		}
		if v, ok := pa.kw["id"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bay: id: %w", err)
			}
			b.ID = s
		}
		if v, ok := pa.kw["material"]; ok {
			m, err := toMaterial(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bay: material: %w", err)
			}
			b.Material = m
		}
		for i, a := range pa.positional {
			op, ok := a.(*sexpOpening)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("bay: child %d: expected window, got %T", i, a)
			}
			b.Openings = append(b.Openings, op.op)
		}
		return &sexpBay{bay: b}, nil
	})

	// -----------------------------------------------------------------------
	// (depth-override :face 1 :from 0 :to 2 :depth (wedge 0.1 0.3))
	//
	// Registered as "depth_override"; the preprocessor converts the
	// hyphenated form in source.
	// -----------------------------------------------------------------------
	env.AddFunction("depth_override", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ov := facade.DepthOverride{}

		if v, ok := pa.kw["face"]; ok {
			idx, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("depth-override: face: %w", err)
			}
			ov.Face = facade.FaceID(idx)
		}
		if v, ok := pa.kw["from"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("depth-override: from: %w", err)
			}
			ov.UStart = f
		}
		if v, ok := pa.kw["to"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("depth-override: to: %w", err)
			}
			ov.UEnd = f
		}
		if v, ok := pa.kw["depth"]; ok {
			d, err := toDepthSpec(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("depth-override: depth: %w", err)
			}
			ov.Depth = d
		}
		return &sexpOverride{ov: ov}, nil
	})

	// -----------------------------------------------------------------------
	// (corner-cut 2 :prev 0.4 :next 0.4)
	// -----------------------------------------------------------------------
	env.AddFunction("corner_cut", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("corner-cut requires a corner index")
		}
		idx, err := toInt(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("corner-cut: corner: %w", err)
		}
		c := facade.CornerCut{Corner: facade.CornerID(idx)}

		if v, ok := pa.kw["prev"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("corner-cut: prev: %w", err)
			}
			c.WantPrev = f
		}
		if v, ok := pa.kw["next"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("corner-cut: next: %w", err)
			}
			c.WantNext = f
		}
		return &sexpCut{cut: c}, nil
	})

	// -----------------------------------------------------------------------
	// (layer :name "ground" :height 3.5 :base 0 :material (material ...)
	//        :flow :continuous (footprint ...) (face ...) (bay ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("layer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		l := &facade.Layer{Faces: make(map[facade.FaceID]facade.FaceSpec)}

		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("layer: name: %w", err)
			}
			l.Name = s
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("layer: height: %w", err)
			}
			l.Height = f
		}
		if v, ok := pa.kw["base"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("layer: base: %w", err)
			}
			l.Base = f
		}
		if v, ok := pa.kw["material"]; ok {
			m, err := toMaterial(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("layer: material: %w", err)
			}
			l.Material = m
		}
		if v, ok := pa.kw["flow"]; ok {
			fl, err := toFlow(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("layer: flow: %w", err)
			}
			l.Flow = fl
		}

		for i, a := range pa.positional {
			switch c := a.(type) {
			case *sexpFootprint:
				l.Footprint = c.pts
			case *sexpFace:
				l.Faces[c.id] = c.spec
			case *sexpBay:
				l.Bays = append(l.Bays, c.bay)
			case *sexpOverride:
				l.Overrides = append(l.Overrides, c.ov)
			case *sexpCut:
				l.Cuts = append(l.Cuts, c.cut)
			default:
				return zygo.SexpNull, fmt.Errorf("layer: child %d: unexpected %T (%s)",
					i, a, a.SexpString(nil))
			}
		}
		return &sexpLayer{layer: l}, nil
	})

	// -----------------------------------------------------------------------
	// (building "tower" (layer ...) (layer ...))
	// -----------------------------------------------------------------------
	env.AddFunction("building", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("building requires a name argument")
		}
		bname, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("building: name: %w", err)
		}

		st.building = facade.New(bname)
		for i := 1; i < len(args); i++ {
			sl, ok := args[i].(*sexpLayer)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("building: child %d: expected layer, got %T (%s)",
					i, args[i], args[i].SexpString(nil))
			}
			st.building.AddLayer(sl.layer)
		}
		return zygo.SexpNull, nil
	})
}
