package script

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/scene"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

// ===== Snapshot builder =====

type builder struct {
	view     tag.ViewType
	elements []scene.Element
	library  []symbols.LibrarySymbol
}

func newBuilder() *builder {
	return &builder{view: tag.ViewOther}
}

func (b *builder) snapshot() *scene.Snapshot {
	return &scene.Snapshot{
		View:     b.view,
		Elements: append([]scene.Element{}, b.elements...),
		Library:  append([]symbols.LibrarySymbol(nil), b.library...),
	}
}

// ===== Sexp values =====

type sexpVec3 struct {
	p geom.Point3D
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.p.X, v.p.Y, v.p.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ===== Argument parsing =====

// args splits a call's arguments into positionals and keyword values.
// Flags never take a value. Keywords listed in arity take that many
// values; every other keyword takes one.
type args struct {
	kw         map[string][]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(fn string, in []zygo.Sexp, flags map[string]bool, arity map[string]int) (args, error) {
	out := args{kw: make(map[string][]zygo.Sexp)}
	for i := 0; i < len(in); {
		name, ok := isKW(in[i])
		if !ok {
			out.positional = append(out.positional, in[i])
			i++
			continue
		}
		if flags[name] {
			out.kw[name] = nil
			i++
			continue
		}
		n := 1
		if a, ok := arity[name]; ok {
			n = a
		}
		if i+n >= len(in) {
			return args{}, fmt.Errorf("%s: :%s needs %d value(s)", fn, name, n)
		}
		out.kw[name] = in[i+1 : i+1+n]
		i += 1 + n
	}
	return out, nil
}

func (a args) has(name string) bool {
	_, ok := a.kw[name]
	return ok
}

func (a args) one(name string) (zygo.Sexp, bool) {
	v, ok := a.kw[name]
	if !ok || len(v) == 0 {
		return nil, false
	}
	return v[0], true
}

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok && !strings.HasPrefix(str.S, kwPrefix) {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", s.SexpString(nil))
}

// toName accepts a keyword or a plain string.
func toName(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %s", s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toPoint(s zygo.Sexp) (geom.Point3D, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.p, nil
	}
	return geom.Point3D{}, fmt.Errorf("expected vec3, got %s", s.SexpString(nil))
}

// ===== Builtins =====

func registerBuiltins(env *zygo.Zlisp, b *builder) {
	// (vec3 x y z)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, in []zygo.Sexp) (zygo.Sexp, error) {
		if len(in) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3: want 3 numbers, got %d", len(in))
		}
		var c [3]float64
		for i, s := range in {
			f, err := toFloat64(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
			}
			c[i] = f
		}
		return &sexpVec3{p: geom.Pt(c[0], c[1], c[2])}, nil
	})

	// (view :floor-plan)
	env.AddFunction("view", func(env *zygo.Zlisp, name string, in []zygo.Sexp) (zygo.Sexp, error) {
		if len(in) != 1 {
			return zygo.SexpNull, fmt.Errorf("view: want 1 argument, got %d", len(in))
		}
		v, err := toName(in[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("view: %w", err)
		}
		b.view = tag.ParseViewType(v)
		return zygo.SexpNull, nil
	})

	// (family "M_Door Tag" :id "1001" :category :doors)
	env.AddFunction("family", func(env *zygo.Zlisp, name string, in []zygo.Sexp) (zygo.Sexp, error) {
		a, err := parseArgs("family", in, nil, nil)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(a.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("family: want a family name")
		}
		fam, err := toString(a.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("family: %w", err)
		}
		sym := symbols.LibrarySymbol{Family: fam}
		v, ok := a.one("id")
		if !ok {
			return zygo.SexpNull, fmt.Errorf("family %q: :id is required", fam)
		}
		if sym.ID, err = idString(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("family %q: id: %w", fam, err)
		}
		if v, ok := a.one("category"); ok {
			cname, err := toName(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("family %q: category: %w", fam, err)
			}
			if sym.Category, err = tag.ParseCategory(cname); err != nil {
				return zygo.SexpNull, fmt.Errorf("family %q: %w", fam, err)
			}
		}
		b.library = append(b.library, sym)
		return zygo.SexpNull, nil
	})

	// (default-library)
	env.AddFunction("default_library", func(env *zygo.Zlisp, name string, in []zygo.Sexp) (zygo.Sexp, error) {
		families := symbols.DefaultFamilies()
		for _, c := range tag.AllCategories() {
			b.library = append(b.library, symbols.LibrarySymbol{
				ID:       "default:" + c.Slug(),
				Family:   families[c],
				Category: c,
			})
		}
		return zygo.SexpNull, nil
	})

	// (element "id" :category :walls :at P | :curve A B [:curtain] [:level N] [:type])
	env.AddFunction("element", func(env *zygo.Zlisp, name string, in []zygo.Sexp) (zygo.Sexp, error) {
		a, err := parseArgs("element", in,
			map[string]bool{"curtain": true, "type": true},
			map[string]int{"curve": 2})
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(a.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("element: want an element id")
		}
		id, err := idString(a.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("element: id: %w", err)
		}
		e, err := buildElement(id, a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("element %q: %w", id, err)
		}
		b.elements = append(b.elements, e)
		return zygo.SexpNull, nil
	})
}

func buildElement(id string, a args) (scene.Element, error) {
	v, ok := a.one("category")
	if !ok {
		return scene.Element{}, fmt.Errorf(":category is required")
	}
	cname, err := toName(v)
	if err != nil {
		return scene.Element{}, fmt.Errorf("category: %w", err)
	}
	e := scene.Element{ID: id, CategoryName: cname, Location: geom.NoLocation{}}
	if c, err := tag.ParseCategory(cname); err == nil {
		e.Category = c
		e.CategoryName = c.String()
	}

	if a.has("at") && a.has("curve") {
		return scene.Element{}, fmt.Errorf(":at and :curve are exclusive")
	}
	if v, ok := a.one("at"); ok {
		p, err := toPoint(v)
		if err != nil {
			return scene.Element{}, fmt.Errorf("at: %w", err)
		}
		e.Location = geom.PointLocation{Point: p}
	}
	if ends, ok := a.kw["curve"]; ok {
		start, err := toPoint(ends[0])
		if err != nil {
			return scene.Element{}, fmt.Errorf("curve start: %w", err)
		}
		end, err := toPoint(ends[1])
		if err != nil {
			return scene.Element{}, fmt.Errorf("curve end: %w", err)
		}
		e.Location = geom.CurveLocation{Start: start, End: end}
	}
	if v, ok := a.one("level"); ok {
		lvl, err := toFloat64(v)
		if err != nil {
			return scene.Element{}, fmt.Errorf("level: %w", err)
		}
		e.Extra.LevelElevation = &lvl
	}
	e.Extra.IsCurtain = a.has("curtain")
	e.IsType = a.has("type")
	return e, nil
}

// idString accepts string or integer ids.
func idString(s zygo.Sexp) (string, error) {
	if i, ok := s.(*zygo.SexpInt); ok {
		return fmt.Sprintf("%d", i.Val), nil
	}
	return toString(s)
}
