package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

// Format is a snapshot file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

type wireSnapshot struct {
	View     string        `json:"view" yaml:"view"`
	Elements []wireElement `json:"elements" yaml:"elements"`
	Library  []wireSymbol  `json:"library,omitempty" yaml:"library,omitempty"`
}

type wireElement struct {
	ID             string     `json:"id" yaml:"id"`
	Category       string     `json:"category" yaml:"category"`
	Point          []float64  `json:"point,omitempty" yaml:"point,omitempty,flow"`
	Curve          *wireCurve `json:"curve,omitempty" yaml:"curve,omitempty"`
	Curtain        bool       `json:"curtain,omitempty" yaml:"curtain,omitempty"`
	LevelElevation *float64   `json:"level_elevation,omitempty" yaml:"level_elevation,omitempty"`
	IsType         bool       `json:"is_type,omitempty" yaml:"is_type,omitempty"`
}

type wireCurve struct {
	Start []float64 `json:"start" yaml:"start,flow"`
	End   []float64 `json:"end" yaml:"end,flow"`
}

type wireSymbol struct {
	ID       string `json:"id" yaml:"id"`
	Family   string `json:"family" yaml:"family"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// ReadJSON decodes a snapshot:
//
//	{
//	  "view": "FloorPlan",
//	  "elements": [
//	    {"id": "w1", "category": "Walls", "curve": {"start": [0,0,0], "end": [10,0,0]}, "curtain": true},
//	    {"id": "d1", "category": "Doors", "point": [1,2,0]}
//	  ],
//	  "library": [{"id": "1001", "family": "M_Door Tag"}]
//	}
//
// An element with neither point nor curve has no location. Setting both,
// or a coordinate list that is not three numbers long, is an
// ErrCodeInvalidSnapshot error.
func ReadJSON(r io.Reader) (*Snapshot, error) {
	var w wireSnapshot
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode snapshot json")
	}
	return w.snapshot()
}

// ReadYAML decodes a snapshot in the same shape as [ReadJSON].
func ReadYAML(r io.Reader) (*Snapshot, error) {
	var w wireSnapshot
	if err := yaml.NewDecoder(r).Decode(&w); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode snapshot yaml")
	}
	return w.snapshot()
}

// WriteJSON encodes s as indented JSON. Non-finite coordinates cannot be
// represented in JSON; use [WriteYAML] for such snapshots.
func WriteJSON(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toWire(s)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "encode snapshot json")
	}
	return nil
}

// WriteYAML encodes s as YAML.
func WriteYAML(s *Snapshot, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toWire(s)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "encode snapshot yaml")
	}
	return enc.Close()
}

// Import reads a JSON or YAML snapshot file, choosing the decoder by
// extension.
func Import(path string) (*Snapshot, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported snapshot extension %q", filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if format == FormatYAML {
		return ReadYAML(f)
	}
	return ReadJSON(f)
}

// Export writes s to path, choosing the encoder by extension.
func Export(s *Snapshot, path string) error {
	format, ok := FormatFromPath(path)
	if !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported snapshot extension %q", filepath.Ext(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if format == FormatYAML {
		return WriteYAML(s, f)
	}
	return WriteJSON(s, f)
}

func (w wireSnapshot) snapshot() (*Snapshot, error) {
	s := &Snapshot{
		View:     tag.ParseViewType(w.View),
		Elements: make([]Element, 0, len(w.Elements)),
	}
	for i, we := range w.Elements {
		e, err := we.element()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "element %d (%q)", i, we.ID)
		}
		s.Elements = append(s.Elements, e)
	}
	for _, ws := range w.Library {
		sym := symbols.LibrarySymbol{ID: ws.ID, Family: ws.Family}
		if ws.Category != "" {
			// Unknown library categories are informational only.
			sym.Category, _ = tag.ParseCategory(ws.Category)
		}
		s.Library = append(s.Library, sym)
	}
	return s, nil
}

func (we wireElement) element() (Element, error) {
	cat, _ := tag.ParseCategory(we.Category)
	e := Element{
		ID:           we.ID,
		Category:     cat,
		CategoryName: we.Category,
		Location:     geom.NoLocation{},
		Extra: ElementExtra{
			IsCurtain:      we.Curtain,
			LevelElevation: we.LevelElevation,
		},
		IsType: we.IsType,
	}

	switch {
	case we.Point != nil && we.Curve != nil:
		return Element{}, fmt.Errorf("both point and curve are set")
	case we.Point != nil:
		p, err := point(we.Point)
		if err != nil {
			return Element{}, fmt.Errorf("point: %w", err)
		}
		e.Location = geom.PointLocation{Point: p}
	case we.Curve != nil:
		start, err := point(we.Curve.Start)
		if err != nil {
			return Element{}, fmt.Errorf("curve start: %w", err)
		}
		end, err := point(we.Curve.End)
		if err != nil {
			return Element{}, fmt.Errorf("curve end: %w", err)
		}
		e.Location = geom.CurveLocation{Start: start, End: end}
	}
	return e, nil
}

func point(xyz []float64) (geom.Point3D, error) {
	if len(xyz) != 3 {
		return geom.Point3D{}, fmt.Errorf("want 3 coordinates, got %d", len(xyz))
	}
	return geom.Pt(xyz[0], xyz[1], xyz[2]), nil
}

func toWire(s *Snapshot) wireSnapshot {
	w := wireSnapshot{
		View:     s.View.String(),
		Elements: make([]wireElement, len(s.Elements)),
	}
	for i, e := range s.Elements {
		we := wireElement{
			ID:             e.ID,
			Category:       e.CategoryName,
			Curtain:        e.Extra.IsCurtain,
			LevelElevation: e.Extra.LevelElevation,
			IsType:         e.IsType,
		}
		if we.Category == "" && e.Category.Valid() {
			we.Category = e.Category.String()
		}
		switch loc := e.Location.(type) {
		case geom.PointLocation:
			we.Point = coords(loc.Point)
		case geom.CurveLocation:
			we.Curve = &wireCurve{Start: coords(loc.Start), End: coords(loc.End)}
		}
		w.Elements[i] = we
	}
	for _, sym := range s.Library {
		ws := wireSymbol{ID: sym.ID, Family: sym.Family}
		if sym.Category.Valid() {
			ws.Category = sym.Category.String()
		}
		w.Library = append(w.Library, ws)
	}
	return w
}

func coords(p geom.Point3D) []float64 {
	return []float64{p.X, p.Y, p.Z}
}
