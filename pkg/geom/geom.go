// Package geom defines the geometry value types exchanged with the host
// document: points, displacement vectors, plan projections and element
// locations.
//
// Arithmetic goes through the sdfx vector and matrix types so that anchor
// math and tag translation use the same kernel as the rest of the CAD
// tooling. All types are immutable values.
package geom

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// =============================================================================
// Point3D
// =============================================================================

// Point3D is a position in model coordinates, in the view's length unit.
type Point3D struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
	Z float64 `json:"z" yaml:"z" bson:"z"`
}

// Pt is shorthand for Point3D{X: x, Y: y, Z: z}.
func Pt(x, y, z float64) Point3D {
	return Point3D{X: x, Y: y, Z: z}
}

func (p Point3D) vec() v3.Vec {
	return v3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

func pointFromVec(v v3.Vec) Point3D {
	return Point3D{X: v.X, Y: v.Y, Z: v.Z}
}

// Midpoint returns the componentwise average of a and b.
// It is symmetric: Midpoint(a, b) == Midpoint(b, a). Each endpoint is halved
// before the sum, so finite endpoints always give a finite midpoint.
func Midpoint(a, b Point3D) Point3D {
	return pointFromVec(a.vec().MulScalar(0.5).Add(b.vec().MulScalar(0.5)))
}

// Translate returns p displaced by d.
func (p Point3D) Translate(d Vector3D) Point3D {
	m := sdf.Translate3d(d.vec())
	return pointFromVec(m.MulPosition(p.vec()))
}

// Plan projects p onto the view plane, dropping Z.
func (p Point3D) Plan() PlanPoint {
	return PlanPoint{U: p.X, V: p.Y}
}

// IsFinite reports whether every component is a finite number.
func (p Point3D) IsFinite() bool {
	return finite(p.X) && finite(p.Y) && finite(p.Z)
}

func (p Point3D) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// =============================================================================
// Vector3D
// =============================================================================

// Vector3D is a displacement in model coordinates.
type Vector3D struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
	Z float64 `json:"z" yaml:"z" bson:"z"`
}

// Vec is shorthand for Vector3D{X: x, Y: y, Z: z}.
func Vec(x, y, z float64) Vector3D {
	return Vector3D{X: x, Y: y, Z: z}
}

func (v Vector3D) vec() v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// IsZero reports whether v is the null displacement.
func (v Vector3D) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// IsFinite reports whether every component is a finite number.
func (v Vector3D) IsFinite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func (v Vector3D) String() string {
	return fmt.Sprintf("<%g, %g, %g>", v.X, v.Y, v.Z)
}

// =============================================================================
// PlanPoint
// =============================================================================

// PlanPoint is a 2-D position in the plane of a plan view. Area tags are
// placed by plan coordinates rather than by a model point.
type PlanPoint struct {
	U float64 `json:"u" yaml:"u" bson:"u"`
	V float64 `json:"v" yaml:"v" bson:"v"`
}

// Lift returns the model point at elevation z above this plan position.
func (pp PlanPoint) Lift(z float64) Point3D {
	return Point3D{X: pp.U, Y: pp.V, Z: z}
}

func (pp PlanPoint) String() string {
	return fmt.Sprintf("(%g, %g)", pp.U, pp.V)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
