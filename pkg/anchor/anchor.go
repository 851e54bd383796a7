// Package anchor computes the point at which a tag attaches to an element.
//
// Point-located elements anchor at their insertion point. Curve-located
// elements (walls) anchor at the midpoint of the curve's endpoints. Elements
// without usable geometry have no anchor and are skipped by callers.
package anchor

import (
	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/geom"
)

// Resolve returns the anchor point for loc.
//
// The boolean is false when loc carries no geometry (NoLocation or nil);
// this is not an error. A location with a NaN or infinite coordinate
// returns an ErrCodeInvalidGeometry error and never a point.
func Resolve(loc geom.Location) (geom.Point3D, bool, error) {
	switch l := loc.(type) {
	case geom.PointLocation:
		if !l.Point.IsFinite() {
			return geom.Point3D{}, false, errors.New(errors.ErrCodeInvalidGeometry,
				"insertion point %v is not finite", l.Point)
		}
		return l.Point, true, nil

	case geom.CurveLocation:
		if !l.Start.IsFinite() {
			return geom.Point3D{}, false, errors.New(errors.ErrCodeInvalidGeometry,
				"curve start %v is not finite", l.Start)
		}
		if !l.End.IsFinite() {
			return geom.Point3D{}, false, errors.New(errors.ErrCodeInvalidGeometry,
				"curve end %v is not finite", l.End)
		}
		return geom.Midpoint(l.Start, l.End), true, nil

	default:
		return geom.Point3D{}, false, nil
	}
}

// Resolver adapts Resolve to the interface the pipeline consumes.
type Resolver struct{}

// Resolve calls the package-level Resolve.
func (Resolver) Resolve(loc geom.Location) (geom.Point3D, bool, error) {
	return Resolve(loc)
}
