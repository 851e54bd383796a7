package geom

// LocationKind distinguishes the variants of Location.
type LocationKind int

const (
	KindNone  LocationKind = iota // element has no usable geometry
	KindPoint                     // single insertion point (doors, furniture, rooms)
	KindCurve                     // driving curve (walls)
)

func (k LocationKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPoint:
		return "point"
	case KindCurve:
		return "curve"
	default:
		return "unknown"
	}
}

// Location is the geometric location the host reports for an element.
// It is a closed variant: PointLocation, CurveLocation or NoLocation.
type Location interface {
	Kind() LocationKind
	location() // marker method restricting implementations to this package
}

// PointLocation is an element located by a single point.
type PointLocation struct {
	Point Point3D
}

func (PointLocation) Kind() LocationKind { return KindPoint }
func (PointLocation) location()          {}

// CurveLocation is an element located by a curve. Only the endpoints matter
// for anchoring.
type CurveLocation struct {
	Start Point3D
	End   Point3D
}

func (CurveLocation) Kind() LocationKind { return KindCurve }
func (CurveLocation) location()          {}

// NoLocation marks an element whose geometry the host cannot express as a
// point or a curve.
type NoLocation struct{}

func (NoLocation) Kind() LocationKind { return KindNone }
func (NoLocation) location()          {}

// KindOf returns the kind of loc, treating nil as KindNone.
func KindOf(loc Location) LocationKind {
	if loc == nil {
		return KindNone
	}
	return loc.Kind()
}
