package scene

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/symbols"
)

// Fingerprint returns a canonical byte encoding of s for cache keys.
// Equal snapshots produce equal fingerprints. Library order is kept
// because symbol resolution depends on it; non-finite coordinates are
// encoded too, unlike in JSON.
func (s *Snapshot) Fingerprint() []byte {
	var b bytes.Buffer
	b.WriteString("view=")
	b.WriteString(s.View.String())
	b.WriteByte('\n')
	for _, e := range s.Elements {
		b.WriteString("el ")
		b.WriteString(strconv.Quote(e.ID))
		b.WriteByte(' ')
		writeCategory(&b, e)
		b.WriteByte(' ')
		writeLocation(&b, e.Location)
		if e.Extra.IsCurtain {
			b.WriteString(" curtain")
		}
		if e.Extra.LevelElevation != nil {
			b.WriteString(" level=")
			b.WriteString(formatFloat(*e.Extra.LevelElevation))
		}
		if e.IsType {
			b.WriteString(" type")
		}
		b.WriteByte('\n')
	}
	for _, sym := range s.Library {
		b.WriteString("sym ")
		b.WriteString(strconv.Quote(sym.ID))
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(sym.Family))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// FamiliesFingerprint returns a canonical encoding of a family table.
func FamiliesFingerprint(f symbols.FamilyNames) []byte {
	keys := make([]string, 0, len(f))
	for c, name := range f {
		keys = append(keys, c.Slug()+"="+strconv.Quote(name))
	}
	sort.Strings(keys)
	var b bytes.Buffer
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// writeCategory encodes the parsed category, which is what decisions read.
// Unknown categories fall back to the raw host name.
func writeCategory(b *bytes.Buffer, e Element) {
	if e.Category.Valid() {
		b.WriteString(e.Category.Slug())
		return
	}
	b.WriteString("raw:")
	b.WriteString(strconv.Quote(e.CategoryName))
}

func writeLocation(b *bytes.Buffer, loc geom.Location) {
	switch l := loc.(type) {
	case geom.PointLocation:
		b.WriteString("point")
		writePoint(b, l.Point)
	case geom.CurveLocation:
		b.WriteString("curve")
		writePoint(b, l.Start)
		writePoint(b, l.End)
	default:
		b.WriteString("none")
	}
}

func writePoint(b *bytes.Buffer, p geom.Point3D) {
	b.WriteByte('(')
	b.WriteString(formatFloat(p.X))
	b.WriteByte(',')
	b.WriteString(formatFloat(p.Y))
	b.WriteByte(',')
	b.WriteString(formatFloat(p.Z))
	b.WriteByte(')')
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
