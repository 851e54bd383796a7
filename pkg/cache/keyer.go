package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// directivesPrefix starts every unscoped directive-set key.
const directivesPrefix = "directives:"

// Hash returns the hex SHA-256 digest of a snapshot or family fingerprint.
// FileCache uses the same digest to shard entries on disk.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Keyer builds cache keys.
type Keyer interface {
	// DirectivesKey returns the key of the directive set computed for a
	// snapshot under the given options.
	DirectivesKey(snapshotHash string, opts DirectivesKeyOpts) string
}

// DirectivesKeyOpts lists every run option that changes the directive set.
type DirectivesKeyOpts struct {
	View           string     `json:"view"`
	FamiliesHash   string     `json:"families"`
	WindowOffset   [3]float64 `json:"window_offset"`
	SectionLift    [3]float64 `json:"section_lift"`
	AbortOnInvalid bool       `json:"abort_on_invalid"`
}

// encode writes one quoted field per line, so distinct inputs never share
// an encoding.
func (o DirectivesKeyOpts) encode(snapshotHash string) []byte {
	var b bytes.Buffer
	field := func(name, value string) {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte('\n')
	}
	field("snapshot", strconv.Quote(snapshotHash))
	field("view", strconv.Quote(o.View))
	field("families", strconv.Quote(o.FamiliesHash))
	field("window", vector(o.WindowOffset))
	field("lift", vector(o.SectionLift))
	field("abort", strconv.FormatBool(o.AbortOnInvalid))
	return b.Bytes()
}

func vector(v [3]float64) string {
	return strconv.FormatFloat(v[0], 'g', -1, 64) + "," +
		strconv.FormatFloat(v[1], 'g', -1, 64) + "," +
		strconv.FormatFloat(v[2], 'g', -1, 64)
}

// DefaultKeyer produces unscoped keys of the form "directives:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DirectivesKey implements Keyer.
func (DefaultKeyer) DirectivesKey(snapshotHash string, opts DirectivesKeyOpts) string {
	return directivesPrefix + Hash(opts.encode(snapshotHash))
}
