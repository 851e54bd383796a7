package cache

// ScopedKeyer namespaces the keys of an inner Keyer, so that template
// libraries sharing one Redis or Mongo backend never read each other's
// directive sets.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "scope:east-wing:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer prepends prefix to every key of inner. A nil inner means
// the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// DirectivesKey implements Keyer.
func (k *ScopedKeyer) DirectivesKey(snapshotHash string, opts DirectivesKeyOpts) string {
	return k.prefix + k.inner.DirectivesKey(snapshotHash, opts)
}
