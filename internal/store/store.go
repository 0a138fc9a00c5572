package store

import "context"

// Store is a synchronous key-value string store. Writes to different keys
// carry no atomicity guarantee unless the implementation also satisfies
// Batcher.
type Store interface {
	// Get returns the value at key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Batcher is implemented by stores able to write several keys in one atomic
// step. Either every pair is written or none is.
type Batcher interface {
	SetMany(ctx context.Context, pairs map[string]string) error
}

// prefixed namespaces every key of an underlying store.
type prefixed struct {
	inner  Store
	prefix string
}

type prefixedBatcher struct {
	prefixed
	batch Batcher
}

// WithPrefix returns a Store that prepends prefix to every key. The result keeps
// the Batcher capability of the wrapped store.
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	p := prefixed{inner: s, prefix: prefix}
	if b, ok := s.(Batcher); ok {
		return &prefixedBatcher{prefixed: p, batch: b}
	}
	return &p
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}

func (p *prefixedBatcher) SetMany(ctx context.Context, pairs map[string]string) error {
	scoped := make(map[string]string, len(pairs))
	for k, v := range pairs {
		scoped[p.prefix+k] = v
	}
	return p.batch.SetMany(ctx, scoped)
}
