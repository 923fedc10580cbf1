package store

import "context"

// Scoped namespaces every key of an underlying store, giving each browser
// session its own view of the same fixed key names.
type Scoped struct {
	kv     KV
	prefix string
}

func NewScoped(kv KV, scope string) *Scoped {
	return &Scoped{kv: kv, prefix: scopedKey(scope, "")}
}

func (s *Scoped) Get(ctx context.Context, key string) (string, error) {
	return s.kv.Get(ctx, s.prefix+key)
}

func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.prefix+key, value)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, s.prefix+key)
}

func scopedKey(scope, key string) string {
	return "session:" + scope + ":" + key
}
