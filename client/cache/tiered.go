package cache

import (
	"context"
	"errors"
)

// Tiered consults Front before Back. Hits from Back are copied into Front.
type Tiered struct {
	Front Cache
	Back  Cache
}

func (t Tiered) Get(ctx context.Context, key string) (*Entry, error) {
	e, err := t.Front.Get(ctx, key)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	e, err = t.Back.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := t.Front.Set(ctx, key, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (t Tiered) Set(ctx context.Context, key string, e *Entry) error {
	return errors.Join(t.Front.Set(ctx, key, e), t.Back.Set(ctx, key, e))
}

func (t Tiered) Delete(ctx context.Context, key string) error {
	return errors.Join(t.Front.Delete(ctx, key), t.Back.Delete(ctx, key))
}

func (t Tiered) Clear(ctx context.Context) error {
	return errors.Join(t.Front.Clear(ctx), t.Back.Clear(ctx))
}
