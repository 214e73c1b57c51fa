package audiobook

import (
	"context"

	"github.com/hazyhaar/lector/store"
)

// storeCache exposes the segments table as a synth.Cache.
type storeCache struct {
	st *store.Store
}

func (c *storeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.st.GetSegment(ctx, key)
}

func (c *storeCache) Put(ctx context.Context, key, voice string, chars int, audio []byte) error {
	_, err := c.st.PutSegment(ctx, &store.Segment{
		Key:   key,
		Voice: voice,
		Chars: chars,
		Audio: audio,
	})
	return err
}
