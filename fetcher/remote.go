package fetcher

import (
	"context"

	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/remote"
)

// AsRemote exposes the fetcher, caches included, as a Remote. This lets a
// server-mode fetcher sit behind the RPC service or in front of another
// fetcher.
func (f *Fetcher) AsRemote(opts ...FetchOption) remote.Remote {
	return remote.Funcs{
		Entity: func(ctx context.Context, s *model.EntitySpec) (*model.Entity, error) {
			res, err := f.Fetch(ctx, map[string]model.Spec{"entity": s}, opts...)
			if err != nil {
				return nil, err
			}
			return res.Entity("entity"), nil
		},
		Collection: func(ctx context.Context, s *model.CollectionSpec) (*model.Collection, error) {
			res, err := f.Fetch(ctx, map[string]model.Spec{"collection": s}, opts...)
			if err != nil {
				return nil, err
			}
			return res.Collection("collection"), nil
		},
	}
}
