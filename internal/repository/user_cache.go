package repository

import (
	"context"
	"strconv"

	"github.com/iliyamo/training-events/internal/cache"
	"github.com/iliyamo/training-events/internal/model"
)

// CachedUserRepo serves GetByLgID from redis and drops the entry whenever
// the user is written through it.
type CachedUserRepo struct {
	*UserRepo
	cache *cache.ViewCache[model.User]
}

func NewCachedUserRepo(repo *UserRepo, c *cache.ViewCache[model.User]) *CachedUserRepo {
	return &CachedUserRepo{UserRepo: repo, cache: c}
}

func (r *CachedUserRepo) key(lgID uint64) string {
	return r.cache.Key("user", "lg", strconv.FormatUint(lgID, 10))
}

func (r *CachedUserRepo) GetByLgID(ctx context.Context, lgID uint64) (*model.User, error) {
	if u, ok := r.cache.Get(ctx, r.key(lgID)); ok {
		return u, nil
	}
	u, err := r.UserRepo.GetByLgID(ctx, lgID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, r.key(lgID), u)
	return u, nil
}

func (r *CachedUserRepo) UpdateOrCreate(ctx context.Context, u model.User) (*model.User, error) {
	saved, err := r.UserRepo.UpdateOrCreate(ctx, u)
	if err != nil {
		return nil, err
	}
	r.cache.Delete(ctx, r.key(saved.LgID))
	return saved, nil
}

func (r *CachedUserRepo) SetSpeaker(ctx context.Context, id uint64, speaker bool) (*model.User, error) {
	u, err := r.UserRepo.SetSpeaker(ctx, id, speaker)
	if err != nil {
		return nil, err
	}
	r.cache.Delete(ctx, r.key(u.LgID))
	return u, nil
}
