package memory

import (
	"time"

	"notesnap-gateway/internal/entity"

	"github.com/patrickmn/go-cache"
)

// WorkspaceRepository holds each user's active extraction workspace in
// memory. Nothing here is durable: the remote backend owns persistence,
// so an expired entry simply means the dashboard starts from Idle again.
type WorkspaceRepository struct {
	cache *cache.Cache
}

func NewWorkspaceRepository() *WorkspaceRepository {
	// Default expiration of 1 hour, purge sweep every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &WorkspaceRepository{
		cache: c,
	}
}

func (r *WorkspaceRepository) Save(userId string, ws *entity.Workspace) {
	ws.UpdatedAt = time.Now()
	r.cache.Set(userId, ws, cache.DefaultExpiration)
}

func (r *WorkspaceRepository) Get(userId string) (*entity.Workspace, bool) {
	if x, found := r.cache.Get(userId); found {
		return x.(*entity.Workspace), true
	}
	return nil, false
}

func (r *WorkspaceRepository) Delete(userId string) {
	r.cache.Delete(userId)
}
