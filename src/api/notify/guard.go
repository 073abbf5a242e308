package notify

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewGuard suppresses repeat view notifications within a login session.
// Keys carry the session id, so a fresh login re-notifies.
type ViewGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewViewGuard(rdb *redis.Client, ttl time.Duration) *ViewGuard {
	return &ViewGuard{rdb: rdb, ttl: ttl}
}

// FirstView reports whether this is the first view of target for kind in the
// given session. Errors count as already-seen so a flaky Redis cannot spam
// recipients.
func (g *ViewGuard) FirstView(ctx context.Context, sessionID, kind, target string) bool {
	ok, err := g.rdb.SetNX(ctx, "viewed:"+kind+":"+sessionID+":"+target, 1, g.ttl).Result()
	if err != nil {
		log.Printf("view guard: %v", err)
		return false
	}
	return ok
}
