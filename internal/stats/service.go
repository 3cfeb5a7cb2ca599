package stats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
)

const (
	cacheKey = "stats:summary"
	cacheTTL = 5 * time.Minute
)

// Service serves the dashboard summary with a Redis cache in front of the
// aggregate queries. Concurrent cache misses collapse into one compute.
type Service struct {
	repo     Repository
	rdb      *redis.Client
	resolver *authz.Resolver
	group    singleflight.Group
	logger   *slog.Logger
}

// NewService constructs a Service. A nil Redis client disables caching.
func NewService(repo Repository, rdb *redis.Client, resolver *authz.Resolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, rdb: rdb, resolver: resolver, logger: logger}
}

// Summary returns the dashboard figures. Requires the view_reports
// permission; contractor roles never hold it.
func (s *Service) Summary(ctx context.Context, actor *authz.Actor) (Summary, error) {
	if actor == nil || !s.resolver.HasPermission(actor.Role, authz.PermViewReports) {
		return Summary{}, httpx.ErrForbidden
	}
	return s.cachedSummary(ctx)
}

// Warm recomputes the summary and refreshes the cache. Called from the
// scheduled warmup job.
func (s *Service) Warm(ctx context.Context) error {
	summary, err := s.repo.Summarize(ctx)
	if err != nil {
		return err
	}
	s.store(ctx, summary)
	return nil
}

// Invalidate drops the cached summary, forcing the next read to recompute.
func (s *Service) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logError("invalidate stats cache", err)
	}
}

func (s *Service) cachedSummary(ctx context.Context) (Summary, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var summary Summary
			if err := json.Unmarshal(raw, &summary); err == nil {
				return summary, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logError("read stats cache", err)
		}
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		summary, err := s.repo.Summarize(ctx)
		if err != nil {
			return Summary{}, err
		}
		s.store(ctx, summary)
		return summary, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

func (s *Service) store(ctx context.Context, summary Summary) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		s.logError("encode stats cache", err)
		return
	}
	if err := s.rdb.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
		s.logError("write stats cache", err)
	}
}

func (s *Service) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, slog.Any("error", err))
	}
}
