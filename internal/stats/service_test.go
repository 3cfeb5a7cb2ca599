package stats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
)

type countingRepo struct {
	calls int
}

func (r *countingRepo) Summarize(ctx context.Context) (Summary, error) {
	r.calls++
	return Summary{
		ApplicationsByPhase: map[string]int{"draft": 3, "approved": 1},
		TotalApplications:   4,
		EstimatedIncentives: 80000,
		ApprovedIncentives:  20000,
		Companies:           2,
		ContractorOrgs:      1,
		GeneratedAt:         time.Now().UTC(),
	}, nil
}

func newService(t *testing.T) (*Service, *countingRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &countingRepo{}
	return NewService(repo, rdb, authz.NewResolver(authz.DefaultGrants()), nil), repo
}

func admin() *authz.Actor {
	return &authz.Actor{ID: "root", Role: authz.RoleSystemAdmin}
}

func TestSummaryGuards(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, err := service.Summary(ctx, nil)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = service.Summary(ctx, &authz.Actor{ID: "tm", Role: authz.RoleTeamMember, PermissionLevel: authz.LevelManager, CompanyID: "co-1"})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = service.Summary(ctx, &authz.Actor{ID: "c", Role: authz.RoleContractorAccountOwner, CompanyID: "org-1"})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = service.Summary(ctx, &authz.Actor{ID: "ca", Role: authz.RoleCompanyAdmin, CompanyID: "co-1"})
	assert.NoError(t, err)
}

func TestSummaryCaches(t *testing.T) {
	service, repo := newService(t)
	ctx := context.Background()

	first, err := service.Summary(ctx, admin())
	require.NoError(t, err)
	assert.Equal(t, 4, first.TotalApplications)
	assert.Equal(t, 1, repo.calls)

	_, err = service.Summary(ctx, admin())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "second read served from cache")

	service.Invalidate(ctx)
	_, err = service.Summary(ctx, admin())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls, "invalidation forces a recompute")
}

func TestWarmPrimesCache(t *testing.T) {
	service, repo := newService(t)
	ctx := context.Background()

	require.NoError(t, service.Warm(ctx))
	assert.Equal(t, 1, repo.calls)

	_, err := service.Summary(ctx, admin())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "read after warmup hits the cache")
}

func TestSummaryWithoutRedis(t *testing.T) {
	repo := &countingRepo{}
	service := NewService(repo, nil, authz.NewResolver(authz.DefaultGrants()), nil)

	summary, err := service.Summary(context.Background(), admin())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Companies)
}
