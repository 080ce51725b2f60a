package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/config"
	"github.com/smallbiznis/zyra/internal/product/domain"
	"github.com/smallbiznis/zyra/internal/product/repository"
	usagedomain "github.com/smallbiznis/zyra/internal/usagestats/domain"
	"github.com/smallbiznis/zyra/internal/usagestats/repository/memory"
	usageservice "github.com/smallbiznis/zyra/internal/usagestats/service"
	"github.com/smallbiznis/zyra/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   *Service
	usage usagedomain.Service
	clock *clock.FakeClock
}

func newFixture(t *testing.T, wrap func(domain.Repository) domain.Repository) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC))
	catalog := config.NewStaticCatalogHolder(config.DefaultCatalog())
	usage := usageservice.New(usageservice.Params{
		Store:   memory.New(),
		Log:     zap.NewNop(),
		Clock:   clk,
		Catalog: catalog,
	})

	repo := repository.Provide()
	if wrap != nil {
		repo = wrap(repo)
	}
	svc := New(Params{
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    repo,
		Clock:   clk,
		Catalog: catalog,
		Usage:   usage,
	}).(*Service)
	return &fixture{svc: svc, usage: usage, clock: clk}
}

func (f *fixture) create(t *testing.T, userID snowflake.ID, name, category string) *domain.Response {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), userID, domain.CreateRequest{Name: name, Category: category, Price: 1999})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return resp
}

func TestOptimizeAllRemovesCaseInsensitiveDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := snowflake.ID(1)

	oldest := f.create(t, userID, "foo bar", "Electronics")
	f.create(t, userID, "Foo Bar", "electronics")

	res, err := f.svc.OptimizeAll(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Optimized)
	assert.Equal(t, 1, res.DuplicatesRemoved)

	list, err := f.svc.List(ctx, userID, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	got := list.Items[0]
	assert.Equal(t, oldest.ID, got.ID)
	assert.Equal(t, "Foo Bar", got.Name)
	assert.Equal(t, "foo-bar", got.Slug)
	assert.True(t, got.IsOptimized)
	require.NotNil(t, got.Description)
	assert.Equal(t, config.DefaultCatalog().Categories["electronics"].Description, *got.Description)
	assert.Equal(t, config.DefaultCatalog().Categories["electronics"].Tags, got.Tags)

	stats, err := f.usage.GetStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ProductsOptimized)

	activity, err := f.usage.ListActivity(ctx, userID, 1)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, ActionOptimizeAll, activity[0].Action)
}

func TestOptimizeAllFallsBackForUnknownCategory(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := snowflake.ID(2)

	f.create(t, userID, "  handmade   CANDLE ", "Crafts")
	_, err := f.svc.OptimizeAll(ctx, userID)
	require.NoError(t, err)

	list, err := f.svc.List(ctx, userID, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Handmade Candle", list.Items[0].Name)
	assert.Equal(t, "High-quality crafts product: Handmade Candle.", *list.Items[0].Description)
	assert.Equal(t, []string{"crafts"}, list.Items[0].Tags)
}

func TestOptimizeAllKeepsExistingDescriptionAndTags(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := snowflake.ID(3)

	desc := "Hand-picked"
	_, err := f.svc.Create(ctx, userID, domain.CreateRequest{
		Name: "tea", Category: "home", Description: &desc, Tags: []string{"Tea", "tea", " loose "},
	})
	require.NoError(t, err)

	_, err = f.svc.OptimizeAll(ctx, userID)
	require.NoError(t, err)

	list, err := f.svc.List(ctx, userID, domain.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Hand-picked", *list.Items[0].Description)
	assert.Equal(t, []string{"tea", "loose"}, list.Items[0].Tags)
}

type failingUpdateRepo struct {
	domain.Repository
}

func (r failingUpdateRepo) Update(context.Context, *gorm.DB, *domain.Product) error {
	return errors.New("disk full")
}

func TestOptimizeAllDeletesNothingWhenUpdateFails(t *testing.T) {
	f := newFixture(t, func(r domain.Repository) domain.Repository { return failingUpdateRepo{r} })
	ctx := context.Background()
	userID := snowflake.ID(4)

	f.create(t, userID, "lamp", "home")
	f.create(t, userID, "LAMP", "Home")

	_, err := f.svc.OptimizeAll(ctx, userID)
	require.Error(t, err)

	list, err := f.svc.List(ctx, userID, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	_, err = f.usage.GetStats(ctx, userID)
	assert.ErrorIs(t, err, usagedomain.ErrStatsNotFound)
}

func TestOptimizeAllWithNoProducts(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.svc.OptimizeAll(context.Background(), snowflake.ID(5))
	require.NoError(t, err)
	assert.Zero(t, res.Optimized)
	assert.Zero(t, res.DuplicatesRemoved)
}

func TestProductOwnership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner, other := snowflake.ID(10), snowflake.ID(11)

	p := f.create(t, owner, "desk", "home")

	_, err := f.svc.Get(ctx, other, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, other, p.ID), domain.ErrNotFound)

	_, err = f.svc.Get(ctx, owner, "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	require.NoError(t, f.svc.Delete(ctx, owner, p.ID))
	_, err = f.svc.Get(ctx, owner, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateClearsOptimizedFlag(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := snowflake.ID(12)

	p := f.create(t, userID, "chair", "home")
	_, err := f.svc.OptimizeAll(ctx, userID)
	require.NoError(t, err)

	name := "Rocking Chair"
	price := int64(-5)
	_, err = f.svc.Update(ctx, userID, p.ID, domain.UpdateRequest{Price: &price})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	updated, err := f.svc.Update(ctx, userID, p.ID, domain.UpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "rocking-chair", updated.Slug)
	assert.False(t, updated.IsOptimized)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 1, domain.CreateRequest{Name: " ", Category: "home"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
	_, err = f.svc.Create(ctx, 1, domain.CreateRequest{Name: "x", Category: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
	_, err = f.svc.Create(ctx, 1, domain.CreateRequest{Name: "x", Category: "home", Price: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := snowflake.ID(20)

	var names []string
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		f.create(t, userID, n, "home")
		names = append([]string{n}, names...)
	}

	var got []string
	req := domain.ListRequest{}
	req.PageSize = 2
	for page := 0; page < 5; page++ {
		resp, err := f.svc.List(ctx, userID, req)
		require.NoError(t, err)
		for _, item := range resp.Items {
			got = append(got, item.Name)
		}
		if !resp.PageInfo.HasMore {
			break
		}
		req.PageToken = resp.PageInfo.NextPageToken
	}
	assert.Equal(t, names, got)
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"foo bar":       "Foo Bar",
		"  FOO   bAR  ": "Foo Bar",
		"x":             "X",
		"":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, titleCase(in), in)
	}
	assert.Equal(t, "\u00c9clair", titleCase("\u00e9CLAIR"))
}
