package guide

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/interfaces"
	"github.com/megadodo/guide/internal/services/index"
	"github.com/megadodo/guide/internal/services/ledger"
	"github.com/megadodo/guide/internal/storage/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeTextService struct {
	text   string
	tokens int
	err    error
	calls  int
}

func (f *fakeTextService) Complete(ctx context.Context, messages []interfaces.Message) (*interfaces.Completion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &interfaces.Completion{Text: f.text, TotalTokens: f.tokens}, nil
}

type fakeImageService struct {
	payload string
	err     error
	calls   int
}

func (f *fakeImageService) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.payload, nil
}

type fakeModerator struct {
	unsafe map[string]bool
	calls  int
}

func (f *fakeModerator) IsSafe(ctx context.Context, input string) (bool, error) {
	f.calls++
	return !f.unsafe[input], nil
}

type fixture struct {
	svc       *Service
	mgr       *memory.Manager
	clock     *fakeClock
	text      *fakeTextService
	image     *fakeImageService
	moderator *fakeModerator
	ledger    *ledger.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	mgr := memory.NewManager(clock)
	logger := arbor.NewLogger()
	limits := common.LimitsConfig{
		MaxTokensPerDay: 100000,
		MaxImagesPerDay: 10,
		UsageTTL:        "24h",
		IndexTTL:        "24h",
	}

	ledgerSvc, err := ledger.NewService(mgr.Usage, limits, clock, logger)
	require.NoError(t, err)
	idx, err := index.NewService(mgr, limits, logger)
	require.NoError(t, err)

	text := &fakeTextService{text: "The **Babel fish** is small, yellow and leech-like.", tokens: 250}
	image := &fakeImageService{}
	moderator := &fakeModerator{unsafe: map[string]bool{}}

	gen := NewGenerator(text, nil, ledgerSvc, clock, 10*time.Second, logger)
	svc := NewService(mgr, gen, moderator, idx, ledgerSvc, clock, logger)

	return &fixture{
		svc:       svc,
		mgr:       mgr,
		clock:     clock,
		text:      text,
		image:     image,
		moderator: moderator,
		ledger:    ledgerSvc,
	}
}

// withImage rebuilds the pipeline with the fixture's image service wired in.
func (f *fixture) withImage(t *testing.T) {
	t.Helper()
	logger := arbor.NewLogger()
	gen := NewGenerator(f.text, f.image, f.ledger, f.clock, 10*time.Second, logger)
	idx, err := index.NewService(f.mgr, common.LimitsConfig{
		MaxTokensPerDay: 100000,
		MaxImagesPerDay: 10,
		UsageTTL:        "24h",
		IndexTTL:        "24h",
	}, logger)
	require.NoError(t, err)
	f.svc = NewService(f.mgr, gen, f.moderator, idx, f.ledger, f.clock, logger)
}

func TestArticleGeneratesAndPersistsOnMiss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rendered, err := f.svc.Article(ctx, "babel-fish")
	require.NoError(t, err)
	assert.Contains(t, rendered, "<strong>Babel fish</strong>")
	assert.Equal(t, 1, f.text.calls)
	assert.True(t, f.mgr.Articles.Has("babel-fish"))
	assert.Equal(t, time.Duration(0), f.mgr.Articles.LastTTL, "articles are permanent")

	usage, err := f.ledger.CurrentUsage(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 250, usage.TotalTokens)
}

func TestArticleCacheHitSkipsGeneration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Article(ctx, "babel-fish")
	require.NoError(t, err)

	rendered, err := f.svc.Article(ctx, "babel-fish")
	require.NoError(t, err)
	assert.Contains(t, rendered, "<strong>Babel fish</strong>")
	assert.Equal(t, 1, f.text.calls, "cache hit must not regenerate")
}

func TestArticleEmptyPathUsesSharedKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Article(ctx, "")
	require.NoError(t, err)
	assert.True(t, f.mgr.Articles.Has("404"))

	_, err = f.svc.Article(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.text.calls, "all empty paths share one entry")
}

func TestArticleProceedsJustUnderTokenCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.RecordUsage(ctx, "2024-06-01", 99999, 0))

	rendered, err := f.svc.Article(ctx, "babel-fish")
	require.NoError(t, err)
	assert.Contains(t, rendered, "Babel fish")
	assert.Equal(t, 1, f.text.calls)
	assert.True(t, f.mgr.Articles.Has("babel-fish"))
}

func TestArticleNoticeAtTokenCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.RecordUsage(ctx, "2024-06-01", 100000, 0))

	rendered, err := f.svc.Article(ctx, "babel-fish")
	require.NoError(t, err)
	assert.Equal(t, LimitExceededMessage, rendered)
	assert.Equal(t, 0, f.text.calls, "no generation call at the cap")
	assert.False(t, f.mgr.Articles.Has("babel-fish"), "notice must not be cached")
}

func TestArticleBlockedByModeration(t *testing.T) {
	f := newFixture(t)
	f.moderator.unsafe["forbidden-topic"] = true
	ctx := context.Background()

	_, err := f.svc.Article(ctx, "forbidden-topic")
	require.ErrorIs(t, err, ErrContentPolicy)
	assert.Equal(t, 0, f.text.calls)
	assert.Equal(t, 0, f.mgr.Articles.Len())
}

func TestArticleModerationRunsBeforeCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Article(ctx, "babel-fish")
	require.NoError(t, err)

	// A later policy change blocks even already-cached paths.
	f.moderator.unsafe["babel-fish"] = true
	_, err = f.svc.Article(ctx, "babel-fish")
	require.ErrorIs(t, err, ErrContentPolicy)
}

func TestArticleComposesInlineImage(t *testing.T) {
	f := newFixture(t)
	f.image.payload = "aGVhcnRvZmdvbGQ="
	f.withImage(t)
	ctx := context.Background()

	rendered, err := f.svc.Article(ctx, "babel-fish")
	require.NoError(t, err)
	assert.Contains(t, rendered, `<img src="data:image/png;base64,aGVhcnRvZmdvbGQ="`)
	assert.Contains(t, rendered, "Babel fish")

	stored, err := f.mgr.Articles.Get(ctx, "babel-fish")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, `<img src="data:image/png;base64,`))

	usage, err := f.ledger.CurrentUsage(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 1, usage.ImageGenerations)
}

func TestArticleSurvivesImageFailure(t *testing.T) {
	f := newFixture(t)
	f.image.err = errors.New("image backend unavailable")
	f.withImage(t)
	ctx := context.Background()

	rendered, err := f.svc.Article(ctx, "babel-fish")
	require.NoError(t, err)
	assert.Contains(t, rendered, "Babel fish")
	assert.NotContains(t, rendered, "<img")
	assert.True(t, f.mgr.Articles.Has("babel-fish"))

	usage, err := f.ledger.CurrentUsage(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 0, usage.ImageGenerations, "failed generation must not count")
}

func TestArticleSkipsImageAtImageCap(t *testing.T) {
	f := newFixture(t)
	f.image.payload = "aGVhcnRvZmdvbGQ="
	f.withImage(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.RecordUsage(ctx, "2024-06-01", 0, 10))

	rendered, err := f.svc.Article(ctx, "babel-fish")
	require.NoError(t, err)
	assert.NotContains(t, rendered, "<img")
	assert.Equal(t, 0, f.image.calls)
}

func TestArticleRateLimitSubstitutesNotice(t *testing.T) {
	f := newFixture(t)
	f.text.err = interfaces.ErrRateLimited
	ctx := context.Background()

	rendered, err := f.svc.Article(ctx, "babel-fish")
	require.NoError(t, err)
	assert.Contains(t, rendered, "overloaded with requests")

	usage, err := f.ledger.CurrentUsage(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 0, usage.TotalTokens, "a 429 must not update the ledger")
}

func TestArticleTextFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.text.err = errors.New("upstream exploded")
	ctx := context.Background()

	_, err := f.svc.Article(ctx, "babel-fish")
	require.Error(t, err)
	assert.Equal(t, 0, f.mgr.Articles.Len())
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "No query provided", result)
	assert.Equal(t, 0, f.text.calls)
}

func TestSearchGeneratesAndPersists(t *testing.T) {
	f := newFixture(t)
	f.text.text = "## [Towels](/guide/towel)\nA towel is about the most massively useful thing."
	ctx := context.Background()

	rendered, err := f.svc.Search(ctx, "towel")
	require.NoError(t, err)
	assert.Contains(t, rendered, "Towels")
	assert.True(t, f.mgr.Searches.Has("towel"))
	assert.Equal(t, time.Duration(0), f.mgr.Searches.LastTTL)
}

func TestSearchCacheHitSkipsModerationAndGeneration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Search(ctx, "towel")
	require.NoError(t, err)
	moderations := f.moderator.calls

	_, err = f.svc.Search(ctx, "towel")
	require.NoError(t, err)
	assert.Equal(t, 1, f.text.calls)
	assert.Equal(t, moderations, f.moderator.calls, "cached results skip moderation")
}

func TestSearchBlockedByModeration(t *testing.T) {
	f := newFixture(t)
	f.moderator.unsafe["tea"] = true
	ctx := context.Background()

	result, err := f.svc.Search(ctx, "tea")
	require.NoError(t, err)
	assert.Contains(t, result, NotSafeMessage)
	assert.Equal(t, 0, f.text.calls)
	assert.Equal(t, 0, f.mgr.Searches.Len(), "flagged queries must not be cached")
}

func TestSearchLimitNoticeNotPersisted(t *testing.T) {
	f := newFixture(t)
	f.text.err = interfaces.ErrRateLimited
	ctx := context.Background()

	rendered, err := f.svc.Search(ctx, "towel")
	require.NoError(t, err)
	assert.Contains(t, rendered, "overloaded with requests")
	assert.False(t, f.mgr.Searches.Has("towel"), "a transient notice must not shadow real results")

	// Once the upstream recovers the next request generates real results.
	f.text.err = nil
	f.text.text = "## [Towels](/guide/towel)\nMassively useful."
	_, err = f.svc.Search(ctx, "towel")
	require.NoError(t, err)
	assert.True(t, f.mgr.Searches.Has("towel"))
}

func TestLatestArticlePicksNewest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.mgr.Articles.Put(ctx, "vogon-poetry", "Vogon poetry is the third worst in the Universe.", 0))
	f.clock.now = f.clock.now.Add(time.Hour)
	require.NoError(t, f.mgr.Articles.Put(ctx, "babel-fish", "The Babel fish is small and yellow.\n\nIt feeds on brainwave energy.", 0))

	latest, err := f.svc.LatestArticle(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "babel-fish", latest.Path)
	assert.Equal(t, "The Babel fish is small and yellow.", latest.Text)
}

func TestLatestArticleEmptyStore(t *testing.T) {
	f := newFixture(t)

	latest, err := f.svc.LatestArticle(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestRandomArticlesExcludesAndCaps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, key := range []string{"babel-fish", "towel", "vogon-poetry", "pan-galactic-gargle-blaster"} {
		require.NoError(t, f.mgr.Articles.Put(ctx, key, "body", 0))
	}

	entries, err := f.svc.RandomArticles(ctx, []string{"towel"}, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, entry := range entries {
		assert.NotEqual(t, "towel", entry.Name)
	}
}

func TestFormatTopic(t *testing.T) {
	assert.Equal(t, "heart of gold", formatTopic("heart-of-gold"))
	assert.Equal(t, "ships heart of gold", formatTopic("ships/heart-of-gold"))
	assert.Equal(t, "404", formatTopic(""))
}
