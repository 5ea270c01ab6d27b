// Package guide implements the read-through content cache over the
// article and search namespaces: a cached document is returned
// verbatim; a miss runs the generation pipeline, persists the markdown
// source permanently, and returns the rendered result.
package guide

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/interfaces"
	"github.com/megadodo/guide/internal/models"
	"github.com/megadodo/guide/internal/services/index"
	"github.com/megadodo/guide/internal/services/ledger"
)

// ErrContentPolicy marks input flagged by moderation. Article requests
// surface it as a failure; nothing is generated or cached.
var ErrContentPolicy = errors.New(NotSafeMessage)

var topicSeparators = strings.NewReplacer("/", " ", "-", " ")

var firstParagraphRe = regexp.MustCompile(`(?s)<p>(.*?)</p>`)

// Service resolves article paths and search queries to rendered documents.
type Service struct {
	articles  interfaces.Namespace
	searches  interfaces.Namespace
	gen       *Generator
	moderator interfaces.ModerationService
	idx       *index.Service
	ledger    *ledger.Service
	renderer  *Renderer
	clock     common.Clock
	logger    arbor.ILogger
}

// NewService wires the content cache over its collaborators.
func NewService(
	storage interfaces.StorageManager,
	gen *Generator,
	moderator interfaces.ModerationService,
	idx *index.Service,
	ledgerSvc *ledger.Service,
	clock common.Clock,
	logger arbor.ILogger,
) *Service {
	return &Service{
		articles:  storage.ArticleStorage(),
		searches:  storage.SearchStorage(),
		gen:       gen,
		moderator: moderator,
		idx:       idx,
		ledger:    ledgerSvc,
		renderer:  NewRenderer(),
		clock:     clock,
		logger:    logger,
	}
}

// articleKey normalizes an empty path to the shared "404" entry.
func articleKey(path string) string {
	if strings.TrimSpace(path) == "" {
		return "404"
	}
	return path
}

// formatTopic turns a URL path into a human-readable topic.
func formatTopic(path string) string {
	topic := strings.TrimSpace(topicSeparators.Replace(path))
	if topic == "" {
		return "404"
	}
	return topic
}

// Article returns the rendered Guide entry for a URL path.
//
// Moderation runs on the raw path before anything else. A cache hit is
// rendered and returned with no usage check and no regeneration. On a
// miss, a spent daily token budget yields the fixed limit notice
// (uncached, not an error); otherwise the pipeline produces a body,
// optionally prefixed with an inline image, which is persisted
// permanently under the path and returned rendered.
func (s *Service) Article(ctx context.Context, path string) (string, error) {
	safe, err := s.moderator.IsSafe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("moderation check failed: %w", err)
	}
	if !safe {
		s.logger.Warn().Str("path", path).Msg("Article path flagged by moderation")
		return "", ErrContentPolicy
	}

	key := articleKey(path)
	topic := formatTopic(path)

	cached, err := s.articles.Get(ctx, key)
	if err == nil {
		s.logger.Debug().Str("key", key).Msg("Article cache hit")
		return s.renderer.Render(cached)
	}
	if !errors.Is(err, interfaces.ErrKeyNotFound) {
		return "", fmt.Errorf("article lookup failed: %w", err)
	}

	today := common.DateKey(s.clock.Now())
	exceeded, err := s.ledger.ExceededTokenLimit(ctx, today)
	if err != nil {
		return "", err
	}
	if exceeded {
		s.logger.Info().Str("date", today).Msg("Daily token limit reached, returning notice")
		return LimitExceededMessage, nil
	}

	body, err := s.gen.ArticleBody(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("article generation failed: %w", err)
	}

	entry := body
	if image := s.gen.ArticleImage(ctx, topic, body); image != "" {
		entry = fmt.Sprintf("<img src=\"data:image/png;base64,%s\" alt=\"%s\" width=\"200\" height=\"200\" />\n\n%s", image, topic, body)
	}

	if err := s.articles.Put(ctx, key, entry, 0); err != nil {
		return "", fmt.Errorf("failed to persist article: %w", err)
	}

	s.logger.Info().Str("key", key).Int("length", len(entry)).Msg("Article generated and cached")

	return s.renderer.Render(entry)
}

// Search returns rendered search results for a query. The cache is
// consulted before moderation; flagged queries yield the blocked
// notice as content, not an error. Bodies carrying the limit-exceeded
// phrase are returned but never persisted, so a transient notice can
// not shadow real results forever.
func (s *Service) Search(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "No query provided", nil
	}

	cached, err := s.searches.Get(ctx, query)
	if err == nil {
		s.logger.Debug().Str("query", query).Msg("Search cache hit")
		return s.renderer.Render(cached)
	}
	if !errors.Is(err, interfaces.ErrKeyNotFound) {
		return "", fmt.Errorf("search lookup failed: %w", err)
	}

	safe, err := s.moderator.IsSafe(ctx, query)
	if err != nil {
		return "", fmt.Errorf("moderation check failed: %w", err)
	}
	if !safe {
		s.logger.Warn().Str("query", query).Msg("Search query flagged by moderation")
		return NotSafeMessage, nil
	}

	content, err := s.gen.SearchBody(ctx, query)
	if err != nil {
		return "", fmt.Errorf("search generation failed: %w", err)
	}

	if !strings.Contains(content, limitExceededMarker) {
		if err := s.searches.Put(ctx, query, content, 0); err != nil {
			return "", fmt.Errorf("failed to persist search results: %w", err)
		}
		s.logger.Info().Str("query", query).Msg("Search results generated and cached")
	}

	return s.renderer.Render(content)
}

// LatestArticle returns the newest article by uploaded metadata, with
// its first rendered paragraph. Returns nil when no articles exist.
func (s *Service) LatestArticle(ctx context.Context) (*models.LatestArticle, error) {
	entries, err := s.articles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return uploadedAt(entries[i]) > uploadedAt(entries[j])
	})
	latest := entries[0]

	body, err := s.articles.Get(ctx, latest.Name)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest article: %w", err)
	}

	rendered, err := s.renderer.Render(body)
	if err != nil {
		return nil, err
	}

	text := ""
	if match := firstParagraphRe.FindStringSubmatch(rendered); match != nil {
		text = match[1]
	}

	return &models.LatestArticle{
		Path: latest.Name,
		Text: text,
	}, nil
}

// RandomArticles returns up to count random entries from the article
// index, excluding the named keys. The index view may be stale by up
// to its TTL.
func (s *Service) RandomArticles(ctx context.Context, excluded []string, count int) ([]models.IndexEntry, error) {
	if count < 1 {
		count = 1
	}

	entries, err := s.idx.GetIndex(ctx, "articles")
	if err != nil {
		return nil, err
	}

	excludeSet := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		excludeSet[name] = struct{}{}
	}

	filtered := make([]models.IndexEntry, 0, len(entries))
	for _, entry := range entries {
		if _, skip := excludeSet[entry.Name]; skip {
			continue
		}
		filtered = append(filtered, entry)
	}

	rand.Shuffle(len(filtered), func(i, j int) {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	})

	if len(filtered) > count {
		filtered = filtered[:count]
	}

	return filtered, nil
}

func uploadedAt(entry models.IndexEntry) int64 {
	if entry.Metadata == nil {
		return 0
	}
	return entry.Metadata.Uploaded
}
