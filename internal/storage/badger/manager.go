package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/interfaces"
)

// Namespace names. The indices namespace caches serialized listings of
// the two content namespaces; usage holds per-day ledger records.
const (
	NamespaceArticles = "articles"
	NamespaceSearches = "searches"
	NamespaceUsage    = "usage"
	NamespaceIndices  = "indices"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	articles interfaces.Namespace
	searches interfaces.Namespace
	usage    interfaces.Namespace
	indices  interfaces.Namespace
	logger   arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig, clock common.Clock) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:       db,
		articles: NewKVNamespace(db, NamespaceArticles, clock, logger),
		searches: NewKVNamespace(db, NamespaceSearches, clock, logger),
		usage:    NewKVNamespace(db, NamespaceUsage, clock, logger),
		indices:  NewKVNamespace(db, NamespaceIndices, clock, logger),
		logger:   logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ArticleStorage returns the article content namespace
func (m *Manager) ArticleStorage() interfaces.Namespace {
	return m.articles
}

// SearchStorage returns the search result content namespace
func (m *Manager) SearchStorage() interfaces.Namespace {
	return m.searches
}

// UsageStorage returns the daily usage ledger namespace
func (m *Manager) UsageStorage() interfaces.Namespace {
	return m.usage
}

// IndexStorage returns the cached index namespace
func (m *Manager) IndexStorage() interfaces.Namespace {
	return m.indices
}

// ContentNamespace resolves an index key to its content namespace.
// Unknown keys resolve to nil; callers treat that as an unavailable
// namespace and return empty listings.
func (m *Manager) ContentNamespace(indexKey string) interfaces.Namespace {
	switch indexKey {
	case NamespaceArticles:
		return m.articles
	case NamespaceSearches:
		return m.searches
	default:
		return nil
	}
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
