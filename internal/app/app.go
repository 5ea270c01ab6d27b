package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/megadodo/guide/internal/common"
	"github.com/megadodo/guide/internal/handlers"
	"github.com/megadodo/guide/internal/interfaces"
	"github.com/megadodo/guide/internal/services/guide"
	"github.com/megadodo/guide/internal/services/index"
	"github.com/megadodo/guide/internal/services/ledger"
	"github.com/megadodo/guide/internal/services/llm"
	"github.com/megadodo/guide/internal/services/maintenance"
	"github.com/megadodo/guide/internal/storage/badger"
)

// App holds the initialized services and handlers.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	LedgerService  *ledger.Service
	IndexService   *index.Service
	GuideService   *guide.Service
	Maintenance    *maintenance.Service

	ArticleHandler *handlers.ArticleHandler
	SearchHandler  *handlers.SearchHandler
	IndexHandler   *handlers.IndexHandler
	StatusHandler  *handlers.StatusHandler
	APIHandler     *handlers.APIHandler
}

// New initializes storage, services, and handlers in dependency order.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	ctx := context.Background()
	clock := common.RealClock{}

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ledgerService, err := ledger.NewService(storageManager.UsageStorage(), config.Limits, clock, logger)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	indexService, err := index.NewService(storageManager, config.Limits, logger)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	textService, err := llm.NewClaudeService(&config.Claude, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize text service: %w", err)
	}

	moderator, err := llm.NewModerator(&config.Claude, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize moderation service: %w", err)
	}

	// Image generation is optional: without a Gemini key all documents
	// are text-only.
	var imageService interfaces.ImageService
	if config.Gemini.APIKey != "" {
		svc, err := llm.NewGeminiImageService(ctx, &config.Gemini, logger)
		if err != nil {
			storageManager.Close()
			return nil, fmt.Errorf("failed to initialize image service: %w", err)
		}
		imageService = svc
	} else {
		logger.Warn().Msg("No Gemini API key configured, image generation disabled")
	}

	imageTimeout, err := config.Gemini.ImageTimeoutDuration()
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	generator := guide.NewGenerator(textService, imageService, ledgerService, clock, imageTimeout, logger)
	guideService := guide.NewService(storageManager, generator, moderator, indexService, ledgerService, clock, logger)

	maintenanceService := maintenance.NewService(config.Maintenance, indexService, storageManager, logger)
	if err := maintenanceService.Start(); err != nil {
		storageManager.Close()
		return nil, err
	}

	app := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		LedgerService:  ledgerService,
		IndexService:   indexService,
		GuideService:   guideService,
		Maintenance:    maintenanceService,
		ArticleHandler: handlers.NewArticleHandler(guideService, logger),
		SearchHandler:  handlers.NewSearchHandler(guideService, logger),
		IndexHandler:   handlers.NewIndexHandler(guideService, logger),
		StatusHandler:  handlers.NewStatusHandler(ledgerService, logger),
		APIHandler:     handlers.NewAPIHandler(),
	}

	logger.Info().Msg("Application initialized")

	return app, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.Maintenance != nil {
		a.Maintenance.Stop()
	}
	if a.StorageManager != nil {
		return a.StorageManager.Close()
	}
	return nil
}
