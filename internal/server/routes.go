package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Content
	mux.HandleFunc("/api/article/", s.app.ArticleHandler.GetArticleHandler)
	mux.HandleFunc("/api/search", s.app.SearchHandler.SearchHandler)

	// API routes - Article discovery (index-cache backed)
	mux.HandleFunc("/api/articles/latest", s.app.IndexHandler.LatestArticleHandler)
	mux.HandleFunc("/api/articles/random", s.app.IndexHandler.RandomArticlesHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
