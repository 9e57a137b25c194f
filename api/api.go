package api

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/scout/api/mcp"
	"github.com/papercomputeco/scout/pkg/topic"
)

// Server is the API server for checking and committing topics.
type Server struct {
	config Config
	cycle  *topic.Cycle
	logger *slog.Logger
	app    *fiber.App

	// mu serializes everything that writes the journal or the store, across
	// REST and MCP callers.
	mu sync.Mutex
}

// NewServer creates a new API server around a discovery cycle. The cycle is
// injected so the caller can keep adjusting its threshold.
func NewServer(config Config, cycle *topic.Cycle, logger *slog.Logger) (*Server, error) {
	if cycle == nil {
		return nil, errors.New("topic cycle is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		cycle:  cycle,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/topics", s.handleListTopics)
	app.Get("/v1/topics/count", s.handleCountTopics)
	app.Post("/v1/topics", s.handleCommitTopic)
	app.Post("/v1/novelty/check", s.handleCheckNovelty)
	app.Post("/v1/cycles", s.handleRunCycle)

	if !config.DisableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Cycle:  cycle,
			Lock:   &s.mu,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating MCP server: %w", err)
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", !s.config.DisableMCP,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
