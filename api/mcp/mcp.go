// Package mcp provides an MCP (Model Context Protocol) server exposing the
// scout topic memory as tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/scout/pkg/topic"
	"github.com/papercomputeco/scout/pkg/utils"
)

type Config struct {
	// Cycle commits topics and owns the novelty checker and threshold
	Cycle *topic.Cycle

	// Lock serializes commits with other surfaces sharing the cycle.
	// Optional; a private mutex is used when nil.
	Lock sync.Locker

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the topic memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "scout",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Cycle == nil {
		return nil, errors.New("topic cycle is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if s.config.Lock == nil {
		s.config.Lock = &sync.Mutex{}
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        checkNoveltyToolName,
		Description: checkNoveltyDescription,
	}, s.handleCheckNovelty)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listTopicsToolName,
		Description: listTopicsDescription,
	}, s.handleListTopics)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        commitTopicToolName,
		Description: commitTopicDescription,
	}, s.handleCommitTopic)

	s.mcpServer = mcpServer

	// stateless streamable HTTP handler
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
