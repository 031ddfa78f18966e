package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/regdesk/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server is the MCP server for regdesk.
type Server struct {
	ports  *Ports
	server *mcp.Server

	// tools and resources name what was registered, for startup logging.
	tools     []string
	resources []string
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "regdesk",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, nil),
	}

	if err := s.registerTools(); err != nil {
		return nil, err
	}
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	log := s.scoped("stdio")
	log.Info("MCP server started")
	err := s.server.Run(ctx, &mcp.StdioTransport{})
	log.Debug("MCP server stopped", "error", err)
	return err
}

// scoped returns a logger carrying the transport and what is served.
func (s *Server) scoped(transport string, attrs ...any) *logger.Scoped {
	attrs = append([]any{
		"transport", transport,
		"tools", len(s.tools),
		"resources", strings.Join(s.resources, ","),
	}, attrs...)
	return logger.With(attrs...)
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	s.scoped("http", "addr", addr).Info("MCP server listening")
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
