package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Headers copied into every recorded request
var recordedHeaders = []string{"Authorization", "Session", "X-Request-Id"}

// Request is one query request received by the server
type Request struct {
	Root      string            `json:"root"`
	Operation string            `json:"operation"`
	Object    bool              `json:"object"`
	Body      json.RawMessage   `json:"body"`
	Headers   map[string]string `json:"headers"`
	Received  time.Time         `json:"received"`
}

type stub struct {
	status int
	body   interface{}
}

// Server is a local stand-in for the database API. It records every query
// request and answers with stubbed responses.
type Server struct {
	mu       sync.RWMutex
	requests []Request
	stubs    map[string]stub
	router   *gin.Engine
	log      *slog.Logger
}

// New creates a server
func New(log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		stubs:  make(map[string]stub),
		router: router,
		log:    log,
	}
	router.Use(s.logRequests())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/_requests", s.listRequests)
	router.DELETE("/_requests", s.clearRequests)
	// Query endpoints have a variable first segment: /{root}/db/[object/]{operation}
	router.NoRoute(s.handleQuery)

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stub sets the response for an operation. Object operations are keyed
// "object.<operation>", e.g. "object.get".
func (s *Server) Stub(operation string, status int, body interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs[operation] = stub{status: status, body: body}
}

// Requests returns a copy of the recorded requests
func (s *Server) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Reset forgets recorded requests and stubs
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.stubs = make(map[string]stub)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dev backend listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down dev backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// parseQueryPath splits /{root}/db/{operation} and /{root}/db/object/{operation}
func parseQueryPath(path string) (root, operation string, object, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 3 && parts[1] == "db" && parts[2] != "object":
		return parts[0], parts[2], false, parts[0] != "" && parts[2] != ""
	case len(parts) == 4 && parts[1] == "db" && parts[2] == "object":
		return parts[0], parts[3], true, parts[0] != "" && parts[3] != ""
	}
	return "", "", false, false
}

func (s *Server) handleQuery(c *gin.Context) {
	root, path, object, ok := parseQueryPath(c.Request.URL.Path)
	if !ok {
		c.JSON(http.StatusNotFound, errorBody("not_found", "unknown endpoint"))
		return
	}
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, errorBody("method_not_allowed", "query endpoints accept POST only"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request_body", "request body must be JSON"))
		return
	}

	req := Request{
		Root:      root,
		Operation: path,
		Object:    object,
		Body:      body,
		Headers:   make(map[string]string),
		Received:  time.Now(),
	}
	for _, h := range recordedHeaders {
		if v := c.GetHeader(h); v != "" {
			req.Headers[h] = v
		}
	}

	key := path
	if object {
		key = "object." + path
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	st, ok := s.stubs[key]
	s.mu.Unlock()

	if ok {
		if st.body == nil {
			c.Status(st.status)
			return
		}
		c.JSON(st.status, st.body)
		return
	}

	var envelope struct {
		Model string `json:"model"`
	}
	_ = json.Unmarshal(body, &envelope)
	c.JSON(http.StatusOK, gin.H{"operation": path, "model": envelope.Model})
}

func (s *Server) listRequests(c *gin.Context) {
	c.JSON(http.StatusOK, s.Requests())
}

func (s *Server) clearRequests(c *gin.Context) {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func errorBody(code, message string) gin.H {
	return gin.H{"errors": []gin.H{{
		"origin":  "server_error",
		"code":    code,
		"message": message,
	}}}
}
