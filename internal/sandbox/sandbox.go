// Package sandbox serves the in-memory Posts API over HTTP for local
// development and integration tests. Routes mirror the reference backend:
// GET/POST {prefix}/posts and GET/PUT/DELETE {prefix}/posts/:id.
package sandbox

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Ratio1/postdesk/internal/middleware"
	"github.com/Ratio1/postdesk/pkg/posts"
	"github.com/Ratio1/postdesk/pkg/posts/mock"
)

// DefaultPrefix is the route prefix of the reference backend.
const DefaultPrefix = "/api"

const msgInvalidPost = "Both 'title' and 'content' are required."

// FailConfig injects failures into a fraction of requests.
type FailConfig struct {
	Rate float64
	Code int
}

// Options tune the sandbox router.
type Options struct {
	Prefix  string
	Latency time.Duration
	Fail    FailConfig
	Logger  *zap.Logger
	// Rand returns values in [0,1) for failure injection. Defaults to
	// math/rand.
	Rand func() float64
}

// NewRouter builds the gin engine serving store.
func NewRouter(store *mock.Mock, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{store: store, logger: logger}

	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.RequestLogger(logger), cors())

	group := r.Group(normalizePrefix(opts.Prefix))
	group.Use(inject(opts))
	group.GET("/posts", h.list)
	group.POST("/posts", h.create)
	group.GET("/posts/:id", h.get)
	group.PUT("/posts/:id", h.update)
	group.DELETE("/posts/:id", h.delete)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	return r
}

// ParseFailure parses "rate=<float>,code=<status>". An empty string disables
// injection; code defaults to 500.
func ParseFailure(raw string) (FailConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return FailConfig{}, nil
	}
	cfg := FailConfig{Code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keyVal := strings.SplitN(part, "=", 2)
		if len(keyVal) != 2 {
			return FailConfig{}, fmt.Errorf("sandbox: invalid fail segment %q", part)
		}
		switch strings.TrimSpace(keyVal[0]) {
		case "rate":
			val, err := strconv.ParseFloat(strings.TrimSpace(keyVal[1]), 64)
			if err != nil {
				return FailConfig{}, fmt.Errorf("sandbox: fail rate: %w", err)
			}
			if val < 0 || val > 1 {
				return FailConfig{}, fmt.Errorf("sandbox: fail rate %v outside [0,1]", val)
			}
			cfg.Rate = val
		case "code":
			val, err := strconv.Atoi(strings.TrimSpace(keyVal[1]))
			if err != nil {
				return FailConfig{}, fmt.Errorf("sandbox: fail code: %w", err)
			}
			cfg.Code = val
		default:
			return FailConfig{}, fmt.Errorf("sandbox: unknown fail key %q", keyVal[0])
		}
	}
	return cfg, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return "/"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func inject(opts Options) gin.HandlerFunc {
	roll := opts.Rand
	if roll == nil {
		roll = rand.Float64
	}
	return func(c *gin.Context) {
		if opts.Latency > 0 {
			select {
			case <-time.After(opts.Latency):
			case <-c.Request.Context().Done():
				c.AbortWithStatus(http.StatusServiceUnavailable)
				return
			}
		}
		if opts.Fail.Rate > 0 && roll() < opts.Fail.Rate {
			status := opts.Fail.Code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "failure injected"})
			return
		}
		c.Next()
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

type handler struct {
	store  *mock.Mock
	logger *zap.Logger
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Date    string `json:"date"`
}

func (r postRequest) payload() posts.Payload {
	return posts.Payload{Title: r.Title, Content: r.Content, Author: r.Author, Date: r.Date}
}

func (h *handler) list(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, 0)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handler) create(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPost})
		return
	}
	post, err := h.store.Create(c.Request.Context(), req.payload())
	if err != nil {
		h.fail(c, err, 0)
		return
	}
	h.logger.Info("post created", zap.Int("post_id", post.ID))
	c.JSON(http.StatusCreated, post)
}

func (h *handler) get(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, id)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *handler) update(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPost})
		return
	}
	post, err := h.store.Update(c.Request.Context(), id, req.payload())
	if err != nil {
		h.fail(c, err, id)
		return
	}
	h.logger.Info("post updated", zap.Int("post_id", id))
	c.JSON(http.StatusOK, post)
}

func (h *handler) delete(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, id)
		return
	}
	h.logger.Info("post deleted", zap.Int("post_id", id))
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Post with id %d has been deleted successfully.", id)})
}

// postID answers 404 for ids that are not integers, like an int route
// converter would.
func postID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Post with id %s not found.", c.Param("id"))})
		return 0, false
	}
	return id, true
}

func (h *handler) fail(c *gin.Context, err error, id int) {
	switch {
	case errors.Is(err, posts.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Post with id %d not found.", id)})
	case errors.Is(err, posts.ErrInvalidPost):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPost})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
