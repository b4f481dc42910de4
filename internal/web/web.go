// Package web serves the post client page to a browser. The page is a single
// form; every button posts all fields to an action route, the action runs on
// the ui.Controller, and the browser is redirected back to the page.
package web

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Ratio1/postdesk/internal/middleware"
	"github.com/Ratio1/postdesk/internal/server"
	"github.com/Ratio1/postdesk/internal/ui"
)

// Options configure a Server.
type Options struct {
	Logger *zap.Logger
	// Gatherer backs GET /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
}

// Server is the browser front end.
type Server struct {
	// actionMu makes binding the submitted fields and running the action
	// one step, so concurrent submissions cannot mix their fields.
	actionMu sync.Mutex
	ctrl     *ui.Controller
	logger   *zap.Logger
	engine   *gin.Engine
}

// New builds the routes for ctrl.
func New(ctrl *ui.Controller, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{ctrl: ctrl, logger: logger}

	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.RequestLogger(logger))

	page := r.Group("/", middleware.NoCache())
	page.GET("/", s.page)
	page.POST("/load", s.action(func(ctx context.Context, _ *gin.Context) {
		s.ctrl.LoadPosts(ctx)
	}))
	page.POST("/posts", s.action(func(ctx context.Context, _ *gin.Context) {
		s.ctrl.AddPost(ctx)
	}))
	page.POST("/posts/:id/delete", s.withID(s.ctrl.DeletePost))
	page.POST("/posts/:id/edit", s.withID(s.ctrl.EditPost))
	page.POST("/update", s.action(func(ctx context.Context, _ *gin.Context) {
		s.ctrl.UpdatePost(ctx)
	}))
	page.POST("/cancel", s.action(func(context.Context, *gin.Context) {
		s.ctrl.CancelEdit()
	}))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	s.engine = r
	return s
}

// Handler exposes the routes, mostly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("web: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve initialises the controller once, then serves on ln until ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.ctrl.Initialize(ctx)
	return server.Serve(ctx, server.New(s.engine), ln, s.logger)
}

func (s *Server) page(c *gin.Context) {
	var buf bytes.Buffer
	if err := ui.Render(&buf, s.ctrl.Snapshot()); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// action copies the submitted fields into the controller, runs fn and sends
// the browser back to the page.
func (s *Server) action(fn func(ctx context.Context, c *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.actionMu.Lock()
		defer s.actionMu.Unlock()

		if err := s.bindFields(c); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		fn(c.Request.Context(), c)
		if c.IsAborted() {
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func (s *Server) withID(op func(ctx context.Context, id int)) gin.HandlerFunc {
	return s.action(func(ctx context.Context, c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
			return
		}
		op(ctx, id)
	})
}

func (s *Server) bindFields(c *gin.Context) error {
	if err := c.Request.ParseForm(); err != nil {
		return fmt.Errorf("web: parse form: %w", err)
	}
	for _, name := range ui.Fields {
		values, ok := c.Request.PostForm[name]
		if !ok || len(values) == 0 {
			continue
		}
		if err := s.ctrl.SetField(name, values[0]); err != nil {
			return err
		}
	}
	return nil
}
