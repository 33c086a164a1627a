// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server hosts plugins over HTTP so the parent framework, or any
// client, can invoke them by name.
package server

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/wsf-plugins/internal/wsf"
	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// Result is the body of a successful invocation.
type Result struct {
	Signal  int        `json:"signal"`
	Message string     `json:"message"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// PluginInfo describes a hosted plugin.
type PluginInfo struct {
	Name               string   `json:"name"`
	RequiredParameters []string `json:"requiredParameters"`

	// Columns is omitted for plugins whose columns depend on the request.
	Columns []string `json:"columns,omitempty"`
}

// Server routes invocations to plugins.
type Server struct {
	plugins map[string]wsf.Plugin
	limiter *rate.Limiter
	log     *logrus.Entry
}

// New returns a server hosting plugins. A positive cfg.RateLimitRPS limits
// invocations across all clients.
func New(plugins []wsf.Plugin, cfg types.ServerConfig, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{plugins: make(map[string]wsf.Plugin, len(plugins)), log: log}
	for _, p := range plugins {
		s.plugins[p.Name()] = p
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	return s
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(s.loggingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/plugins", s.listPlugins)
	r.POST("/plugins/:name", s.rateLimit(), s.invoke)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "path": c.Request.URL.Path})
	})
	return r
}

func (s *Server) listPlugins(c *gin.Context) {
	infos := make([]PluginInfo, 0, len(s.plugins))
	for name, p := range s.plugins {
		info := PluginInfo{Name: name, RequiredParameters: p.RequiredParameterNames()}
		if cols, err := p.Columns(wsf.Request{}); err == nil {
			info.Columns = cols
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	c.JSON(http.StatusOK, infos)
}

func (s *Server) invoke(c *gin.Context) {
	name := c.Param("name")
	p, ok := s.plugins[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no plugin named %q", name)})
		return
	}

	var req wsf.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Params == nil {
		req.Params = map[string]string{}
	}

	var buf wsf.RowBuffer
	signal, err := wsf.Invoke(c.Request.Context(), p, req, &buf)
	if err != nil {
		status := StatusFor(err)
		entry := s.log.WithFields(logrus.Fields{"plugin": name, "status": status}).WithError(err)
		if status == http.StatusInternalServerError {
			entry.Error("plugin invocation failed")
		} else {
			entry.Info("plugin invocation did not complete")
		}
		if status == http.StatusAccepted {
			c.JSON(status, gin.H{"status": "delayed", "message": err.Error()})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	columns := req.OrderedColumns
	if len(columns) == 0 {
		columns, _ = p.Columns(req)
	}
	rows := buf.Rows
	if rows == nil {
		rows = [][]string{}
	}
	c.JSON(http.StatusOK, Result{Signal: signal, Message: buf.Message, Columns: columns, Rows: rows})
}

// StatusFor maps a plugin error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case wsf.IsDelayed(err):
		return http.StatusAccepted
	case wsf.IsResultTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case wsf.IsUserError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = fmt.Sprintf("%d", time.Now().UnixNano())
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
		}).Info("HTTP request")
	}
}
