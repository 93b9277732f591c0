// Package server exposes graph building, querying and feedback over
// HTTP. It is also the composition root: New wires every service from
// the loaded configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/stratal/graphite/internal/config"
	"github.com/stratal/graphite/internal/feedback"
	"github.com/stratal/graphite/internal/hybrid"
	"github.com/stratal/graphite/internal/kg"
	"github.com/stratal/graphite/internal/llm"
	"github.com/stratal/graphite/internal/nlp"
	"github.com/stratal/graphite/internal/vector"
)

type Server struct {
	KG       *kg.Service
	Hybrid   *hybrid.Coordinator
	Feedback *feedback.Store

	cfg *config.Config
	log *log.Logger
}

// New wires the parser, LLM client and all services. Only local setup
// can fail here; an unreachable graph database degrades to the
// in-memory store instead of failing the boot.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Server, error) {
	parser, err := nlp.NewProseParser(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize parser: %w", err)
	}

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}

	kgSvc := kg.New(ctx, parser, kg.Options{
		Neo4jURI:      cfg.Neo4j.URI,
		Neo4jUser:     cfg.Neo4j.User,
		Neo4jPassword: cfg.Neo4j.Password,
		SnapshotDir:   cfg.Paths.SnapshotDir,
		VizPath:       cfg.Paths.Visualization,
	}, logger)

	var retriever vector.Retriever
	if cfg.Vector.BaseURL != "" {
		retriever = vector.NewHTTPRetriever(cfg.Vector.BaseURL)
	}
	vectorSvc := vector.NewService(retriever, llmClient, cfg.Vector.TopK, logger)

	fb, err := feedback.NewStore(cfg.Paths.FeedbackDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize feedback store: %w", err)
	}

	return &Server{
		KG:       kgSvc,
		Hybrid:   hybrid.New(kgSvc, vectorSvc, llmClient, logger),
		Feedback: fb,
		cfg:      cfg,
		log:      logger,
	}, nil
}

// Close releases the graph stores.
func (s *Server) Close(ctx context.Context) error {
	return s.KG.Close(ctx)
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.POST("/build", s.Build)
	r.POST("/graph/query", s.GraphQuery)
	r.POST("/query", s.Query)
	r.POST("/feedback", s.SaveFeedback)
	r.GET("/feedback/analytics", s.FeedbackAnalytics)

	return r
}

func (s *Server) Health(c *gin.Context) {
	nodes, edges := s.KG.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"graph_connected": s.KG.Connected(),
		"nodes":           nodes,
		"edges":           edges,
	})
}

type BuildRequest struct {
	DataDir string `json:"data_dir"`
}

// Build rebuilds the knowledge graph from the configured data
// directory, or from data_dir when the request names one. The call
// blocks until extraction finishes.
func (s *Server) Build(c *gin.Context) {
	var req BuildRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	dir := req.DataDir
	if dir == "" {
		dir = s.cfg.Paths.DataDir
	}

	if !s.KG.BuildFromDirectory(c.Request.Context(), dir) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no documents found in data directory"})
		return
	}

	nodes, edges := s.KG.Stats()
	c.JSON(http.StatusOK, gin.H{"status": "success", "nodes": nodes, "edges": edges})
}

type GraphQueryRequest struct {
	Question string `json:"question"`
}

func (s *Server) GraphQuery(c *gin.Context) {
	var req GraphQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	answer, facts := s.KG.QueryGraph(c.Request.Context(), req.Question)
	c.JSON(http.StatusOK, gin.H{"answer": answer, "facts": facts})
}

type QueryRequest struct {
	Query string `json:"query"`
}

func (s *Server) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res := s.Hybrid.Query(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, res)
}

type FeedbackRequest struct {
	Query    string        `json:"query"`
	Response vector.Result `json:"response"`
	Rating   int           `json:"rating"`
	Comment  string        `json:"comment"`
}

func (s *Server) SaveFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := s.Feedback.Save(req.Query, req.Response, req.Rating, req.Comment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) FeedbackAnalytics(c *gin.Context) {
	analytics, err := s.Feedback.Analytics()
	if err != nil {
		s.log.Error("failed to load analytics", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
		return
	}
	c.JSON(http.StatusOK, analytics)
}
