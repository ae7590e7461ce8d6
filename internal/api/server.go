package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"wyckoff-trading-bot/internal/database"
	"wyckoff-trading-bot/internal/events"
	"wyckoff-trading-bot/internal/scanner"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	AllowedOrigins  string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ProductionMode  bool
}

// Server represents the HTTP API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	repo       *database.Repository // nil when the database is disabled
	scanner    *scanner.Scanner
	eventBus   *events.EventBus
	wsHub      *WSHub
	config     ServerConfig
}

// NewServer creates a new API server
func NewServer(
	config ServerConfig,
	repo *database.Repository,
	sc *scanner.Scanner,
	eventBus *events.EventBus,
) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if config.AllowedOrigins == "" || config.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(config.AllowedOrigins, ",")
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:   router,
		repo:     repo,
		scanner:  sc,
		eventBus: eventBus,
		wsHub:    InitWebSocket(eventBus),
		config:   config,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/analysis/:symbol", s.handleGetAnalysis)
		v1.GET("/phases", s.handleGetPhases)
		v1.GET("/signals", s.handleGetSignals)
		v1.POST("/scan", s.handleTriggerScan)
	}
}

// Start runs the HTTP server. Blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	log.Info().Str("addr", addr).Msg("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": s.wsHub.GetClientCount(),
		"timestamp":  time.Now().UTC(),
	})
}

// handleGetAnalysis returns the latest phase result for a symbol.
func (s *Server) handleGetAnalysis(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	result, ok := s.scanner.LastResult(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no analysis available for %s", symbol)})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleGetPhases returns the latest phase result per scanned symbol.
func (s *Server) handleGetPhases(c *gin.Context) {
	c.JSON(http.StatusOK, s.scanner.LastResults())
}

// handleGetSignals returns persisted signals, optionally filtered by symbol.
func (s *Server) handleGetSignals(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal storage is disabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	symbol := strings.ToUpper(c.Query("symbol"))
	if symbol != "" {
		sigs, err := s.repo.GetSignalsBySymbol(c.Request.Context(), symbol, limit)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("failed to fetch signals")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch signals"})
			return
		}
		c.JSON(http.StatusOK, sigs)
		return
	}

	sigs, err := s.repo.GetRecentSignals(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch signals")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch signals"})
		return
	}
	c.JSON(http.StatusOK, sigs)
}

// handleTriggerScan kicks off an immediate scan cycle.
func (s *Server) handleTriggerScan(c *gin.Context) {
	go s.scanner.Scan()
	c.JSON(http.StatusAccepted, gin.H{"status": "scan triggered"})
}
