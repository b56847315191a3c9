// Package api exposes the battle engine over HTTP with gin. Battles live in
// an in-memory Registry and stream snapshots over websockets.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battlesim/internal/config"
	"github.com/cory-johannsen/battlesim/internal/game/battle"
	"github.com/cory-johannsen/battlesim/internal/game/catalog"
	"github.com/cory-johannsen/battlesim/internal/game/dice"
	"github.com/cory-johannsen/battlesim/internal/game/team"
	"github.com/cory-johannsen/battlesim/internal/observability"
)

// Choosers resolves the opponent's move policy for a difficulty.
type Choosers interface {
	Chooser(d battle.Difficulty) battle.MoveChooser
}

// Server holds the dependencies of every API route.
type Server struct {
	catalog         catalog.Catalog
	choosers        Choosers
	rosters         rosterBuilder
	registry        *Registry
	suggestionLimit int
	newSource       func() dice.Source
	tracer          trace.Tracer
	logger          *zap.Logger
}

// Option customises a Server.
type Option func(*Server)

// WithSourceFactory sets how each battle obtains its random source.
func WithSourceFactory(f func() dice.Source) Option {
	return func(s *Server) { s.newSource = f }
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// NewServer creates an API server with an empty battle registry.
//
// Precondition: cat, choosers, and logger must be non-nil.
func NewServer(cat catalog.Catalog, choosers Choosers, cfg config.BattleConfig, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		catalog:  cat,
		choosers: choosers,
		rosters: rosterBuilder{
			cat: cat,
			limits: team.Limits{
				MaxMembers:   cfg.MaxRoster,
				MaxMoves:     cfg.MaxMoves,
				DefaultLevel: cfg.DefaultLevel,
			},
			defaultLevel: cfg.DefaultLevel,
		},
		registry:        NewRegistry(),
		suggestionLimit: cfg.SuggestionLimit,
		newSource:       dice.NewCryptoSource,
		tracer:          observability.Tracer("api"),
		logger:          logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the live battle registry.
func (s *Server) Registry() *Registry { return s.registry }

// Router builds the gin engine serving every route.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "battles": s.registry.Len()})
	})

	api := r.Group("/api")
	{
		api.GET("/species", s.searchSpecies)
		api.GET("/species/:key", s.getSpecies)
		api.POST("/preview", s.preview)

		battles := api.Group("/battles")
		{
			battles.POST("", s.createBattle)
			battles.GET("/:id", s.getBattle)
			battles.POST("/:id/intents", s.submitIntent)
			battles.DELETE("/:id", s.deleteBattle)
			battles.GET("/:id/stream", s.streamBattle)
		}
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

func (s *Server) searchSpecies(c *gin.Context) {
	names, err := s.catalog.Names(c.Request.Context())
	if err != nil {
		s.fail(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": catalog.Suggest(names, c.Query("q"), s.suggestionLimit)})
}

func (s *Server) getSpecies(c *gin.Context) {
	sp, err := s.catalog.Species(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.fail(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

func (s *Server) preview(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "api.preview")
	defer span.End()

	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, span, errors.Join(ErrBadRequest, err))
		return
	}
	span.SetAttributes(attribute.String("species", req.Species), attribute.String("move", req.Move))
	resp, err := s.rosters.preview(ctx, req)
	if err != nil {
		s.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createBattle(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "api.createBattle")
	defer span.End()

	var req CreateBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, span, errors.Join(ErrBadRequest, err))
		return
	}
	difficulty, err := battle.ParseDifficulty(req.Difficulty)
	if err != nil {
		s.fail(c, span, errors.Join(ErrBadRequest, err))
		return
	}
	player, err := s.rosters.build(ctx, battle.SidePlayer, req.Player, difficulty)
	if err != nil {
		s.fail(c, span, err)
		return
	}
	opponent, err := s.rosters.build(ctx, battle.SideOpponent, req.Opponent, difficulty)
	if err != nil {
		s.fail(c, span, err)
		return
	}

	b, err := battle.New(player, opponent,
		battle.WithChooser(s.choosers.Chooser(difficulty)),
		battle.WithSource(s.newSource()),
		battle.WithLogger(s.logger),
		battle.WithTracer(s.tracer),
		battle.WithDifficulty(difficulty),
	)
	if err != nil {
		s.fail(c, span, err)
		return
	}
	e := s.registry.Add(b)
	span.SetAttributes(attribute.String("battle_id", e.ID().String()), attribute.String("difficulty", string(difficulty)))
	s.logger.Info("battle created",
		zap.String("battle_id", e.ID().String()),
		zap.String("difficulty", string(difficulty)),
	)
	c.JSON(http.StatusCreated, e.Snapshot())
}

func (s *Server) getBattle(c *gin.Context) {
	e, err := s.entry(c)
	if err != nil {
		s.fail(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, e.Snapshot())
}

func (s *Server) submitIntent(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "api.submitIntent")
	defer span.End()

	e, err := s.entry(c)
	if err != nil {
		s.fail(c, span, err)
		return
	}
	span.SetAttributes(attribute.String("battle_id", e.ID().String()))

	var req IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, span, errors.Join(ErrBadRequest, err))
		return
	}
	in, err := req.Intent()
	if err != nil {
		s.fail(c, span, err)
		return
	}
	events, snap, err := e.Submit(ctx, in)
	if err != nil {
		s.fail(c, span, err)
		return
	}
	if events == nil {
		events = []battle.Event{}
	}
	c.JSON(http.StatusOK, IntentResponse{Events: events, Snapshot: snap})
}

func (s *Server) deleteBattle(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.fail(c, nil, err)
		return
	}
	if err := s.registry.Remove(id); err != nil {
		s.fail(c, nil, err)
		return
	}
	s.logger.Info("battle removed", zap.String("battle_id", id.String()))
	c.Status(http.StatusNoContent)
}

func (s *Server) entry(c *gin.Context) (*Entry, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	return s.registry.Get(id)
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// A malformed ID can never name a battle.
		return uuid.Nil, errors.Join(ErrBattleNotFound, err)
	}
	return id, nil
}

// fail writes the error response for err and records it on span when set.
func (s *Server) fail(c *gin.Context, span trace.Span, err error) {
	status := StatusFor(err)
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message(err)})
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrBattleNotFound):
		return http.StatusNotFound
	case errors.Is(err, battle.ErrBattleConcluded):
		return http.StatusConflict
	case errors.Is(err, battle.ErrUnknownMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, battle.ErrInvalidRoster),
		errors.Is(err, battle.ErrInvalidIntent),
		errors.Is(err, battle.ErrEmptyRoster),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrSpeciesNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// message flattens joined errors onto one line and drops the bare
// ErrBadRequest marker.
func message(err error) string {
	lines := strings.Split(err.Error(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l != ErrBadRequest.Error() {
			out = append(out, l)
		}
	}
	return strings.Join(out, "; ")
}
