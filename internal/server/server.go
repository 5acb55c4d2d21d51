// Package server serves a read-only airdrop status panel over HTTP.
package server

import (
	"context"
	"errors"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mrz1836/crossdrop/internal/airdrop"
	"github.com/mrz1836/crossdrop/internal/chain"
	"github.com/mrz1836/crossdrop/internal/output"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

const (
	statusKey       = "status"
	feeKey          = "gas_fee"
	shutdownTimeout = 5 * time.Second
)

// Airdrop is the subset of airdrop.Service the panel reads from.
type Airdrop interface {
	Status(ctx context.Context) (*airdrop.Status, error)
	AllowanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	EstimateFee(ctx context.Context) (*big.Int, error)
}

// CacheObserver is told about status cache hits and misses.
type CacheObserver interface {
	ObserveCache(name string, hit bool)
}

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration // 0 disables response caching
	CORSOrigins  []string      // empty allows any origin
	Gatherer     prometheus.Gatherer
	Observer     CacheObserver
	Logger       *zap.Logger

	Token    string // token symbol, echoed in allowance responses
	Decimals int
}

// Server is the status panel.
type Server struct {
	opts   Options
	drop   Airdrop
	cache  *cache.Cache
	router *gin.Engine
	logger *zap.Logger
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	*airdrop.Status

	Total        string `json:"total"`
	PerRecipient string `json:"per_recipient_formatted"`
	Count        int    `json:"recipient_count"`
}

// AllowanceResponse is the body of GET /api/v1/allowance/:owner.
type AllowanceResponse struct {
	Owner     string `json:"owner"`
	Allowance string `json:"allowance"`
	Formatted string `json:"formatted"`
	Symbol    string `json:"symbol"`
}

// FeeResponse is the body of GET /api/v1/gas-fee.
type FeeResponse struct {
	Wei    string `json:"wei"`
	Native string `json:"native"`
}

// New builds the router. Call Run to listen.
func New(drop Airdrop, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		opts:   opts,
		drop:   drop,
		logger: logger.Named("server"),
	}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	s.router = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors.New(s.corsConfig()))

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		api.GET("/status", s.status)
		api.GET("/allowance/:owner", s.allowance)
		api.GET("/gas-fee", s.gasFee)
	}
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	if len(s.opts.CORSOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.opts.CORSOrigins
	}
	return cfg
}

// Run listens on Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return droperr.WithCause(droperr.WithDetails(droperr.ErrGeneral, map[string]string{"addr": s.opts.Addr}), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status panel listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down status panel")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	if v, ok := s.cached(statusKey); ok {
		c.JSON(http.StatusOK, v)
		return
	}

	st, err := s.drop.Status(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := StatusResponse{
		Status:       st,
		Total:        st.FormatTotal(),
		PerRecipient: st.FormatPerRecipient(),
		Count:        len(st.Recipients),
	}
	s.store(statusKey, resp)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) allowance(c *gin.Context) {
	raw := c.Param("owner")
	if !common.IsHexAddress(raw) {
		s.fail(c, droperr.WithDetails(droperr.ErrInvalidAddress, map[string]string{"address": raw}))
		return
	}
	owner := common.HexToAddress(raw)

	v, err := s.drop.AllowanceOf(c.Request.Context(), owner)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, AllowanceResponse{
		Owner:     owner.Hex(),
		Allowance: v.String(),
		Formatted: chain.FormatDecimalAmount(v, s.opts.Decimals),
		Symbol:    s.opts.Token,
	})
}

func (s *Server) gasFee(c *gin.Context) {
	if v, ok := s.cached(feeKey); ok {
		c.JSON(http.StatusOK, v)
		return
	}

	fee, err := s.drop.EstimateFee(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := FeeResponse{Wei: fee.String(), Native: chain.FormatDecimalAmount(fee, 18)}
	s.store(feeKey, resp)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) cached(key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(key)
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveCache("panel_"+key, ok)
	}
	return v, ok
}

func (s *Server) store(key string, v any) {
	if s.cache != nil {
		s.cache.SetDefault(key, v)
	}
}

// fail writes err in the CLI's JSON error shape with a matching status code.
func (s *Server) fail(c *gin.Context, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(code, output.ErrorOutput{Error: output.NewErrorDetail(err)})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, chain.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, chain.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	switch droperr.ExitCode(err) {
	case droperr.ExitInput:
		return http.StatusBadRequest
	case droperr.ExitNotFound:
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
