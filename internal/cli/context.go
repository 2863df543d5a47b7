package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/safecheck/internal/chain"
	"github.com/mrz1836/safecheck/internal/chain/gateway"
	"github.com/mrz1836/safecheck/internal/config"
	"github.com/mrz1836/safecheck/internal/metrics"
	"github.com/mrz1836/safecheck/internal/output"
	"github.com/mrz1836/safecheck/internal/service/check"
	"github.com/mrz1836/safecheck/internal/tokenstore"
)

// cmdContextKey keys the CommandContext in a cobra command's context.
type cmdContextKey struct{}

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg        *config.Config
	Log        *config.Logger
	Fmt        *output.Formatter
	Tokens     tokenstore.Store
	Metrics    *metrics.Metrics
	HTTPClient *http.Client
	Limiter    *chain.RateLimiter
	Registry   check.ChainRegistry
}

// NewCommandContext creates a context with the given dependencies. The
// token store is opened on first use.
func NewCommandContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
) *CommandContext {
	m := metrics.Global
	return &CommandContext{
		Cfg:        cfg,
		Log:        logger,
		Fmt:        formatter,
		Metrics:    m,
		HTTPClient: chain.NewHTTPClient(cfg.HTTPTimeout()),
		Limiter:    chain.NewRateLimiter(cfg.HTTP.RatePerSecond, cfg.HTTP.Burst).WithMetrics(m),
	}
}

// WithTokenStore sets the token store.
func (c *CommandContext) WithTokenStore(s tokenstore.Store) *CommandContext {
	c.Tokens = s
	return c
}

// WithRegistry sets the chain registry used by checks.
func (c *CommandContext) WithRegistry(r check.ChainRegistry) *CommandContext {
	c.Registry = r
	return c
}

// WithMetrics sets the metrics sink shared by checks and the rate limiter.
func (c *CommandContext) WithMetrics(m *metrics.Metrics) *CommandContext {
	c.Metrics = m
	if c.Limiter != nil {
		c.Limiter.WithMetrics(m)
	}
	return c
}

// TokenStore returns the configured token store, opening it if needed.
func (c *CommandContext) TokenStore() (tokenstore.Store, error) {
	if c.Tokens != nil {
		return c.Tokens, nil
	}

	path, err := config.ExpandHome(c.Cfg.TokenFile())
	if err != nil {
		return nil, err
	}
	s, err := tokenstore.Open(c.Cfg.Token.Backend, path)
	if err != nil {
		return nil, err
	}
	c.Tokens = s
	return s, nil
}

// ResolveToken picks the auth token: an explicit value first, then the
// environment, then the token store.
func (c *CommandContext) ResolveToken(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if c.Cfg.AuthToken != "" {
		return c.Cfg.AuthToken, nil
	}

	s, err := c.TokenStore()
	if err != nil {
		return "", err
	}
	return tokenstore.LoadToken(s)
}

// NewRunner builds a check runner wired to this context's services.
func (c *CommandContext) NewRunner(ctx context.Context, token string) (*check.Runner, error) {
	registry := c.Registry
	if registry == nil {
		registry = gateway.NewClient(&gateway.ClientOptions{
			BaseURL:     c.Cfg.Services.ClientGateway,
			HTTPClient:  c.HTTPClient,
			RateLimiter: c.Limiter,
		})
	}

	return check.New(ctx, &check.Config{
		Registry:  registry,
		Indexers:  check.DefaultIndexers(c.HTTPClient, c.Limiter),
		Dial:      check.DefaultDialer(c.HTTPClient, c.Limiter),
		AuthToken: token,
		Logger:    c.Log,
		Metrics:   c.Metrics,
	})
}

// baseContext returns the command's context, or Background before cobra
// has set one.
func baseContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// SetCmdContext stores cc in the command's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	cmd.SetContext(context.WithValue(baseContext(cmd), cmdContextKey{}, cc))
}

// contextWithTimeout derives the context a check runs under. A zero or
// negative d means no deadline; the parent can still cancel.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(baseContext(cmd), d)
	}
	return context.WithCancel(baseContext(cmd))
}

// GetCmdContext returns the CommandContext for cmd, falling back to the
// global one.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if ctx := cmd.Context(); ctx != nil {
		if cc, ok := ctx.Value(cmdContextKey{}).(*CommandContext); ok {
			return cc
		}
	}
	return cmdCtx
}
