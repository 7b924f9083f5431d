package credential

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoToken means neither runtime config nor the environment had a token.
var ErrNoToken = errors.New("no access token configured")

// Resolver implements connection.TokenSource.
type Resolver struct {
	runtime  *Client // nil skips the runtime config step
	tokenEnv string
	logger   *slog.Logger
}

// NewResolver creates a Resolver. runtime may be nil; tokenEnv defaults to
// HA_TOKEN.
func NewResolver(runtime *Client, tokenEnv string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenEnv == "" {
		tokenEnv = DefaultTokenEnv
	}
	return &Resolver{
		runtime:  runtime,
		tokenEnv: tokenEnv,
		logger:   logger,
	}
}

// Token returns the first non-empty token in resolution order.
func (r *Resolver) Token(ctx context.Context) (string, error) {
	if r.runtime != nil {
		cfg, err := r.runtime.Fetch(ctx)
		if err != nil {
			r.logger.Warn("no runtime config available, falling back to env",
				"url", r.runtime.URL(),
				"error", err,
			)
		} else if cfg.HAToken != "" {
			return cfg.HAToken, nil
		}
	}

	if tok := envToken(r.tokenEnv); tok != "" {
		return tok, nil
	}

	return "", ErrNoToken
}

// Invalidate drops the cached runtime config so the next Token call fetches
// it again.
func (r *Resolver) Invalidate() {
	if r.runtime != nil {
		r.runtime.Reset()
	}
}
