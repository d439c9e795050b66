package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	errs "github.com/daofeed/daofeed-backend/internal/pkg/errors"
	"github.com/daofeed/daofeed-backend/internal/platform/envutil"
	"github.com/daofeed/daofeed-backend/internal/platform/logger"
)

const (
	// DefaultEndpoint is the public Snapshot hub GraphQL endpoint.
	DefaultEndpoint = "https://hub.snapshot.org/graphql"

	// BatchSize is the fixed page size for list queries.
	BatchSize = 1000

	maxErrorBodyBytes = 1024
)

type Config struct {
	Endpoint    string
	MaxAttempts int
	RetryBase   time.Duration
	Timeout     time.Duration
}

func LoadConfig() Config {
	return Config{
		Endpoint:    envutil.String("SNAPSHOT_HUB_URL", DefaultEndpoint),
		MaxAttempts: envutil.Int("SNAPSHOT_MAX_RETRIES", 3),
		RetryBase:   envutil.DurationMillis("SNAPSHOT_RETRY_BASE_MS", 2000),
		Timeout:     envutil.DurationSeconds("SNAPSHOT_HTTP_TIMEOUT_SECONDS", 30),
	}
}

// Client issues GraphQL queries against the Snapshot hub. A query that
// exhausts its retries fails with errs.ErrFetchFailed; callers must treat
// that as "no progress", never as an empty result set.
type Client interface {
	Query(ctx context.Context, query string, variables map[string]any, out any) error
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func NewClient(log *logger.Logger, cfg Config) Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &client{
		log: log.With("service", "SnapshotClient"),
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type graphQLError struct {
	Message string `json:"message"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (c *client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	attempt := 0
	op := func() error {
		attempt++
		err := c.doRequest(ctx, query, variables, out)
		if err != nil {
			c.log.Warn("Snapshot query attempt failed", "attempt", attempt, "max_attempts", c.cfg.MaxAttempts, "error", err)
		}
		return err
	}

	ebo := backoff.NewExponentialBackOff()
	ebo.InitialInterval = c.cfg.RetryBase
	ebo.Multiplier = 2
	ebo.RandomizationFactor = 0
	ebo.MaxElapsedTime = 0

	bo := backoff.WithContext(backoff.WithMaxRetries(ebo, uint64(c.cfg.MaxAttempts-1)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		c.log.Error("Snapshot query failed after all retries", "attempts", attempt, "error", err)
		return fmt.Errorf("snapshot query: %v: %w", err, errs.ErrFetchFailed)
	}
	return nil
}

func (c *client) doRequest(ctx context.Context, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(raw), maxErrorBodyBytes))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode data: %w", err))
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
