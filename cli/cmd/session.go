package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/intel/adapter"
	"github.com/pithecene-io/intel/adapter/redis"
	"github.com/pithecene-io/intel/adapter/webhook"
	"github.com/pithecene-io/intel/cli/config"
	"github.com/pithecene-io/intel/client"
	"github.com/pithecene-io/intel/iox"
	"github.com/pithecene-io/intel/lode"
	"github.com/pithecene-io/intel/log"
	"github.com/pithecene-io/intel/metrics"
	"github.com/pithecene-io/intel/types"
)

// mockLatency is the simulated latency of the --mock backend.
var mockLatency = 200 * time.Millisecond

// session is everything a command needs to talk to the backend.
type session struct {
	config  *config.Config
	meta    *types.SessionMeta
	logger  *log.Logger
	metrics *metrics.Collector
	backend client.Backend
	mode    string

	closers []func()
}

// newSession resolves configuration and builds the backend.
// Configuration failures exit with the usage code.
func newSession(c *cli.Context, conversationID *int64) (*session, error) {
	cfg, err := resolveConfig(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitUsage)
	}

	meta := types.NewSessionMeta(conversationID)
	logger := log.NewLogger(meta)
	if c.Bool("debug") {
		logger = log.NewDebugLogger(meta)
	}
	if conversationID != nil {
		logger = logger.WithConversation(*conversationID)
	}

	s := &session{
		config: cfg,
		meta:   meta,
		logger: logger,
	}

	if cfg.API.Mock {
		s.mode = "mock"
		s.metrics = metrics.NewCollector(s.mode, meta.SessionID)
		mock := client.NewMockBackend(logger, s.metrics)
		mock.Latency = mockLatency
		s.backend = mock
	} else {
		s.mode = "http"
		s.metrics = metrics.NewCollector(s.mode, meta.SessionID)
		cl, err := client.New(client.Config{
			BaseURL: cfg.API.URL,
			Headers: cfg.API.Headers,
			Timeout: cfg.API.Timeout.Duration,
			Retries: *cfg.API.Retries,
			Logger:  logger,
			Metrics: s.metrics,
		})
		if err != nil {
			return nil, cli.Exit(err.Error(), exitUsage)
		}
		s.backend = cl
		s.closers = append(s.closers, iox.CloseFunc(cl))
	}

	logger.Debug("session started", map[string]any{
		"backend":  s.mode,
		"base_url": cfg.API.URL,
	})
	return s, nil
}

// resolveConfig loads the config file and applies flag overrides.
func resolveConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Resolve(c.String("config"))
	if err != nil {
		return nil, err
	}
	if u := c.String("api-url"); u != "" {
		cfg.API.URL = u
	}
	if c.Bool("mock") {
		cfg.API.Mock = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// archive opens the configured transcript archive. Returns nil when
// archiving is disabled.
func (s *session) archive(ctx context.Context, conversationID *int64) (*lode.Archive, error) {
	st := s.config.Storage
	cfg := lode.Config{
		Dataset:        st.Dataset,
		SessionID:      s.meta.SessionID,
		ConversationID: conversationID,
	}

	var (
		a   *lode.Archive
		err error
	)
	switch st.Backend {
	case "":
		return nil, nil
	case "fs":
		a, err = lode.NewFSArchive(cfg, st.Path, s.metrics)
	case "s3":
		bucket, prefix := lode.ParseS3Path(st.Path)
		a, err = lode.NewS3Archive(ctx, cfg, lode.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       st.Region,
			Endpoint:     st.Endpoint,
			UsePathStyle: st.S3PathStyle,
		}, s.metrics)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (must be fs or s3)", st.Backend)
	}
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, iox.CloseFunc(a))
	return a, nil
}

// notifier builds the configured completion adapter. Returns nil when
// notifications are disabled.
func (s *session) notifier() (adapter.Adapter, error) {
	ac := s.config.Adapter
	retries := func(def int) int {
		if ac.Retries != nil {
			return *ac.Retries
		}
		return def
	}

	var (
		a   adapter.Adapter
		err error
	)
	switch ac.Type {
	case "":
		return nil, nil
	case "webhook":
		a, err = webhook.New(webhook.Config{
			URL:     ac.URL,
			Headers: ac.Headers,
			Timeout: ac.Timeout.Duration,
			Retries: retries(webhook.DefaultRetries),
		})
	case "redis":
		a, err = redis.New(redis.Config{
			URL:     ac.URL,
			Channel: ac.Channel,
			Timeout: ac.Timeout.Duration,
			Retries: retries(adapter.DefaultRetries),
		})
	default:
		return nil, fmt.Errorf("unknown adapter type: %s (must be webhook or redis)", ac.Type)
	}
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, iox.CloseFunc(a))
	return a, nil
}

// Close releases everything the session opened, newest first.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	iox.DiscardErr(s.logger.Sync)
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// requestContext bounds a one-shot dashboard call.
func requestContext(parent context.Context, s *session) (context.Context, context.CancelFunc) {
	// Retries each get the per-request timeout, plus backoff.
	budget := s.config.API.Timeout.Duration * time.Duration(*s.config.API.Retries+2)
	return context.WithTimeout(parent, budget)
}
