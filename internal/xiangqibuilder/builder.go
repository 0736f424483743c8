// Package xiangqibuilder assembles the match host from AppConfig.
package xiangqibuilder

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/xiangqi-bot/internal/adapter/xiangqipresenter"
	"github.com/park285/xiangqi-bot/internal/config"
	"github.com/park285/xiangqi-bot/internal/directory"
	"github.com/park285/xiangqi-bot/internal/httpapi"
	"github.com/park285/xiangqi-bot/internal/match"
	"github.com/park285/xiangqi-bot/internal/msgcat"
	"github.com/park285/xiangqi-bot/internal/openingbook"
	"github.com/park285/xiangqi-bot/internal/relay"
)

type Deps struct {
	Redis     *redis.Client // nil without REDIS_URL
	Relay     *relay.Relay  // nil without REDIS_URL
	Directory *directory.Store
	Book      *openingbook.Client
	Manager   *match.Manager
	Catalog   *msgcat.Catalog
	Formatter *xiangqipresenter.Formatter
	HTTP      *httpapi.Server
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}

	// Relay (Redis optional)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := parseRedisURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		d.Redis = rdb
		d.Relay = relay.New(rdb, cfg.RelayChannelPrefix, cfg.NodeID, logger.Named("relay"))
		d.Directory = directory.NewStore(rdb, "xiangqi")
	} else {
		logger.Info("relay_disabled", zap.String("reason", "REDIS_URL not set"))
	}

	// Opening book (optional)
	if strings.TrimSpace(cfg.ChessDBURL) != "" {
		d.Book = openingbook.NewClient(cfg.ChessDBURL,
			openingbook.WithTimeout(cfg.OpeningBookTimeout),
			openingbook.WithRetry(cfg.OpeningBookRetry),
			openingbook.WithLogger(logger.Named("openingbook")),
		)
	}

	mopts := match.Options{
		MaxMatches:    cfg.MaxConcurrentMatches,
		StalemateDraw: cfg.StalemateIsDraw,
		Logger:        logger.Named("match"),
	}
	if d.Relay != nil {
		mopts.Publisher = d.Relay
		mopts.Directory = d.Directory
		mopts.NodeID = d.Relay.Origin()
	}
	if d.Book != nil {
		mopts.Book = d.Book
	}
	d.Manager = match.NewManager(mopts)

	cat, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}
	d.Catalog = cat
	d.Formatter = xiangqipresenter.NewFormatter(cat)
	d.HTTP = httpapi.New(d.Manager, logger.Named("http"))
	return d, nil
}

// Close releases network clients.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs *multierror.Error
	if d.HTTP != nil {
		if err := d.HTTP.Shutdown(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	return errs.ErrorOrNil()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := u.Port()
	if portStr == "" {
		portStr = "6379"
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("redis db %q: %w", p, err)
		}
		db = n
	}
	opts := &redis.Options{Addr: net.JoinHostPort(host, portStr), DB: db}
	if u.User != nil {
		opts.Username = u.User.Username()
		opts.Password, _ = u.User.Password()
	}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
