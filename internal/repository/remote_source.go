package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"MarketTiming/internal/domain/models"
	pkghttp "MarketTiming/pkg/http"
	"MarketTiming/pkg/logger"
)

// RemoteSource downloads raw tables from a base URL. Consecutive transport
// failures open a circuit breaker so a dead host is not retried every run.
type RemoteSource struct {
	client  *pkghttp.Client
	baseURL string
	files   map[string]string
	sheet   string
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// BreakerSettings controls when the remote circuit opens.
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

func NewRemoteSource(client *pkghttp.Client, baseURL string, files map[string]string, sheet string, bs BreakerSettings, l *logger.Logger) *RemoteSource {
	if bs.MaxFailures == 0 {
		bs.MaxFailures = 3
	}
	settings := gobreaker.Settings{
		Name:    "remote-source",
		Timeout: bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.MaxFailures
		},
		// a missing file is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, models.ErrSourceNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	}
	return &RemoteSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		files:   files,
		sheet:   sheet,
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     l,
	}
}

func (s *RemoteSource) Load(ctx context.Context, key string) (*models.RawTable, error) {
	name, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("%w: no file configured for %q", models.ErrSourceNotFound, key)
	}
	if s.baseURL == "" {
		return nil, fmt.Errorf("%w: no remote base url", models.ErrSourceNotFound)
	}
	target := s.baseURL + "/" + url.PathEscape(name)

	out, err := s.breaker.Execute(func() (interface{}, error) {
		var body []byte
		err := s.client.SendAndParse(ctx, &pkghttp.RequestOptions{
			Method: pkghttp.MethodGet,
			URL:    target,
		}, &body)
		if err != nil {
			var se *pkghttp.StatusError
			if errors.As(err, &se) && se.Code == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", models.ErrSourceNotFound, target)
			}
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}

	table, err := DecodeTable(bytes.NewReader(out.([]byte)), name, s.sheet)
	if err != nil {
		return nil, err
	}
	table.Key = key
	table.Origin = "remote:" + target
	s.log.Debug("raw table downloaded",
		logger.String("source", key),
		logger.String("url", target),
		logger.Int("rows", len(table.Rows)),
	)
	return table, nil
}
