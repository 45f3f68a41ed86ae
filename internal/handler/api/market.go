package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"MarketTiming/internal/domain/models"
	"MarketTiming/internal/service/ratelimit"
	"MarketTiming/internal/usecase"
	xhttp "MarketTiming/pkg/http"
	xlogger "MarketTiming/pkg/logger"
)

// SnapshotSource is the read and reload side of usecase.Refresher.
type SnapshotSource interface {
	Snapshot() (*models.Snapshot, error)
	Reload(ctx context.Context) (*models.Snapshot, error)
	Status() usecase.RefreshStatus
}

// HistoryEvaluator recomputes signals over the trailing rows of a table.
type HistoryEvaluator interface {
	History(t *models.Table, n int) []models.Signal
}

// MarketHandler serves the latest snapshot over HTTP.
type MarketHandler struct {
	logger  *xlogger.Logger
	source  SnapshotSource
	history HistoryEvaluator
	push    echo.HandlerFunc
	limiter *ratelimit.Limiter
}

func NewMarketHandler(logger *xlogger.Logger, source SnapshotSource, history HistoryEvaluator, push echo.HandlerFunc) *MarketHandler {
	return &MarketHandler{logger: logger, source: source, history: history, push: push}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	if h.push != nil {
		e.GET("/ws", h.push)
	}

	g := e.Group("/api")
	g.GET("/signal", h.Signal)
	g.GET("/history", h.History)
	g.GET("/table", h.Table)
	g.GET("/series", h.Series)
	g.GET("/sectors", h.Sectors)
	g.POST("/refresh", h.Refresh, h.limitRefresh)
}

// WithRefreshLimiter throttles POST /api/refresh per client address.
func (h *MarketHandler) WithRefreshLimiter(l *ratelimit.Limiter) *MarketHandler {
	h.limiter = l
	return h
}

func (h *MarketHandler) limitRefresh(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter == nil {
			return next(c)
		}
		ip := c.RealIP()
		if !h.limiter.Allow(ip) {
			wait := h.limiter.RetryAfter(ip)
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			h.logger.Warn("refresh rate limited", xlogger.String("client", ip))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("refresh rate limit exceeded"))
		}
		return next(c)
	}
}

// SignalResponse is the body of GET /api/signal.
type SignalResponse struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Signal      models.Signal         `json:"signal"`
	Statuses    []models.SeriesStatus `json:"statuses"`
}

// TableResponse is the body of GET /api/table.
type TableResponse struct {
	Frequency models.Frequency `json:"frequency"`
	Columns   []string         `json:"columns"`
	Synthetic []string         `json:"synthetic,omitempty"`
	Total     int              `json:"total"`
	Rows      []models.Record  `json:"rows"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Ready   bool                  `json:"ready"`
	AsOf    *time.Time            `json:"as_of,omitempty"`
	Refresh usecase.RefreshStatus `json:"refresh"`
}

func (h *MarketHandler) snapshot() (*models.Snapshot, error) {
	snap, err := h.source.Snapshot()
	if errors.Is(err, usecase.ErrNotReady) {
		return nil, xhttp.NotReadyError("market data has not been computed yet").WithError(err)
	}
	return snap, err
}

func (h *MarketHandler) Signal(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return xhttp.SuccessResponse(c, SignalResponse{
		GeneratedAt: snap.GeneratedAt,
		Signal:      snap.Latest,
		Statuses:    snap.Statuses,
	})
}

func (h *MarketHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	snap, err := h.snapshot()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	var rows []models.Signal
	if req.N <= len(snap.History) {
		rows = snap.History[len(snap.History)-req.N:]
	} else {
		rows = h.history.History(snap.Monthly, req.N)
	}
	return xhttp.ListResponse(c, rows, int64(snap.Monthly.Len()))
}

func (h *MarketHandler) Table(c echo.Context) error {
	req := &models.TableRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	snap, err := h.snapshot()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	t := snap.Monthly
	if models.Frequency(req.Freq) == models.FrequencyDaily {
		t = snap.Daily
	}
	resp := TableResponse{
		Frequency: t.Frequency(),
		Columns:   t.Columns(),
		Total:     t.Len(),
		Rows:      t.Records(req.Limit),
	}
	for _, col := range resp.Columns {
		if t.Synthetic(col) {
			resp.Synthetic = append(resp.Synthetic, col)
		}
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *MarketHandler) Series(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, snap.Statuses, int64(len(snap.Statuses)))
}

func (h *MarketHandler) Sectors(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	rows := snap.Sectors
	if rows == nil {
		rows = []models.SectorValuation{}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *MarketHandler) Refresh(c echo.Context) error {
	snap, err := h.source.Reload(c.Request().Context())
	if err != nil {
		h.logger.Error("refresh failed", xlogger.Error(err))
		if errors.Is(err, models.ErrBaseSeriesMissing) {
			return xhttp.AppErrorResponse(c, xhttp.NotReadyError("base series unavailable").WithError(err))
		}
		return xhttp.AppErrorResponse(c, xhttp.InternalError("refresh failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, snap.Summary())
}

func (h *MarketHandler) Health(c echo.Context) error {
	resp := HealthResponse{Refresh: h.source.Status()}
	snap, err := h.source.Snapshot()
	if err != nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, resp)
	}
	resp.Ready = true
	resp.AsOf = &snap.Latest.Date
	return xhttp.SuccessResponse(c, resp)
}
