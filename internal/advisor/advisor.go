// Package advisor asks an analysis service for dataset recommendations and
// falls back to the local heuristics whenever the service is absent, slow, or
// returns something unusable. Callers always get a result.
package advisor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KaramelBytes/tablechart-cli/internal/chart"
	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
	"github.com/KaramelBytes/tablechart-cli/internal/suggest"
)

// DefaultTimeout bounds a single service call when Advisor.Timeout is unset.
const DefaultTimeout = 15 * time.Second

var (
	// ErrNoService is reported when no analysis service is configured.
	ErrNoService = errors.New("no analysis service configured")
	// ErrMalformedResponse is returned when the service reply is not the expected JSON shape.
	ErrMalformedResponse = errors.New("malformed analysis response")
)

// Request is the input to a dataset analysis.
type Request struct {
	Dataset dataset.Dataset
	Name    string
}

// InsightRequest is the input to an insight report over chosen charts.
type InsightRequest struct {
	Dataset dataset.Dataset
	Name    string
	Charts  []chart.Spec
}

// Service produces analyses remotely. Implementations make one attempt per call.
type Service interface {
	Analyze(ctx context.Context, req Request) (*suggest.Analysis, error)
	Insights(ctx context.Context, req InsightRequest) (*suggest.InsightReport, error)
}

// Advisor wraps an optional Service with a timeout and the heuristic fallback.
type Advisor struct {
	Service Service
	Timeout time.Duration
	Logger  *slog.Logger
	// OnFallback, when set, receives the service error before the heuristic
	// result is returned. It is not called when Service is nil.
	OnFallback func(err error)
}

func (a *Advisor) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *Advisor) timeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return DefaultTimeout
}

func (a *Advisor) fallback(err error) {
	if a.OnFallback != nil {
		a.OnFallback(err)
	}
}

// Analyze returns the service analysis of req, or the heuristic one with
// FallbackReason set when the service is unavailable or fails.
func (a *Advisor) Analyze(ctx context.Context, req Request) *suggest.Analysis {
	log := a.logger().With("op", "analyze", "dataset", req.Name)
	if a.Service == nil {
		log.Debug("using heuristic analysis", "reason", ErrNoService)
		out := suggest.Analyze(req.Dataset, req.Name)
		out.FallbackReason = ErrNoService.Error()
		return out
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()
	start := time.Now()
	res, err := a.Service.Analyze(ctx, req)
	log.Debug("analysis service returned", "elapsed", time.Since(start), "ok", err == nil)
	if err == nil && res != nil {
		res.Source = suggest.SourceService
		res.FallbackReason = ""
		return res
	}
	if err == nil {
		err = ErrMalformedResponse
	}
	log.Warn("analysis service failed; using heuristic analysis", "err", err)
	a.fallback(err)
	out := suggest.Analyze(req.Dataset, req.Name)
	out.FallbackReason = err.Error()
	return out
}

// Insights returns the service insight report for req, falling back the same
// way Analyze does.
func (a *Advisor) Insights(ctx context.Context, req InsightRequest) *suggest.InsightReport {
	log := a.logger().With("op", "insights", "dataset", req.Name, "charts", len(req.Charts))
	if a.Service == nil {
		log.Debug("using heuristic insights", "reason", ErrNoService)
		out := suggest.Insights(req.Dataset, req.Charts)
		out.FallbackReason = ErrNoService.Error()
		return out
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()
	start := time.Now()
	res, err := a.Service.Insights(ctx, req)
	log.Debug("insight service returned", "elapsed", time.Since(start), "ok", err == nil)
	if err == nil && res != nil {
		res.Source = suggest.SourceService
		res.FallbackReason = ""
		return res
	}
	if err == nil {
		err = ErrMalformedResponse
	}
	log.Warn("insight service failed; using heuristic insights", "err", err)
	a.fallback(err)
	out := suggest.Insights(req.Dataset, req.Charts)
	out.FallbackReason = err.Error()
	return out
}
