package search

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/common/logger"
	"framework-search/internal/common/metrics"
	"framework-search/internal/common/observability"
	"framework-search/internal/models"
)

// Recorder receives the frameworks a user was shown. Implementations must
// not block the caller.
type Recorder interface {
	RecordSearch(ctx context.Context, userID int64, frameworkIDs []int64)
}

// Page is a paginated search response.
type Page struct {
	TotalCount     int64  `json:"total_count"`
	Page           int    `json:"page"`
	ResultsPerPage int    `json:"results_per_page"`
	Data           []Item `json:"data"`
}

// Store is everything the dispatcher needs from the relational store.
type Store interface {
	Lookup
	FrameworkSource
}

type Dispatcher struct {
	validator       *Validator
	lookup          Lookup
	executor        Executor
	mapper          *Mapper
	recorder        Recorder
	obs             *observability.Observability
	logger          logger.Logger
	suggestionsSize int
}

type Options struct {
	Store           Store
	Executor        Executor
	Recorder        Recorder
	Observability   *observability.Observability
	Logger          logger.Logger
	Images          Images
	ResultsPerPage  int
	SuggestionsSize int
}

func NewDispatcher(opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	obs := opts.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Dispatcher{
		validator:       NewValidator(opts.Store, opts.ResultsPerPage),
		lookup:          opts.Store,
		executor:        opts.Executor,
		mapper:          NewMapper(opts.Store, opts.Images, log),
		recorder:        opts.Recorder,
		obs:             obs,
		logger:          log,
		suggestionsSize: opts.SuggestionsSize,
	}
}

// Search runs a consumer search and records the returned frameworks.
func (d *Dispatcher) Search(ctx context.Context, user models.User, raw []byte) (*Page, error) {
	v, err := d.validator.Validate(ctx, user, raw, KindFull)
	if err != nil {
		d.count(KindFull, err)
		return nil, err
	}
	page, err := d.Page(ctx, v)
	if err != nil {
		return nil, err
	}
	d.record(ctx, user, page.Data)
	return page, nil
}

// AdminSearch runs a staff search. An empty body matches everything.
func (d *Dispatcher) AdminSearch(ctx context.Context, user models.User, raw []byte) (*Page, error) {
	v, err := d.validator.Validate(ctx, user, raw, KindAdmin)
	if err != nil {
		d.count(KindAdmin, err)
		return nil, err
	}
	return d.Page(ctx, v)
}

func (d *Dispatcher) SuggestNames(ctx context.Context, user models.User, raw []byte) ([]Item, error) {
	return d.suggest(ctx, user, raw, KindName)
}

func (d *Dispatcher) SuggestNumbers(ctx context.Context, user models.User, raw []byte) ([]Item, error) {
	return d.suggest(ctx, user, raw, KindNumber)
}

func (d *Dispatcher) suggest(ctx context.Context, user models.User, raw []byte, kind Kind) ([]Item, error) {
	v, err := d.validator.Validate(ctx, user, raw, kind)
	if err != nil {
		d.count(kind, err)
		return nil, err
	}
	_, items, err := d.Dispatch(ctx, v)
	return items, err
}

// Page dispatches v and wraps the items with its pagination. EmptyQuery and
// NotFound produce an empty page.
func (d *Dispatcher) Page(ctx context.Context, v Validated) (*Page, error) {
	total, items, err := d.Dispatch(ctx, v)
	if err != nil {
		return nil, err
	}
	return &Page{
		TotalCount:     total,
		Page:           v.Page().Page,
		ResultsPerPage: v.Page().ResultsPerPage,
		Data:           items,
	}, nil
}

// Dispatch builds, executes and maps a validated input.
func (d *Dispatcher) Dispatch(ctx context.Context, v Validated) (int64, []Item, error) {
	kind := KindFull
	if !v.IsZero() {
		kind = v.Criteria().Kind()
	}

	ctx, span := d.obs.StartSpan(ctx, "search.dispatch", kind.String())
	defer span.End()
	start := time.Now()

	total, items, err := d.dispatch(ctx, v)

	outcome := outcomeOf(err)
	duration := time.Since(start)
	metrics.SearchRequests.WithLabelValues(kind.String(), outcome).Inc()
	metrics.SearchDuration.WithLabelValues(kind.String()).Observe(duration.Seconds())
	d.obs.RecordSearch(ctx, kind.String(), outcome, duration, len(items))
	span.SetAttributes(
		attribute.String("search.outcome", outcome),
		attribute.Int64("search.total", total),
	)

	switch {
	case err == nil:
		return total, items, nil
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrNotFound):
		d.logger.Debug("Search produced no query", map[string]interface{}{
			"kind":   kind.String(),
			"reason": err.Error(),
		})
		return 0, []Item{}, nil
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.Error("Search failed", map[string]interface{}{
			"kind":  kind.String(),
			"error": err,
		})
		return 0, nil, err
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, v Validated) (int64, []Item, error) {
	strategy, err := d.strategyFor(v)
	if err != nil {
		return 0, nil, err
	}
	body, err := strategy.Build(ctx)
	if err != nil {
		return 0, nil, err
	}
	res, err := d.executor.Search(ctx, body)
	if err != nil {
		return 0, nil, err
	}
	items, err := strategy.Map(ctx, res)
	if err != nil {
		return 0, nil, err
	}
	return res.Total, items, nil
}

func (d *Dispatcher) record(ctx context.Context, user models.User, items []Item) {
	if d.recorder == nil || len(items) == 0 {
		return
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.FrameworkID())
	}
	d.recorder.RecordSearch(ctx, user.ID, ids)
}

func (d *Dispatcher) count(kind Kind, err error) {
	metrics.SearchRequests.WithLabelValues(kind.String(), outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyQuery):
		return "empty"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	if stdErr, ok := apperrors.As(err); ok {
		switch stdErr.Code {
		case apperrors.ErrCodeValidationFailed:
			return "invalid"
		case apperrors.ErrCodeIndexUnavailable, apperrors.ErrCodeIndexNotFound:
			return "unavailable"
		}
	}
	return "error"
}
