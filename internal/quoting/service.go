// Package quoting wires the pure quote and booking derivations to the order
// store, event publishing and telemetry.
package quoting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tournevent/orderquote/internal/events"
	"github.com/tournevent/orderquote/internal/store"
	"github.com/tournevent/orderquote/internal/telemetry"
	"github.com/tournevent/orderquote/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName = "github.com/tournevent/orderquote/internal/quoting"

	opCreateOrder   = "create_order"
	opGetOrder      = "get_order"
	opGenerateQuote = "generate_quote"
	opBookOrder     = "book_order"

	// maxAttempts bounds read-derive-write cycles lost to concurrent writers.
	maxAttempts = 3
)

// ErrInvalidOrder wraps every validation failure of CreateOrder.
var ErrInvalidOrder = errors.New("invalid order")

// Config holds service configuration.
type Config struct {
	Rates         shipper.RateTable
	MaxItemWeight float64
}

// NewOrder is the input for CreateOrder.
type NewOrder struct {
	Customer string
	Status   shipper.OrderStatus
	Items    []shipper.LineItem
}

// Service runs order operations against a store.
type Service struct {
	store     store.Store
	publisher events.Publisher
	rates     shipper.RateTable
	maxWeight float64
	logger    *otelzap.Logger
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
}

// New creates a service. A nil publisher discards events and nil metrics
// are recorded into a private registry that is never scraped.
func New(cfg Config, st store.Store, publisher events.Publisher, logger *otelzap.Logger, metrics *telemetry.Metrics) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics(prometheus.NewRegistry())
	}
	rates := cfg.Rates
	if rates == nil {
		rates = shipper.DefaultRateTable()
	}
	return &Service{
		store:     st,
		publisher: publisher,
		rates:     rates,
		maxWeight: cfg.MaxItemWeight,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer(tracerName),
	}
}

// Rates returns the rate table used for quoting.
func (s *Service) Rates() shipper.RateTable {
	return s.rates
}

// CreateOrder validates and stores a new order in DRAFT (or PENDING) status.
func (s *Service) CreateOrder(ctx context.Context, in NewOrder) (*shipper.Order, error) {
	ctx, span := s.tracer.Start(ctx, "quoting.CreateOrder")
	defer span.End()
	start := time.Now()

	order, err := s.newOrder(in)
	if err != nil {
		s.finish(ctx, span, opCreateOrder, "INVALID", start)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	if err := s.store.CreateOrder(ctx, order); err != nil {
		s.metrics.RecordStoreError(opCreateOrder)
		span.RecordError(err)
		s.finish(ctx, span, opCreateOrder, string(shipper.OutcomeDatabaseError), start)
		return nil, fmt.Errorf("creating order: %w", err)
	}

	s.logger.Ctx(ctx).Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("customer", order.Customer),
		zap.Int("item_count", len(order.Items)),
	)
	s.finish(ctx, span, opCreateOrder, string(shipper.OutcomeSuccess), start)
	return order, nil
}

func (s *Service) newOrder(in NewOrder) (*shipper.Order, error) {
	customer := strings.TrimSpace(in.Customer)
	if customer == "" {
		return nil, fmt.Errorf("%w: customer is required", ErrInvalidOrder)
	}
	status := in.Status
	if status == "" {
		status = shipper.StatusDraft
	}
	if status != shipper.StatusDraft && status != shipper.StatusPending {
		return nil, fmt.Errorf("%w: %w: new orders must be %s or %s, got %q",
			ErrInvalidOrder, shipper.ErrInvalidStatus, shipper.StatusDraft, shipper.StatusPending, status)
	}
	if err := shipper.ValidateItems(in.Items, s.maxWeight); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}

	items := make([]shipper.LineItem, len(in.Items))
	copy(items, in.Items)
	return &shipper.Order{
		ID:       uuid.NewString(),
		Status:   status,
		Customer: customer,
		Items:    items,
		Quotes:   []shipper.ShippingQuote{},
	}, nil
}

// GetOrder returns the stored order. A missing order yields store.ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, id string) (*shipper.Order, error) {
	ctx, span := s.tracer.Start(ctx, "quoting.GetOrder",
		trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.metrics.RecordStoreError(opGetOrder)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return order, err
}

// GenerateQuote prices order id with every carrier and persists the quoted
// order. Carriers must already be validated members of the carrier set.
//
// Store failures are reported as OutcomeDatabaseError. Lost races with
// concurrent writers are retried from a fresh read.
func (s *Service) GenerateQuote(ctx context.Context, id string, carriers []shipper.CarrierCode) shipper.Outcome {
	ctx, span := s.tracer.Start(ctx, "quoting.GenerateQuote", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.Int("carrier.count", len(carriers)),
	))
	defer span.End()
	start := time.Now()

	outcome := s.generateQuote(ctx, id, carriers)

	fields := []zap.Field{
		zap.String("order_id", id),
		zap.String("outcome", string(outcome.Kind)),
	}
	switch outcome.Kind {
	case shipper.OutcomeSuccess:
		for _, q := range outcome.Order.Quotes {
			s.metrics.RecordQuote(string(q.Carrier))
		}
		s.logger.Ctx(ctx).Info("Quotes generated", append(fields, zap.Int("quote_count", len(outcome.Order.Quotes)))...)
	case shipper.OutcomeQuoteGenerationFailed, shipper.OutcomeDatabaseError:
		span.SetStatus(codes.Error, outcome.Message)
		s.logger.Ctx(ctx).Error("Quote generation failed", append(fields, zap.String("error", outcome.Message))...)
	default:
		s.logger.Ctx(ctx).Info("Quote rejected", fields...)
	}
	s.finish(ctx, span, opGenerateQuote, string(outcome.Kind), start)
	return outcome
}

func (s *Service) generateQuote(ctx context.Context, id string, carriers []shipper.CarrierCode) shipper.Outcome {
	for attempt := 1; ; attempt++ {
		order, err := s.load(ctx, id)
		if err != nil {
			s.metrics.RecordStoreError(opGenerateQuote)
			return shipper.DatabaseError(err.Error())
		}

		outcome := shipper.DeriveQuoteOutcome(order, carriers, s.rates)
		if outcome.Kind != shipper.OutcomeSuccess {
			return outcome
		}

		err = s.store.UpdateOrder(ctx, outcome.Order)
		switch {
		case err == nil:
			s.publish(ctx, events.NewEvent(events.TypeOrderQuoted, outcome.Order))
			return outcome
		case errors.Is(err, store.ErrNotFound):
			return shipper.NotFound()
		case errors.Is(err, store.ErrVersionConflict) && attempt < maxAttempts:
			s.logger.Ctx(ctx).Debug("Order changed while quoting, retrying",
				zap.String("order_id", id), zap.Int("attempt", attempt))
			continue
		default:
			s.metrics.RecordStoreError(opGenerateQuote)
			return shipper.DatabaseError(err.Error())
		}
	}
}

// BookOrder books order id with a carrier it was quoted for.
func (s *Service) BookOrder(ctx context.Context, id string, carrier shipper.CarrierCode) shipper.BookingOutcome {
	ctx, span := s.tracer.Start(ctx, "quoting.BookOrder", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("carrier", string(carrier)),
	))
	defer span.End()
	start := time.Now()

	outcome := s.bookOrder(ctx, id, carrier)

	fields := []zap.Field{
		zap.String("order_id", id),
		zap.String("carrier", string(carrier)),
		zap.String("outcome", string(outcome.Kind)),
	}
	if outcome.Kind == shipper.BookingDatabaseError {
		span.SetStatus(codes.Error, outcome.Message)
		s.logger.Ctx(ctx).Error("Booking failed", append(fields, zap.String("error", outcome.Message))...)
	} else {
		s.logger.Ctx(ctx).Info("Booking processed", fields...)
	}
	s.finish(ctx, span, opBookOrder, string(outcome.Kind), start)
	return outcome
}

func (s *Service) bookOrder(ctx context.Context, id string, carrier shipper.CarrierCode) shipper.BookingOutcome {
	for attempt := 1; ; attempt++ {
		order, err := s.load(ctx, id)
		if err != nil {
			s.metrics.RecordStoreError(opBookOrder)
			return shipper.BookingOutcome{Kind: shipper.BookingDatabaseError, Message: err.Error()}
		}

		outcome := shipper.DeriveBookingOutcome(order, carrier)
		if outcome.Kind != shipper.BookingSuccess {
			return outcome
		}

		err = s.store.UpdateOrder(ctx, outcome.Order)
		switch {
		case err == nil:
			s.publish(ctx, events.NewEvent(events.TypeOrderBooked, outcome.Order))
			return outcome
		case errors.Is(err, store.ErrNotFound):
			return shipper.BookingOutcome{Kind: shipper.BookingOrderNotFound}
		case errors.Is(err, store.ErrVersionConflict) && attempt < maxAttempts:
			continue
		default:
			s.metrics.RecordStoreError(opBookOrder)
			return shipper.BookingOutcome{Kind: shipper.BookingDatabaseError, Message: err.Error()}
		}
	}
}

// load returns nil without error for a missing order.
func (s *Service) load(ctx context.Context, id string) (*shipper.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading order %s: %w", id, err)
	}
	return order, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Ctx(ctx).Warn("Failed to publish order event",
			zap.String("order_id", event.OrderID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
	}
}

func (s *Service) finish(ctx context.Context, span trace.Span, op, outcome string, start time.Time) {
	span.SetAttributes(attribute.String("outcome", outcome))
	s.metrics.RecordOutcome(op, outcome, time.Since(start).Seconds())
}
