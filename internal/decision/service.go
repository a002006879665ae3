package decision

//go:generate mockgen -source=ports/ports.go -destination=mocks/mocks.go -package=mocks ConfigSource,AuditPort

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"paycustom/internal/decision/metrics"
	"paycustom/internal/decision/ports"
	dErrors "paycustom/pkg/domain-errors"
	"paycustom/pkg/platform/audit"
	"paycustom/pkg/requestcontext"
)

const inlineSubject = "inline"

// Service hosts the engine for the checkout path: it adds stored
// configuration lookup, metrics, tracing and audit around the pure evaluation.
type Service struct {
	engine  *Engine
	configs ports.ConfigSource
	auditor ports.AuditPort
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

func WithConfigSource(source ports.ConfigSource) ServiceOption {
	return func(s *Service) {
		s.configs = source
	}
}

func WithAuditPublisher(publisher ports.AuditPort) ServiceOption {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// NewService constructs a Service around engine.
func NewService(engine *Engine, opts ...ServiceOption) (*Service, error) {
	if engine == nil {
		return nil, errors.New("decision engine is required")
	}
	s := &Service{
		engine: engine,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("paycustom/decision"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run evaluates a host payload carrying its own configuration blob.
func (s *Service) Run(ctx context.Context, input RunInput) RunResult {
	ev := s.evaluate(ctx, inlineSubject, input.ConfigValue(), input.Cart, input.PaymentMethods)
	return ev.Decision.Result()
}

// RunForCustomization evaluates against the stored configuration of a payment
// customization. Only an unknown id is reported as an error; a store outage
// fails open to NoChange so checkout keeps every payment method.
func (s *Service) RunForCustomization(ctx context.Context, customizationID uuid.UUID, cart *Cart, paymentMethods []PaymentMethod) (RunResult, error) {
	if s.configs == nil {
		return RunResult{}, dErrors.New(dErrors.CodeUnavailable, "stored configurations are not available")
	}

	record, err := s.configs.ConfigurationFor(ctx, customizationID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.metrics.IncrementConfigLookup("not_found")
			return RunResult{}, err
		}
		s.metrics.IncrementConfigLookup("error")
		s.logger.ErrorContext(ctx, "configuration lookup failed, leaving checkout unchanged",
			"request_id", requestcontext.RequestID(ctx),
			"customization_id", customizationID,
			"error", err,
		)
		return NoChange().Result(), nil
	}

	if !record.Enabled {
		s.metrics.IncrementConfigLookup("disabled")
		return NoChange().Result(), nil
	}
	s.metrics.IncrementConfigLookup("hit")

	ev := s.evaluate(ctx, customizationID.String(), record.Value, cart, paymentMethods)
	return ev.Decision.Result(), nil
}

func (s *Service) evaluate(ctx context.Context, subject string, configRaw *string, cart *Cart, paymentMethods []PaymentMethod) Evaluation {
	ctx, span := s.tracer.Start(ctx, "decision.evaluate")
	defer span.End()

	start := time.Now()
	ev := s.engine.Explain(configRaw, cart, paymentMethods)
	s.metrics.ObserveEvaluateLatency(time.Since(start))
	s.metrics.IncrementOutcome(ev.Decision.Outcome(), string(ev.Reason))

	lines := 0
	if cart != nil {
		lines = len(cart.Lines)
	}
	span.SetAttributes(
		attribute.String("decision.subject", subject),
		attribute.String("decision.outcome", ev.Decision.Outcome()),
		attribute.String("decision.reason", string(ev.Reason)),
		attribute.Int("decision.cart_lines", lines),
		attribute.Int("decision.payment_methods", len(paymentMethods)),
	)

	s.logger.DebugContext(ctx, "decision evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"subject", subject,
		"outcome", ev.Decision.Outcome(),
		"reason", ev.Reason,
	)

	if paymentMethodID, hidden := ev.Decision.HiddenPaymentMethod(); hidden {
		s.emitHidden(ctx, subject, paymentMethodID, ev)
	}
	return ev
}

// emitHidden is best-effort: a failed emit never changes the decision.
func (s *Service) emitHidden(ctx context.Context, subject, paymentMethodID string, ev Evaluation) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Action:          string(audit.EventPaymentMethodHidden),
		Timestamp:       requestcontext.Now(ctx),
		Subject:         subject,
		Decision:        ev.Decision.Outcome(),
		Reason:          string(ev.Reason),
		PaymentMethodID: paymentMethodID,
		ShopDomain:      requestcontext.ShopDomain(ctx),
		RequestID:       requestcontext.RequestID(ctx),
		ClientIP:        requestcontext.ClientIP(ctx),
	})
	if err != nil {
		s.metrics.IncrementAuditFailure()
		s.logger.WarnContext(ctx, "failed to emit decision audit event",
			"request_id", requestcontext.RequestID(ctx),
			"subject", subject,
			"error", err,
		)
	}
}
