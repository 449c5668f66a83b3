package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-scanner/business/execution/domain"
	"github.com/fd1az/dex-scanner/internal/apperror"
	"github.com/fd1az/dex-scanner/internal/logger"
)

const tracerName = "github.com/fd1az/dex-scanner/business/execution/app"

// DefaultRoutes maps venues to their execution route.
var DefaultRoutes = map[string]domain.Route{
	"serum":   domain.RouteLimitOrder,
	"raydium": domain.RouteSwap,
	"orca":    domain.RouteSwap,
}

// Order is a confirmed opportunity handed to the dispatcher.
type Order struct {
	Venue  string
	Market string
	Base   string
	Quote  string
	Side   domain.Side
	Amount decimal.Decimal
	Price  decimal.Decimal
}

// DispatcherConfig holds execution settings.
type DispatcherConfig struct {
	Slippage decimal.Decimal
	// MaxBalanceFraction caps the order cost at this share of the quote balance.
	MaxBalanceFraction decimal.Decimal
	ConfirmAttempts    int
	ConfirmInterval    time.Duration
	Routes             map[string]domain.Route
	// Tokens fills the mint and base-unit fields of intents. Nil leaves them empty.
	Tokens TokenLookup
}

// DefaultDispatcherConfig returns 1% slippage, a 10% balance cap and 10
// confirmation polls 5s apart.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Slippage:           decimal.RequireFromString("0.01"),
		MaxBalanceFraction: decimal.RequireFromString("0.1"),
		ConfirmAttempts:    10,
		ConfirmInterval:    5 * time.Second,
		Routes:             DefaultRoutes,
	}
}

// Dispatcher turns orders into signed, submitted and confirmed transactions.
// A failed submission is never retried.
type Dispatcher struct {
	cfg       DispatcherConfig
	signer    Signer
	confirmer Confirmer
	balances  BalanceProvider
	logger    logger.LoggerInterface
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
}

// NewDispatcher creates a Dispatcher. balances may be nil, which disables the
// balance cap.
func NewDispatcher(cfg DispatcherConfig, signer Signer, confirmer Confirmer, balances BalanceProvider, log logger.LoggerInterface) *Dispatcher {
	if cfg.Routes == nil {
		cfg.Routes = DefaultRoutes
	}
	if cfg.ConfirmAttempts < 1 {
		cfg.ConfirmAttempts = 1
	}
	return &Dispatcher{
		cfg:       cfg,
		signer:    signer,
		confirmer: confirmer,
		balances:  balances,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Dispatch validates, sizes, signs, submits and confirms an order. Every
// failure is returned as DISPATCH_FAILED with the venue in its context.
func (d *Dispatcher) Dispatch(ctx context.Context, order Order) (*domain.TransactionResult, error) {
	ctx, span := d.tracer.Start(ctx, "execution.dispatch",
		trace.WithAttributes(
			attribute.String("venue", order.Venue),
			attribute.String("market", order.Market),
			attribute.String("amount", order.Amount.String()),
			attribute.String("price", order.Price.String()),
		),
	)
	defer span.End()

	result, err := d.dispatch(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")

		appErr := apperror.New(apperror.CodeDispatchFailed,
			apperror.WithContextf("venue %s", order.Venue),
			apperror.WithCause(err))
		if sc := span.SpanContext(); sc.HasTraceID() {
			appErr.WithTraceID(sc.TraceID().String())
		}
		args := append([]any{"venue", order.Venue, "pair", order.Base + "-" + order.Quote}, appErr.LogAttrs()...)
		d.logger.Error(ctx, "dispatch failed", args...)
		d.logger.Debug(ctx, "dispatch failure stack", "stack", appErr.Stack())
		return nil, appErr
	}

	span.SetAttributes(
		attribute.String("signature", result.Signature),
		attribute.Int("confirm_attempts", result.Attempts),
	)
	d.logger.Info(ctx, "transaction confirmed",
		"venue", result.Venue,
		"intent_id", result.IntentID,
		"signature", result.Signature,
		"attempts", result.Attempts)
	return result, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, order Order) (*domain.TransactionResult, error) {
	if !order.Price.IsPositive() || !order.Amount.IsPositive() {
		return nil, apperror.New(apperror.CodeInvalidTradeSize,
			apperror.WithContextf("amount %s at price %s", order.Amount, order.Price))
	}

	route, ok := d.cfg.Routes[strings.ToLower(order.Venue)]
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownVenue, apperror.WithContext(order.Venue))
	}

	amount, err := d.size(ctx, order)
	if err != nil {
		return nil, err
	}

	side := order.Side
	if side == "" {
		side = domain.SideBuy
	}
	intent := domain.TradeIntent{
		ID:           d.newID(),
		Venue:        order.Venue,
		Route:        route,
		Side:         side,
		Base:         order.Base,
		Quote:        order.Quote,
		Market:       order.Market,
		Amount:       amount,
		Price:        order.Price,
		Slippage:     d.cfg.Slippage,
		MinAmountOut: domain.MinAmountOut(amount, order.Price, d.cfg.Slippage),
		CreatedAt:    d.now(),
	}

	if err := d.withBaseUnits(&intent); err != nil {
		return nil, err
	}

	signature, err := d.signer.SignAndSend(ctx, intent)
	if err != nil {
		return nil, apperror.New(apperror.CodeSigningFailed, apperror.WithContext(intent.ID), apperror.WithCause(err))
	}
	d.logger.Info(ctx, "transaction submitted",
		"venue", intent.Venue,
		"route", string(intent.Route),
		"intent_id", intent.ID,
		"amount", intent.Amount.String(),
		"amount_raw", intent.AmountRaw,
		"min_amount_out", intent.MinAmountOut.String(),
		"signature", signature)

	attempts, err := d.confirm(ctx, signature)
	if err != nil {
		return nil, err
	}

	return &domain.TransactionResult{
		IntentID:    intent.ID,
		Venue:       intent.Venue,
		Signature:   signature,
		Confirmed:   true,
		Attempts:    attempts,
		SubmittedAt: intent.CreatedAt,
	}, nil
}

// withBaseUnits converts the amount into base-token units and the minimum
// output into quote-token units, truncating excess precision.
func (d *Dispatcher) withBaseUnits(intent *domain.TradeIntent) error {
	if d.cfg.Tokens == nil {
		return nil
	}
	base, ok := d.cfg.Tokens.BySymbol(intent.Base)
	if !ok {
		return apperror.New(apperror.CodeUnknownToken, apperror.WithContext(intent.Base))
	}
	quote, ok := d.cfg.Tokens.BySymbol(intent.Quote)
	if !ok {
		return apperror.New(apperror.CodeUnknownToken, apperror.WithContext(intent.Quote))
	}

	amount, err := base.FloorBaseUnits(intent.Amount)
	if err != nil {
		return apperror.New(apperror.CodeInvalidTradeSize, apperror.WithContext(intent.Base), apperror.WithCause(err))
	}
	if amount.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidTradeSize,
			apperror.WithContextf("%s %s is below one base unit", intent.Amount, intent.Base))
	}
	minOut, err := quote.FloorBaseUnits(intent.MinAmountOut)
	if err != nil {
		return apperror.New(apperror.CodeInvalidTradeSize, apperror.WithContext(intent.Quote), apperror.WithCause(err))
	}

	intent.BaseMint = base.Mint
	intent.QuoteMint = quote.Mint
	intent.AmountRaw = amount.String()
	intent.MinAmountOutRaw = minOut.String()
	return nil
}

// size applies the wallet cap: amount * price may not exceed the configured
// fraction of the quote balance.
func (d *Dispatcher) size(ctx context.Context, order Order) (decimal.Decimal, error) {
	if d.balances == nil || !d.cfg.MaxBalanceFraction.IsPositive() {
		return order.Amount, nil
	}

	balance, err := d.balances.Balance(ctx, order.Quote)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodeBalanceUnavailable, apperror.WithContext(order.Quote), apperror.WithCause(err))
	}

	budget := balance.Mul(d.cfg.MaxBalanceFraction)
	if order.Amount.Mul(order.Price).LessThanOrEqual(budget) {
		return order.Amount, nil
	}

	capped := budget.Div(order.Price)
	if !capped.IsPositive() {
		return decimal.Zero, apperror.New(apperror.CodeInvalidTradeSize,
			apperror.WithContextf("%s balance %s too small", order.Quote, balance))
	}
	d.logger.Warn(ctx, "order capped by wallet balance",
		"venue", order.Venue,
		"requested", order.Amount.String(),
		"capped", capped.String(),
		"balance", balance.String())
	return capped, nil
}

// confirm polls the confirmer up to ConfirmAttempts times.
func (d *Dispatcher) confirm(ctx context.Context, signature string) (int, error) {
	for attempt := 1; attempt <= d.cfg.ConfirmAttempts; attempt++ {
		ok, err := d.confirmer.Confirmed(ctx, signature)
		if err != nil {
			return attempt, apperror.New(apperror.CodeNotConfirmed, apperror.WithContext(signature), apperror.WithCause(err))
		}
		if ok {
			return attempt, nil
		}
		if attempt == d.cfg.ConfirmAttempts {
			break
		}

		timer := time.NewTimer(d.cfg.ConfirmInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, apperror.New(apperror.CodeNotConfirmed, apperror.WithContext(signature), apperror.WithCause(ctx.Err()))
		case <-timer.C:
		}
	}
	return d.cfg.ConfirmAttempts, apperror.New(apperror.CodeNotConfirmed,
		apperror.WithContextf("%s after %d attempts", signature, d.cfg.ConfirmAttempts))
}
