package orders

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"tradecontrol/src/errs"
	"tradecontrol/src/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

var (
	ErrAmountMissing     = errors.New("amount is required")
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrAmountNotFinite   = errors.New("amount must be a finite number")
	ErrAmountNotNumeric  = errors.New("amount must be a number")
)

type orderStore interface {
	Create(ctx context.Context, order *model.ManualOrder) error
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ManualOrder, error)
}

// Request is a manual order as typed by the user. Amount is in the quote
// currency; an invalid NullDecimal means the field was left empty.
type Request struct {
	Symbol    string              `json:"symbol"`
	OrderType string              `json:"order_type"`
	OrderSide string              `json:"order_side"`
	Amount    decimal.NullDecimal `json:"amount"`
}

// Intake appends manual orders to the pending queue. It never executes them.
type Intake struct {
	store orderStore
}

func NewIntake(store orderStore) *Intake {
	return &Intake{store: store}
}

// Submit validates req and records exactly one pending order for userID.
func (i *Intake) Submit(ctx context.Context, userID string, req Request) (uuid.UUID, error) {
	order, err := buildOrder(userID, req)
	if err != nil {
		return uuid.Nil, err
	}

	if err := i.store.Create(ctx, order); err != nil {
		return uuid.Nil, errs.Persistence("orders.Submit", err)
	}

	logger.WithFields(map[string]interface{}{
		"component": "orders",
		"user_id":   userID,
		"order_id":  order.ID,
		"symbol":    order.AssetSymbol,
		"side":      order.OrderSide,
		"amount":    order.AmountQuote.String(),
	}).Info("manual order queued")

	return order.ID, nil
}

// Recent lists the user's newest orders first.
func (i *Intake) Recent(ctx context.Context, userID string, limit int) ([]model.ManualOrder, error) {
	list, err := i.store.ListRecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, errs.Persistence("orders.Recent", err)
	}
	return list, nil
}

func buildOrder(userID string, req Request) (*model.ManualOrder, error) {
	const op = "orders.Submit"

	if !req.Amount.Valid {
		return nil, errs.New(errs.CodeInvalidAmount, op, ErrAmountMissing)
	}
	if !req.Amount.Decimal.IsPositive() {
		return nil, errs.New(errs.CodeInvalidAmount, op, ErrAmountNotPositive)
	}

	symbol := model.NormalizeSymbol(req.Symbol)
	if !model.IsUniverseSymbol(symbol) {
		return nil, errs.New(errs.CodeUnknownSymbol, op, errors.New("symbol "+req.Symbol+" is not tradable"))
	}

	orderType := strings.ToUpper(strings.TrimSpace(req.OrderType))
	if !model.IsOrderType(orderType) {
		return nil, errs.New(errs.CodeInvalidOrderType, op, errors.New("order type must be MARKET or LIMIT"))
	}

	side := strings.ToUpper(strings.TrimSpace(req.OrderSide))
	if !model.IsOrderSide(side) {
		return nil, errs.New(errs.CodeInvalidOrderSide, op, errors.New("order side must be BUY or SELL"))
	}

	return &model.ManualOrder{
		ID:          uuid.New(),
		UserID:      userID,
		AssetSymbol: symbol,
		OrderType:   orderType,
		OrderSide:   side,
		AmountQuote: req.Amount.Decimal,
		Status:      model.OrderStatusPending,
	}, nil
}

// AmountFromFloat converts a float input, rejecting NaN and infinities.
func AmountFromFloat(v float64) (decimal.NullDecimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.NullDecimal{}, errs.New(errs.CodeInvalidAmount, "orders.AmountFromFloat", ErrAmountNotFinite)
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v)), nil
}

// ParseAmount reads the amount field of a JSON payload. A missing, null or
// blank value is absent; anything else must be a decimal number or a string
// holding one.
func ParseAmount(raw json.RawMessage) (decimal.NullDecimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.NullDecimal{}, nil
	}
	if strings.HasPrefix(text, `"`) {
		var quoted string
		if err := json.Unmarshal(raw, &quoted); err != nil {
			return decimal.NullDecimal{}, errs.New(errs.CodeInvalidAmount, "orders.ParseAmount", ErrAmountNotNumeric)
		}
		text = strings.TrimSpace(quoted)
		if text == "" {
			return decimal.NullDecimal{}, nil
		}
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.NullDecimal{}, errs.New(errs.CodeInvalidAmount, "orders.ParseAmount", ErrAmountNotNumeric)
	}
	return decimal.NewNullDecimal(amount), nil
}
