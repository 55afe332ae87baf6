package risk

import (
	"errors"
	"fmt"
	"strings"

	"tradecontrol/src/errs"
	"tradecontrol/src/model"
)

const (
	MinWalletSplitLevels = 1
	MaxWalletSplitLevels = 10
)

// Violation names one broken settings invariant.
type Violation string

const (
	ProfitBoundsInverted  Violation = "PROFIT_BOUNDS_INVERTED"
	OrderBoundsInverted   Violation = "ORDER_BOUNDS_INVERTED"
	SplitLevelsOutOfRange Violation = "SPLIT_LEVELS_OUT_OF_RANGE"
	NegativeProfitBound   Violation = "NEGATIVE_PROFIT_BOUND"
	NegativeOrderBound    Violation = "NEGATIVE_ORDER_BOUND"
)

// ValidationError is a single user-correctable problem with a settings payload.
type ValidationError struct {
	Code    Violation `json:"code"`
	Field   string    `json:"field"`
	Message string    `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors carries every violation found, in check order.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	messages := make([]string, 0, len(e))
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

func (e ValidationErrors) ErrorCode() errs.Code { return errs.CodeValidation }

// Has reports whether code is among the violations.
func (e ValidationErrors) Has(code Violation) bool {
	for _, v := range e {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Validate checks the risk invariants of s. Every check runs; the result is nil or a
// non-empty ValidationErrors.
func Validate(s model.UserSettings) error {
	var violations ValidationErrors

	if s.MinProfitPercent.IsNegative() || s.MaxProfitPercent.IsNegative() {
		violations = append(violations, ValidationError{
			Code:    NegativeProfitBound,
			Field:   "min_profit_percent/max_profit_percent",
			Message: "profit bounds must be >= 0",
		})
	}

	if s.MinProfitPercent.GreaterThan(s.MaxProfitPercent) {
		violations = append(violations, ValidationError{
			Code:    ProfitBoundsInverted,
			Field:   "min_profit_percent",
			Message: fmt.Sprintf("must be <= max_profit_percent (%s > %s)", s.MinProfitPercent, s.MaxProfitPercent),
		})
	}

	if s.MinOrderAmount.IsNegative() || s.MaxOrderAmount.IsNegative() {
		violations = append(violations, ValidationError{
			Code:    NegativeOrderBound,
			Field:   "min_order_amount/max_order_amount",
			Message: "order amount bounds must be >= 0",
		})
	}

	if s.MinOrderAmount.GreaterThan(s.MaxOrderAmount) {
		violations = append(violations, ValidationError{
			Code:    OrderBoundsInverted,
			Field:   "min_order_amount",
			Message: fmt.Sprintf("must be <= max_order_amount (%s > %s)", s.MinOrderAmount, s.MaxOrderAmount),
		})
	}

	if s.WalletSplitLevels < MinWalletSplitLevels || s.WalletSplitLevels > MaxWalletSplitLevels {
		violations = append(violations, ValidationError{
			Code:    SplitLevelsOutOfRange,
			Field:   "wallet_split_levels",
			Message: fmt.Sprintf("must be between %d and %d", MinWalletSplitLevels, MaxWalletSplitLevels),
		})
	}

	if len(violations) > 0 {
		return violations
	}
	return nil
}

// Violations returns the violation codes carried by err, or nil when err is not a
// validation failure.
func Violations(err error) []Violation {
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]Violation, 0, len(verrs))
	for _, v := range verrs {
		out = append(out, v.Code)
	}
	return out
}
