package model

import "strings"

// Universe is the closed set of symbols the control plane recognizes, in display order.
var Universe = []string{"BTC", "ETH", "BNB", "USDT", "XRP", "SOL"}

const (
	OrderTypeMarket = "MARKET"
	OrderTypeLimit  = "LIMIT"

	OrderSideBuy  = "BUY"
	OrderSideSell = "SELL"

	DecisionBuy  = "BUY"
	DecisionSell = "SELL"
	DecisionHold = "HOLD"

	OrderStatusPending = "pending"
)

// NormalizeSymbol upper-cases and trims a user supplied symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// IsUniverseSymbol reports whether symbol belongs to Universe.
func IsUniverseSymbol(symbol string) bool {
	for _, s := range Universe {
		if s == symbol {
			return true
		}
	}
	return false
}

func IsOrderType(v string) bool {
	return v == OrderTypeMarket || v == OrderTypeLimit
}

func IsOrderSide(v string) bool {
	return v == OrderSideBuy || v == OrderSideSell
}
