package controlplane

import (
	"time"

	"tradecontrol/src/activation"
	"tradecontrol/src/model"

	"github.com/shopspring/decimal"
)

// RiskSettingsView is what a dashboard may see of the stored settings.
// Ciphertexts never leave the service, only whether they are set.
type RiskSettingsView struct {
	MinProfitPercent  decimal.Decimal `json:"min_profit_percent"`
	MaxProfitPercent  decimal.Decimal `json:"max_profit_percent"`
	MinOrderAmount    decimal.Decimal `json:"min_order_amount"`
	MaxOrderAmount    decimal.Decimal `json:"max_order_amount"`
	WalletSplitLevels int             `json:"wallet_split_levels"`
	AccountActive     bool            `json:"account_active"`
	HasAPIKey         bool            `json:"has_api_key"`
	HasAPISecret      bool            `json:"has_api_secret"`
	UpdatedAt         *time.Time      `json:"updated_at,omitempty"`
}

func newRiskSettingsView(s model.UserSettings) *RiskSettingsView {
	view := &RiskSettingsView{
		MinProfitPercent:  s.MinProfitPercent,
		MaxProfitPercent:  s.MaxProfitPercent,
		MinOrderAmount:    s.MinOrderAmount,
		MaxOrderAmount:    s.MaxOrderAmount,
		WalletSplitLevels: s.WalletSplitLevels,
		AccountActive:     s.AccountActive,
		HasAPIKey:         s.APIKeyCiphertext != "",
		HasAPISecret:      s.APISecretCiphertext != "",
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		view.UpdatedAt = &updated
	}
	return view
}

// Affordances tells a presentation layer which actions are currently allowed.
// Stopping stays available on a deactivated account.
type Affordances struct {
	CanToggleAccount    bool `json:"can_toggle_account"`
	CanStartEngine      bool `json:"can_start_engine"`
	CanStopEngine       bool `json:"can_stop_engine"`
	ForceActionsEnabled bool `json:"force_actions_enabled"`
}

func affordancesFor(accountActive bool, engine activation.Engine) Affordances {
	state := engine.State()
	return Affordances{
		CanToggleAccount:    true,
		CanStartEngine:      accountActive && activation.CanTransition(state, activation.ActionStart),
		CanStopEngine:       activation.CanTransition(state, activation.ActionStop),
		ForceActionsEnabled: engine.IsRunning,
	}
}

// Snapshot is a copy of a session's projection.
type Snapshot struct {
	UserID        string               `json:"user_id"`
	Loaded        bool                 `json:"loaded"`
	AccountActive bool                 `json:"account_active"`
	Engine        activation.Engine    `json:"engine"`
	Assets        []model.TradingAsset `json:"assets"`
	Settings      *RiskSettingsView    `json:"settings,omitempty"`
	Affordances   Affordances          `json:"affordances"`
}
