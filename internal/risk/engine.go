// Package risk gates outgoing quote orders with static limits. The
// zero-value config allows everything: each check arms only when its
// limit is set, so the engine's own sizing remains the binding
// constraint unless an operator tightens it.
package risk

import "main/internal/schema"

// Config defines simple risk limits.
type Config struct {
	KillSwitch      bool          `json:"killSwitch"`
	QuotingDisabled bool          `json:"quotingDisabled"`
	MaxOrderVolume  schema.Volume `json:"maxOrderVolume"`
	MinPrice        schema.Price  `json:"minPrice"`
	MaxPrice        schema.Price  `json:"maxPrice"`
	PositionLimit   schema.Volume `json:"positionLimit"`
}

// Engine evaluates risk decisions. Hedge orders do not pass through it.
type Engine struct {
	cfg Config
}

// NewEngine creates a risk engine with static limits.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// SetConfig swaps the limits, for operator reloads.
func (e *Engine) SetConfig(cfg Config) {
	e.cfg = cfg
}

// Config returns the active limits.
func (e *Engine) Config() Config {
	return e.cfg
}

// Evaluate applies the configured checks to a quote order intent.
func (e *Engine) Evaluate(orderID uint64, side schema.Side, price schema.Price, volume, position schema.Volume) schema.RiskDecision {
	decision := schema.RiskDecision{
		OrderID:  orderID,
		Action:   schema.RiskActionAllow,
		Reason:   schema.RiskReasonNone,
		Side:     side,
		Price:    price,
		Volume:   volume,
		Position: position,
		Limit:    e.cfg.PositionLimit,
	}

	if e.cfg.KillSwitch {
		decision.Action = schema.RiskActionDeny
		decision.Reason = schema.RiskReasonKillSwitch
		return decision
	}

	if e.cfg.QuotingDisabled {
		decision.Action = schema.RiskActionDeny
		decision.Reason = schema.RiskReasonQuotingDisabled
		return decision
	}

	if e.cfg.MaxOrderVolume > 0 && volume > e.cfg.MaxOrderVolume {
		decision.Action = schema.RiskActionDeny
		decision.Reason = schema.RiskReasonMaxVolume
		return decision
	}

	if e.cfg.MinPrice > 0 && price < e.cfg.MinPrice {
		decision.Action = schema.RiskActionDeny
		decision.Reason = schema.RiskReasonPriceBand
		return decision
	}
	if e.cfg.MaxPrice > 0 && price > e.cfg.MaxPrice {
		decision.Action = schema.RiskActionDeny
		decision.Reason = schema.RiskReasonPriceBand
		return decision
	}

	if e.cfg.PositionLimit > 0 {
		next := applySide(position, side, volume)
		if absVolume(next) > e.cfg.PositionLimit {
			decision.Action = schema.RiskActionDeny
			decision.Reason = schema.RiskReasonPositionLimit
			return decision
		}
	}

	return decision
}

func applySide(pos schema.Volume, side schema.Side, volume schema.Volume) schema.Volume {
	switch side {
	case schema.SideBuy:
		return pos + volume
	case schema.SideSell:
		return pos - volume
	default:
		return pos
	}
}

func absVolume(v schema.Volume) schema.Volume {
	if v < 0 {
		return -v
	}
	return v
}
