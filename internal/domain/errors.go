package domain

import (
	"errors"
	"fmt"
)

// Rechazos recuperables: el caller puede reintentar con otro tamaño u otro lado.
var (
	ErrCapacityExhausted      = errors.New("risk capacity exhausted")
	ErrStakeExceedsMax        = errors.New("stake exceeds max allowed")
	ErrImbalanceLimitExceeded = errors.New("imbalance limit exceeded")
	ErrInsufficientShares     = errors.New("insufficient shares")
)

// Fallos no reintentables.
var (
	ErrAlreadyResolved = errors.New("market already resolved")
	ErrMarketResolved  = errors.New("market is resolved, trading closed")
	ErrInvalidAmount   = errors.New("amount must be positive and finite")
	ErrInvalidSide     = errors.New("side must be YES or NO")
	ErrInvalidConfig   = errors.New("invalid market configuration")
)

// RejectReason nombra el motivo de un rechazo de trade.
type RejectReason string

const (
	ReasonCapacityExhausted RejectReason = "CAPACITY_EXHAUSTED"
	ReasonStakeExceedsMax   RejectReason = "STAKE_EXCEEDS_MAX"
	ReasonImbalanceLimit    RejectReason = "IMBALANCE_LIMIT_EXCEEDED"
	ReasonInsufficientShare RejectReason = "INSUFFICIENT_SHARES"
)

var reasonSentinels = map[RejectReason]error{
	ReasonCapacityExhausted: ErrCapacityExhausted,
	ReasonStakeExceedsMax:   ErrStakeExceedsMax,
	ReasonImbalanceLimit:    ErrImbalanceLimitExceeded,
	ReasonInsufficientShare: ErrInsufficientShares,
}

// RejectError es el resultado tipado de un buy/sell rechazado.
// Cuando se devuelve, el estado del mercado no cambió.
type RejectError struct {
	MarketID  string
	Reason    RejectReason
	Side      Side
	Requested float64 // stake (buy), payout neto o shares (sell)
	Limit     float64 // cota que se violó
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("market %s: %s %s rejected: requested %.4f, limit %.4f",
		e.MarketID, e.Side, e.Reason, e.Requested, e.Limit)
}

// Unwrap permite errors.Is(err, ErrStakeExceedsMax) etc.
func (e *RejectError) Unwrap() error {
	return reasonSentinels[e.Reason]
}

// IsRejection devuelve true si err es un rechazo recuperable.
func IsRejection(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}

func reject(marketID string, reason RejectReason, side Side, requested, limit float64) error {
	return &RejectError{
		MarketID:  marketID,
		Reason:    reason,
		Side:      side,
		Requested: requested,
		Limit:     limit,
	}
}
