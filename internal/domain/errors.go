package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrWalletMissing    = errors.New("wallet bridge not available")
	ErrWalletRejected   = errors.New("wallet request rejected")
	ErrNoAccount        = errors.New("no wallet connected")
	ErrInvalidAmount    = errors.New("invalid bet amount")
	ErrNoMarketSelected = errors.New("no market selected")
	ErrNoBetInProgress  = errors.New("no bet dialog open")
	ErrBetRejected      = errors.New("bet rejected by backend")
	ErrBackendDown      = errors.New("backend unreachable")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrStreamClosed     = errors.New("market stream closed")
)
