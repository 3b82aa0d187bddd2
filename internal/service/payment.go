package service

import "context"

// ChargeResult reports whether the gateway approved the charge and whether the
// funds settled immediately. An approved-but-unsettled charge books a pending
// hold that the settlement consumer confirms later.
type ChargeResult struct {
	Approved bool
	Settled  bool
}

// PaymentCharger is the payment collaborator. The club's gateway integration
// is stubbed out for now; the real one plugs in behind this interface.
type PaymentCharger interface {
	Charge(ctx context.Context, userID string, amount float64) (ChargeResult, error)
}

// MockCharger approves and settles every charge.
type MockCharger struct{}

func (MockCharger) Charge(ctx context.Context, userID string, amount float64) (ChargeResult, error) {
	return ChargeResult{Approved: true, Settled: true}, nil
}
