package model

// CorporateProductID marks units rows that count toward the corporate total.
const CorporateProductID = 2

// UnitTotals are the per-user aggregates over a date window.
//
//	UnitsSum              ROUND(SUM(units.amount), 2)
//	VirtualCooperativeSum SUM(virtual_cooperatives.coop_count)
//	Corporate             COUNT(DISTINCT corporate operation_id) + VirtualCooperativeSum
type UnitTotals struct {
	UnitsSum              float64 `json:"units_sum"`
	VirtualCooperativeSum int     `json:"virtual_cooperative_sum"`
	Corporate             int     `json:"corporate"`
}

// MeetsThresholds reports whether the totals reach a seminar's ed and jk.
func (t UnitTotals) MeetsThresholds(s Seminar) bool {
	return t.UnitsSum >= s.Ed && t.Corporate >= s.Jk
}

// UnitOperation is one operation_id bucket of a user's units.
type UnitOperation struct {
	Type        string  `json:"type"`
	ProductID   int     `json:"product_id"`
	ConsultID   uint64  `json:"consult_id"`
	OperationID uint64  `json:"operation_id"`
	Units       float64 `json:"units"`
}

// UserUnits is a user with its totals and breakdown for a window.
type UserUnits struct {
	User       User            `json:"user"`
	Totals     UnitTotals      `json:"totals"`
	Operations []UnitOperation `json:"units"`
}
