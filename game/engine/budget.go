package engine

// Budget counts the remaining sacrifices. Remaining above Base means the
// extra charge is still unspent.
type Budget struct {
	Remaining int `json:"remaining"`
	Base      int `json:"base"`
}

// NewBudget starts at base, plus one when the extra charge is held
func NewBudget(base int, extra bool) Budget {
	if base < 0 {
		base = 0
	}
	b := Budget{Remaining: base, Base: base}
	if extra {
		b.Remaining++
	}
	return b
}

// Spend uses one sacrifice. extraSpent reports whether it was the extra charge.
func (b *Budget) Spend() (extraSpent bool, err error) {
	if b.Remaining <= 0 {
		return false, ErrNoSacrifices
	}
	extraSpent = b.Remaining > b.Base
	b.Remaining--
	return extraSpent, nil
}

// CanSpend reports whether a sacrifice is available
func (b Budget) CanSpend() bool {
	return b.Remaining > 0
}
