package stock

type Status string

const (
	StatusInStock      Status = "IN_STOCK"
	StatusLowStock     Status = "LOW_STOCK"
	StatusOutOfStock   Status = "OUT_OF_STOCK"
	StatusDiscontinued Status = "DISCONTINUED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusInStock, StatusLowStock, StatusOutOfStock, StatusDiscontinued:
		return true
	default:
		return false
	}
}

// DeriveStatus keeps DISCONTINUED sticky; otherwise status follows the on-hand quantity.
func DeriveStatus(onHand, lowStockThreshold int64, current Status) Status {
	switch {
	case current == StatusDiscontinued:
		return StatusDiscontinued
	case onHand == 0:
		return StatusOutOfStock
	case onHand < lowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

type AdjustmentReason string

const (
	ReasonReceipt    AdjustmentReason = "RECEIPT"
	ReasonReturn     AdjustmentReason = "RETURN"
	ReasonDamage     AdjustmentReason = "DAMAGE"
	ReasonCycleCount AdjustmentReason = "CYCLE_COUNT"
	ReasonCorrection AdjustmentReason = "CORRECTION"
)

func (r AdjustmentReason) String() string {
	return string(r)
}

func (r AdjustmentReason) IsValid() bool {
	switch r {
	case ReasonReceipt, ReasonReturn, ReasonDamage, ReasonCycleCount, ReasonCorrection:
		return true
	default:
		return false
	}
}
