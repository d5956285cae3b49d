package reservation

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusReleased  Status = "RELEASED"
	StatusExpired   Status = "EXPIRED"
	StatusFailed    Status = "FAILED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusReleased, StatusExpired, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is defined out of s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusReleased, StatusExpired, StatusFailed:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the reservation still holds, or has consumed, stock for its order.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusConfirmed
}

const (
	ReleaseReasonManual  = "RELEASED"
	ReleaseReasonExpired = "EXPIRED"
)
