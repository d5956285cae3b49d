package reservation

import "time"

// Command is the closed set of transitions accepted by Reservation.Decide.
type Command interface {
	Name() string
	command()
}

type Confirm struct{}

type Release struct {
	Reason string
}

// Expire applies only when the reservation expired strictly before Cutoff.
type Expire struct {
	Cutoff time.Time
}

func (Confirm) Name() string { return "confirm" }
func (Release) Name() string { return "release" }
func (Expire) Name() string  { return "expire" }

func (Confirm) command() {}
func (Release) command() {}
func (Expire) command()  {}
