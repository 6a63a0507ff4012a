package route

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Assign attaches a vehicle to the leg. Only valid from ESTIMATED.
func (l *Leg) Assign(vehicleID int64) error {
	if l.State != LegEstimated {
		return fmt.Errorf("%w: cannot assign a leg in state %s", ErrInvalidState, l.State)
	}
	l.VehicleID = &vehicleID
	l.State = LegAssigned
	return nil
}

// Start marks the leg in progress. Only valid from ASSIGNED with a vehicle.
func (l *Leg) Start(now time.Time) error {
	if l.State != LegAssigned {
		return fmt.Errorf("%w: cannot start a leg in state %s", ErrInvalidState, l.State)
	}
	if l.VehicleID == nil {
		return fmt.Errorf("%w: cannot start a leg without an assigned vehicle", ErrInvalidState)
	}
	l.StartedAt = &now
	l.State = LegInProgress
	return nil
}

// Finish completes the leg. Only valid from IN_PROGRESS. The real cost
// currently mirrors the planned cost; actual-cost recomputation is a known
// pending gap.
func (l *Leg) Finish(now time.Time) error {
	if l.State != LegInProgress {
		return fmt.Errorf("%w: cannot finish a leg in state %s", ErrInvalidState, l.State)
	}
	l.FinishedAt = &now
	l.RealCost = decimal.NewNullDecimal(l.PlannedCost)
	l.State = LegFinished
	return nil
}

// ElapsedHours returns the wall-clock duration between start and finish,
// rounded up to whole hours. Zero when either timestamp is missing.
func (l *Leg) ElapsedHours() int {
	if l.StartedAt == nil || l.FinishedAt == nil {
		return 0
	}
	minutes := l.FinishedAt.Sub(*l.StartedAt).Minutes()
	return int(math.Ceil(minutes / 60))
}
