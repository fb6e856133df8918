package reconcile

import "github.com/hirudo/hirudo-etl/internal/model"

// Candidate is one side's geocoded coordinate for a record.
type Candidate struct {
	Longitude float64
	Latitude  float64
	Score     int
	Source    model.CandidateSource
}

// SelectWinner picks the coordinate for a record from its place and street candidates.
// The street candidate wins unless the place score is strictly greater. A nil candidate loses to
// any non-nil one; when both are nil the record has no coordinate and ok is false.
func SelectWinner(place, street *Candidate) (winner Candidate, ok bool) {
	switch {
	case place == nil && street == nil:
		return Candidate{}, false
	case place == nil:
		return *street, true
	case street == nil:
		return *place, true
	case place.Score > street.Score:
		return *place, true
	default:
		return *street, true
	}
}
