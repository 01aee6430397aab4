package protocol

// Announcement lets a subset of agents assert a fact. After upperBound days
// every agent knows whether anyone asserted it, provided upperBound >= N.
type Announcement struct {
	tally Tally
}

// NewAnnouncement starts an announcement lasting upperBound days.
func NewAnnouncement(active bool, upperBound int) Announcement {
	return Announcement{tally: NewTally(upperBound, active, Any)}
}

// Next advances the announcement by one day.
func (a Announcement) Next(signal bool) Result[Announcement, bool] {
	r := a.tally.Next(signal)
	if v, done := r.Value(); done {
		return Done[Announcement](v)
	}
	return Continue[Announcement, bool](Announcement{tally: r.Next()})
}

// Active reports whether this agent currently signals.
func (a Announcement) Active() bool {
	return a.tally.Active()
}

// Day is the 1-based day of the announcement.
func (a Announcement) Day() int {
	return a.tally.Day()
}

// Length is the number of days the announcement lasts.
func (a Announcement) Length() int {
	return a.tally.Budget()
}
