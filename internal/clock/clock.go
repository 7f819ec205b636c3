// Package clock resolves the current civil date and time in the deployment's
// fixed time zone. The result grounds relative expressions ("tomorrow", "in
// an hour", weekday names) for the extraction step, so it is computed fresh
// per request and never against the host's local zone.
package clock

import "time"

// Hebrew day names, Sunday first, matching time.Weekday ordering.
var hebrewDays = [7]string{"ראשון", "שני", "שלישי", "רביעי", "חמישי", "שישי", "שבת"}

// Context is the "now" snapshot supplied to the extraction model.
type Context struct {
	Date    string // YYYY-MM-DD
	Time    string // HH:MM
	Weekday string // Hebrew day name
}

// Clock produces now-contexts in one fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Clock pinned to loc.
func New(loc *time.Location) *Clock {
	return &Clock{loc: loc, now: time.Now}
}

// NewAt returns a Clock whose notion of the current instant comes from now.
// Used by tests to fix "today".
func NewAt(loc *time.Location, now func() time.Time) *Clock {
	return &Clock{loc: loc, now: now}
}

// Now returns the current civil date, time and weekday in the fixed zone.
func (c *Clock) Now() Context {
	t := c.now().In(c.loc)
	return Context{
		Date:    t.Format("2006-01-02"),
		Time:    t.Format("15:04"),
		Weekday: hebrewDays[int(t.Weekday())],
	}
}

// Location returns the fixed zone the clock resolves against.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// WeekdayName returns the Hebrew name for t's weekday in the fixed zone.
func (c *Clock) WeekdayName(t time.Time) string {
	return hebrewDays[int(t.In(c.loc).Weekday())]
}
