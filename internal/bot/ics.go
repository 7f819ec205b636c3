package bot

import (
	"bytes"
	"fmt"
	"time"

	"calbot/internal/models"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// eventICS renders one descriptor as an iCalendar document so the event can
// be imported into calendars other than the synchronized one.
func eventICS(d models.EventDescriptor, loc *time.Location) ([]byte, error) {
	start, err := time.ParseInLocation("2006-01-02T15:04", d.Date+"T"+d.StartTime, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid event start: %w", err)
	}
	endDate := d.EndDate
	if endDate == "" {
		endDate = d.Date
	}
	end, err := time.ParseInLocation("2006-01-02T15:04", endDate+"T"+d.EndTime, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid event end: %w", err)
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uuid.New().String())
	ve.Props.SetText(ical.PropSummary, d.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end)
	if d.Description != "" {
		ve.Props.SetText(ical.PropDescription, d.Description)
	}
	if d.Location != "" {
		ve.Props.SetText(ical.PropLocation, d.Location)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calbot//EN")
	cal.Children = append(cal.Children, ve)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode ics: %w", err)
	}
	return buf.Bytes(), nil
}
