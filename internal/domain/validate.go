package domain

import "math"

// daysInMonth allows 29 for February: Feb 29 is a legal target date, and
// non-leap years simply contribute a missing observation.
var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Validate checks coordinate ranges. NaN and infinities are rejected so a
// malformed value can never slip through a range comparison.
func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || math.IsInf(l.Lat, 0) || l.Lat < -90 || l.Lat > 90 {
		return Errorf(KindInvalidLocation, "latitude %v out of range [-90, 90]", l.Lat)
	}
	if math.IsNaN(l.Lon) || math.IsInf(l.Lon, 0) || l.Lon < -180 || l.Lon > 180 {
		return Errorf(KindInvalidLocation, "longitude %v out of range [-180, 180]", l.Lon)
	}
	return nil
}

// Validate checks that the month/day pair names a real calendar date.
func (d TargetDate) Validate() error {
	if d.Month < 1 || d.Month > 12 {
		return Errorf(KindInvalidDate, "month %d out of range [1, 12]", d.Month)
	}
	if d.Day < 1 || d.Day > daysInMonth[d.Month] {
		return Errorf(KindInvalidDate, "day %d invalid for month %d", d.Day, d.Month)
	}
	return nil
}
