package service

import (
	"time"

	"go.uber.org/zap"
)

// Clock yields timestamps in the portal's configured zone. When the named
// zone cannot be loaded the clock degrades to a fixed UTC offset.
type Clock struct {
	loc *time.Location
}

// NewClock resolves the zone once at startup.
func NewClock(zoneName string, fallbackOffsetHours int, logger *zap.Logger) *Clock {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		logger.Warn("timezone unavailable, using fixed offset",
			zap.String("zone", zoneName),
			zap.Int("offset_hours", fallbackOffsetHours),
			zap.Error(err))
		loc = time.FixedZone(zoneName, fallbackOffsetHours*3600)
	}
	return &Clock{loc: loc}
}

// Now returns the current time in the portal zone.
func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Year returns the current calendar year in the portal zone.
func (c *Clock) Year() int {
	return c.Now().Year()
}
