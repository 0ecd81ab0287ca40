package tracking

import (
	"context"
	"time"

	"github.com/sadopc/stampclock/internal/stamp"
)

// ReportLine is one record of a report. Open records carry zero durations.
type ReportLine struct {
	Record    stamp.StampRecord
	CheckedIn time.Duration
	Break     time.Duration
	Worked    time.Duration
}

// Report summarises a user's records by check-in range.
type Report struct {
	UserID      int64
	StartMillis int64
	EndMillis   int64
	Lines       []ReportLine
	Open        int
	CheckedIn   time.Duration
	Worked      time.Duration
}

// Report builds a Report over RecordsInCheckInRange. Open records are listed
// but left out of the totals.
func (s *Service) Report(ctx context.Context, userID, startMillis, endMillis int64) (Report, error) {
	records, err := s.RecordsInCheckInRange(ctx, userID, startMillis, endMillis)
	if err != nil {
		return Report{}, err
	}

	rep := Report{
		UserID:      userID,
		StartMillis: startMillis,
		EndMillis:   endMillis,
		Lines:       make([]ReportLine, 0, len(records)),
	}
	for _, r := range records {
		line := ReportLine{Record: r}
		if r.Open() {
			rep.Open++
			rep.Lines = append(rep.Lines, line)
			continue
		}
		d, err := checkedIn(r)
		if err != nil {
			return Report{}, err
		}
		worked, err := stamp.WorkedTime(d)
		if err != nil {
			return Report{}, err
		}
		line.CheckedIn = d
		line.Break = d - worked
		line.Worked = worked
		rep.CheckedIn += d
		rep.Worked += worked
		rep.Lines = append(rep.Lines, line)
	}
	return rep, nil
}
