package domain

import "time"

// calendarFormat renders day-level date strings such as "Wed Jan 01 2020".
const calendarFormat = "Mon Jan 02 2006"

// ExerciseRecord is the canonical exercise entry stored in PostgreSQL. The
// username is denormalized at write time so log queries can report it without
// joining back to users.
type ExerciseRecord struct {
	ID          string
	UserID      string
	Username    string
	Description string
	Duration    int
	Date        time.Time
	CreatedAt   time.Time
}

// CalendarDate renders the record date as a day-level string, discarding
// time of day.
func (e ExerciseRecord) CalendarDate() string {
	return e.Date.Format(calendarFormat)
}
