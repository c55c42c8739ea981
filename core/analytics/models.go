package analytics

import "time"

// TrendPoint is one day's attendance aggregate.
// AttendanceRate averages 100 for present records and 0 for everything else;
// partial deliberately counts as 0 toward this figure.
type TrendPoint struct {
	Date           time.Time `json:"date" db:"session_date"`
	TotalSessions  int       `json:"total_sessions" db:"total_sessions"`
	AttendanceRate float64   `json:"attendance_rate" db:"attendance_rate"`
}

// SectionEngagement aggregates detection confidence per section.
type SectionEngagement struct {
	Section       string  `json:"section" db:"section"`
	AvgConfidence float64 `json:"avg_confidence" db:"avg_confidence"`
	PresentCount  int     `json:"present_count" db:"present_count"`
	TotalCount    int     `json:"total_count" db:"total_count"`
}

// RiskStudent is a student whose attendance percentage fell below the
// risk threshold within the risk window.
type RiskStudent struct {
	StudentID         string  `json:"student_id" db:"student_id"`
	Name              string  `json:"full_name" db:"full_name"`
	Section           string  `json:"section" db:"section"`
	PresentCount      int     `json:"present_count" db:"present_count"`
	TotalCount        int     `json:"total_count" db:"total_count"`
	AttendancePercent float64 `json:"attendance_percentage" db:"attendance_percentage"`
}

// Overview bundles the three analytics result sets; either all three
// sub-queries succeed or no analytics are returned at all.
type Overview struct {
	Trends       []TrendPoint        `json:"trends"`
	Engagement   []SectionEngagement `json:"engagement"`
	RiskStudents []RiskStudent       `json:"risk_students"`
}
