package attendance

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Status is the closed set of per-student attendance outcomes.
type Status string

const (
	StatusPresent Status = "present"
	StatusPartial Status = "partial"
	StatusAbsent  Status = "absent"
)

var Statuses = []Status{StatusPresent, StatusPartial, StatusAbsent}

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusPartial, StatusAbsent:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// Session types
const (
	TypeOffline = "offline"
)

// Session is one recorded classroom attendance-taking occurrence.
// Sessions are append-only: a Session and its Records are created together
// in one transaction and never updated afterwards.
type Session struct {
	ID          string    `json:"id" db:"id"`
	TeacherID   string    `json:"teacher_id" db:"teacher_id"`
	Subject     string    `json:"subject" db:"subject"`
	Section     string    `json:"section" db:"section"`
	SessionDate time.Time `json:"session_date" db:"session_date"` // date only, UTC
	SessionType string    `json:"session_type" db:"session_type"`
	StartedAt   time.Time `json:"started_at" db:"started_at"`
	EndedAt     time.Time `json:"ended_at" db:"ended_at"`
	DurationMin int       `json:"duration_mins" db:"duration_mins"`

	// TotalStudents is set once at creation from the submitted record count;
	// it always equals the number of Records persisted for this session.
	TotalStudents int `json:"total_students" db:"total_students"`
}

// Record is one student's outcome within a Session.
type Record struct {
	ID              int64     `json:"id" db:"id"`
	SessionID       string    `json:"session_id" db:"session_id"`
	StudentID       string    `json:"student_id" db:"student_id"`
	Status          Status    `json:"status" db:"status"`
	DetectionCount  int       `json:"detection_count" db:"detection_count"`
	Confidence      float64   `json:"confidence_score" db:"confidence_score"` // 0.000 - 1.000
	FirstDetectedAt null.Time `json:"first_detected_at" db:"first_detected_at"`
	LastDetectedAt  null.Time `json:"last_detected_at" db:"last_detected_at"`
}

// SessionMeta carries the timing data submitted by the detection client.
type SessionMeta struct {
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required"`
	DurationMin int       `json:"duration" validate:"gte=0"`
}

// NewRecord is one submitted attendance outcome.
type NewRecord struct {
	StudentID          string     `json:"studentId" validate:"required"`
	Status             Status     `json:"status" validate:"required,attstatus"`
	DetectionCount     int        `json:"detectionCount" validate:"gte=0"`
	Confidence         float64    `json:"confidenceScore" validate:"gte=0,lte=1"`
	FirstDetectionTime *time.Time `json:"firstDetectionTime"`
	LastDetectionTime  *time.Time `json:"lastDetectionTime"`
}

// NewSession is the full session submission.
// Records must be present; an empty list is a valid session with no attendees.
type NewSession struct {
	Subject     string      `json:"subject" validate:"required"`
	Section     string      `json:"section"`
	SessionType string      `json:"sessionType"`
	Meta        *SessionMeta `json:"sessionData" validate:"required"`
	Records     []NewRecord `json:"attendanceRecords" validate:"required,dive"`
}

func (ns *NewSession) Validate() error {
	ns.Subject = core.CleanString(ns.Subject)
	ns.Section = core.CleanString(ns.Section)
	ns.SessionType = core.CleanString(ns.SessionType, true /* lower */)
	if ns.Section == "" {
		ns.Section = DefaultSection
	}
	if ns.SessionType == "" {
		ns.SessionType = TypeOffline
	}
	return validate.Struct(ns)
}
