package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// DefaultSection is assumed when the detection client submits no section.
const DefaultSection = "S33"

// ErrStudentNotFound is reported by repositories when a submitted record
// references an unenrolled student. The whole session is rolled back.
var ErrStudentNotFound = errors.New("record references an unenrolled student")

type (
	Repository interface {
		// CreateSession persists the session and all its records atomically:
		// either every row exists afterwards, or none does.
		CreateSession(ctx context.Context, sess Session, recs []Record) (Session, error)
	}

	Service interface {
		// RecordSession persists one attendance session plus its record set.
		// It is NOT idempotent: identical submissions create distinct sessions.
		RecordSession(ctx context.Context, teacherID string, ns NewSession) (Session, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) RecordSession(ctx context.Context, teacherID string, ns NewSession) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:          uuid.New().String(),
		TeacherID:   teacherID,
		Subject:     ns.Subject,
		Section:     ns.Section,
		SessionDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		SessionType: ns.SessionType,
		StartedAt:   ns.Meta.StartTime.UTC(),
		EndedAt:     ns.Meta.EndTime.UTC(),
		DurationMin: ns.Meta.DurationMin,

		// invariant: total_students == count(records) at creation,
		// never independently updated afterwards
		TotalStudents: len(ns.Records),
	}

	recs := make([]Record, 0, len(ns.Records))
	for _, nr := range ns.Records {
		recs = append(recs, Record{
			SessionID:       sess.ID,
			StudentID:       nr.StudentID,
			Status:          nr.Status,
			DetectionCount:  nr.DetectionCount,
			Confidence:      nr.Confidence,
			FirstDetectedAt: null.TimeFromPtr(nr.FirstDetectionTime),
			LastDetectedAt:  null.TimeFromPtr(nr.LastDetectionTime),
		})
	}

	sess, err := svc.repo.CreateSession(ctx, sess, recs)
	if err != nil {
		if errors.Cause(err) == ErrStudentNotFound {
			return Session{}, core.NewValidationError(ErrStudentNotFound,
				core.FieldError{Field: "attendanceRecords", Error: err.Error()})
		}
		return Session{}, err
	}
	return sess, nil
}
