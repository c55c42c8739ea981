package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/storage/database"
)

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) attendance.Repository {
	return &sessionRepository{db: db}
}

// CreateSession inserts the session row and every record row in one
// transaction. Any insert failure rolls the whole session back; no partial
// session is ever visible.
func (repo sessionRepository) CreateSession(ctx context.Context, sess attendance.Session, recs []attendance.Record) (attendance.Session, error) {
	sessQuery := `
	INSERT INTO sessions (id, teacher_id, subject, section, session_date, session_type,
	                      started_at, ended_at, duration_mins, total_students)
	VALUES (:id, :teacher_id, :subject, :section, :session_date, :session_type,
	        :started_at, :ended_at, :duration_mins, :total_students)`

	recQuery := `
	INSERT INTO records (session_id, student_id, status, detection_count, confidence_score,
	                     first_detected_at, last_detected_at)
	VALUES (:session_id, :student_id, :status, :detection_count, :confidence_score,
	        :first_detected_at, :last_detected_at)`

	err := database.Transaction(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, sessQuery, sess); err != nil {
			return errors.Wrap(err, "inserting session")
		}
		for _, rec := range recs {
			if _, err := tx.NamedExecContext(ctx, recQuery, rec); err != nil {
				if pqErrorCode(err) == pqFKViolation {
					return errors.Wrapf(attendance.ErrStudentNotFound, "student %q", rec.StudentID)
				}
				return errors.Wrapf(err, "inserting record for student %q", rec.StudentID)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Cause(err) == attendance.ErrStudentNotFound {
			return attendance.Session{}, err
		}
		return attendance.Session{}, core.NewPersistenceError("attendance.CreateSession", err)
	}
	return sess, nil
}
