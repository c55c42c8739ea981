package inmemdb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

type sessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) attendance.Repository {
	return &sessionRepository{db: db}
}

// CreateSession enforces the same foreign keys and all-or-nothing behavior
// as the SQL repository: a single bad record leaves no trace of the session.
func (repo *sessionRepository) CreateSession(ctx context.Context, sess attendance.Session, recs []attendance.Record) (attendance.Session, error) {
	repo.db.users.mutex.RLock()
	_, teacherOK := repo.db.users.table[sess.TeacherID]
	repo.db.users.mutex.RUnlock()
	if !teacherOK {
		return attendance.Session{}, core.NewPersistenceError("attendance.CreateSession",
			errors.Errorf("session references unknown teacher %q", sess.TeacherID))
	}

	repo.db.students.mutex.RLock()
	var badStudent string
	for _, rec := range recs {
		if _, ok := repo.db.students.table[rec.StudentID]; !ok {
			badStudent = rec.StudentID
			break
		}
	}
	repo.db.students.mutex.RUnlock()
	if badStudent != "" {
		return attendance.Session{}, errors.Wrapf(attendance.ErrStudentNotFound, "student %q", badStudent)
	}

	repo.db.sessions.mutex.Lock()
	defer repo.db.sessions.mutex.Unlock()
	repo.db.records.mutex.Lock()
	defer repo.db.records.mutex.Unlock()

	repo.db.sessions.table[sess.ID] = &sess
	for _, rec := range recs {
		rec := rec
		repo.db.records.pkCount++
		rec.ID = repo.db.records.pkCount
		repo.db.records.table[rec.ID] = &rec
	}
	return sess, nil
}

// QuerySession returns the stored session and its records; test helper.
func (repo *sessionRepository) QuerySession(_ context.Context, id string) (attendance.Session, []attendance.Record, error) {
	repo.db.sessions.mutex.RLock()
	defer repo.db.sessions.mutex.RUnlock()
	repo.db.records.mutex.RLock()
	defer repo.db.records.mutex.RUnlock()

	sess, ok := repo.db.sessions.table[id]
	if !ok {
		return attendance.Session{}, nil, errors.New("session not found")
	}
	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.records.table {
		if rec.SessionID == id {
			recs = append(recs, *rec)
		}
	}
	return *sess, recs, nil
}

// Counts returns the number of stored sessions and records; test helper.
func (repo *sessionRepository) Counts() (sessions, records int) {
	repo.db.sessions.mutex.RLock()
	defer repo.db.sessions.mutex.RUnlock()
	repo.db.records.mutex.RLock()
	defer repo.db.records.mutex.RUnlock()
	return len(repo.db.sessions.table), len(repo.db.records.table)
}
