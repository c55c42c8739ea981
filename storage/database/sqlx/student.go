package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	query := `
	INSERT INTO students (id, name, section, face_signature, created_at)
	VALUES (:id, :name, :section, :face_signature, :created_at)`

	if _, err := repo.db.NamedExecContext(ctx, query, std); err != nil {
		if pqErrorCode(err) == pqUniqueViolation {
			return student.Student{}, student.ErrStudentExists
		}
		return student.Student{}, core.NewPersistenceError("student.CreateStudent", err)
	}
	return std, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var std student.Student
	query := `SELECT * FROM students WHERE id = $1`
	if err := repo.db.GetContext(ctx, &std, query, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, core.NewPersistenceError("student.GetStudentByID", err)
	}
	return std, nil
}

func (repo studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	students := make([]student.Student, 0)
	query := `SELECT * FROM students ORDER BY section, id`
	if err := repo.db.SelectContext(ctx, &students, query); err != nil {
		return nil, core.NewPersistenceError("student.QueryAllStudents", err)
	}
	return students, nil
}
