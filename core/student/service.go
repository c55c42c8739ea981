package student

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound      = errors.New("student not found")
	ErrStudentExists = errors.New("a student with this id is already enrolled")

	validate *validator.Validate
)

// InitValidators registers the student package's validators.
func InitValidators(v *validator.Validate, _ ut.Translator) {
	validate = v
}

type (
	Repository interface {
		// CreateStudent inserts a new student; ErrStudentExists is returned
		// when the id is already enrolled.
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
	}

	Service interface {
		Enroll(ctx context.Context, ns NewStudent) (Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		QueryAll(ctx context.Context) ([]Student, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Enroll creates the student once; re-enrolling an existing id fails.
func (svc *service) Enroll(ctx context.Context, ns NewStudent) (Student, error) {
	std := Student{
		ID:        ns.ID,
		Name:      ns.Name,
		Section:   ns.Section,
		CreatedAt: time.Now().UTC(),
	}
	if len(ns.FaceSignature) > 0 {
		std.FaceSignature = null.BytesFrom(ns.FaceSignature)
	}

	std, err := svc.repo.CreateStudent(ctx, std)
	if err != nil {
		if errors.Cause(err) == ErrStudentExists {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Student{}, err
	}
	return std, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}
