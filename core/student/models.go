package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

type Student struct {
	ID            string     `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Section       string     `json:"section" db:"section"`
	FaceSignature null.Bytes `json:"-" db:"face_signature"` // opaque, produced upstream
	CreatedAt     time.Time  `json:"created_at" db:"created_at"` // UTC
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	ID            string `json:"student_id" validate:"required,alphanum_"`
	Name          string `json:"full_name" validate:"required"`
	Section       string `json:"section" validate:"required"`
	FaceSignature []byte `json:"face_signature" validate:"omitempty"`
}

func (ns *NewStudent) Validate() error {
	ns.ID = core.CleanString(ns.ID)
	ns.Name = core.CleanString(ns.Name)
	ns.Section = core.CleanString(ns.Section)
	return validate.Struct(ns)
}
