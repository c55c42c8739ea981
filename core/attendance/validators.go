package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	validate *validator.Validate

	attStatusTag  = "attstatus"
	attStatusText = "status must be one of: present, partial, absent"

	detectionTsTag  = "detectionts"
	detectionTsText = "detection timestamps are required unless status is absent, in which case they must be omitted"
)

// InitValidators registers the attendance package's custom validators.
func InitValidators(v *validator.Validate, translator ut.Translator) {
	validate = v

	_ = validate.RegisterValidation(attStatusTag, attStatusValidation)
	core.RegisterCustomTranslation(validate, translator, attStatusTag, attStatusText)

	validate.RegisterStructValidation(newRecordStructValidation, NewRecord{})
	core.RegisterCustomTranslation(validate, translator, detectionTsTag, detectionTsText)
}

// Custom Validators

// attStatusValidation checks that the submitted status is a known value.
// Unknown statuses are rejected at the boundary rather than left to a
// storage-level constraint.
func attStatusValidation(fl validator.FieldLevel) bool {
	if status, ok := fl.Field().Interface().(Status); ok {
		return status.Valid()
	}
	return Status(fl.Field().String()).Valid()
}

// newRecordStructValidation checks that detection timestamps are present
// exactly when the student was detected: both set unless status is absent,
// both unset when it is.
func newRecordStructValidation(sl validator.StructLevel) {
	nr, ok := sl.Current().Interface().(NewRecord)
	if !ok {
		return
	}
	hasFirst := nr.FirstDetectionTime != nil
	hasLast := nr.LastDetectionTime != nil

	switch nr.Status {
	case StatusAbsent:
		if hasFirst {
			sl.ReportError(nr.FirstDetectionTime, "firstDetectionTime", "FirstDetectionTime", detectionTsTag, "")
		}
		if hasLast {
			sl.ReportError(nr.LastDetectionTime, "lastDetectionTime", "LastDetectionTime", detectionTsTag, "")
		}
	case StatusPresent, StatusPartial:
		if !hasFirst {
			sl.ReportError(nr.FirstDetectionTime, "firstDetectionTime", "FirstDetectionTime", detectionTsTag, "")
		}
		if !hasLast {
			sl.ReportError(nr.LastDetectionTime, "lastDetectionTime", "LastDetectionTime", detectionTsTag, "")
		}
	}
}
