package task

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/evalboard/core"
)

var (
	taskDateTag  = "task_date"
	taskDateText = "invalid date"

	taskStatusTag  = "task_status"
	taskStatusText = "status must be one of upcoming, ongoing or completed"

	maxScoreTag  = "max_score"
	maxScoreText = "one of maxScore or maxScoreBreakdown is required"
)

// register custom validators
func init() {
	_ = core.Validate.RegisterValidation(taskDateTag, taskDateValidation)
	core.RegisterCustomTranslation(taskDateTag, taskDateText)

	_ = core.Validate.RegisterValidation(taskStatusTag, taskStatusValidation)
	core.RegisterCustomTranslation(taskStatusTag, taskStatusText)

	core.Validate.RegisterStructValidation(newTaskStructValidation, NewTask{})
	core.RegisterCustomTranslation(maxScoreTag, maxScoreText)
}

// Custom Validators

func taskDateValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return core.ParseTimestamp(s).IsSet()
	}
	return false
}

func taskStatusValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return Status(s).IsValid()
	}
	return false
}

// newTaskStructValidation does NewTask's struct level validation
func newTaskStructValidation(sl validator.StructLevel) {
	if nt, ok := sl.Current().Interface().(NewTask); ok {
		if nt.MaxScore <= 0 && nt.MaxScoreBreakdown.breakdown().Total() <= 0 {
			sl.ReportError(nt.MaxScore, "maxScore", "MaxScore", maxScoreTag, "")
		}
	}
}
