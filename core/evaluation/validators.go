package evaluation

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/evalboard/core"
)

var (
	evalDateTag  = "eval_date"
	evalDateText = "invalid date"
)

func init() {
	_ = core.Validate.RegisterValidation(evalDateTag, evalDateValidation)
	core.RegisterCustomTranslation(evalDateTag, evalDateText)
}

func evalDateValidation(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return core.ParseTimestamp(s).IsSet()
	}
	return false
}
