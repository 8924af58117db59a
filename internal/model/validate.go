package model

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// validatorInstance builds the shared validator with the domain validations registered
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		_ = validate.RegisterValidation("content_category", validateContentCategory)
		_ = validate.RegisterValidation("final_category", validateFinalCategory)
		_ = validate.RegisterValidation("confidence_level", validateConfidenceLevel)

		validate.RegisterStructValidation(validateFactCheckFields, AnalysisResult{})
	})
	return validate
}

func validateContentCategory(fl validator.FieldLevel) bool {
	return ContentCategory(fl.Field().String()).Known()
}

func validateFinalCategory(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).Rank() >= 0
}

func validateConfidenceLevel(fl validator.FieldLevel) bool {
	level := ConfidenceLevel(fl.Field().String())
	for _, known := range ConfidenceLevels {
		if level == known {
			return true
		}
	}
	return false
}

// validateFactCheckFields requires empty rating/source/link when there is no fact-check
func validateFactCheckFields(sl validator.StructLevel) {
	a := sl.Current().Interface().(AnalysisResult)
	if a.HasFactCheck {
		return
	}
	if a.FactCheckRating != "" {
		sl.ReportError(a.FactCheckRating, "FactCheckRating", "FactCheckRating", "empty_without_fact_check", "")
	}
	if a.FactCheckSource != "" {
		sl.ReportError(a.FactCheckSource, "FactCheckSource", "FactCheckSource", "empty_without_fact_check", "")
	}
	if a.FactCheckLink != "" {
		sl.ReportError(a.FactCheckLink, "FactCheckLink", "FactCheckLink", "empty_without_fact_check", "")
	}
}

// validateStruct runs the validator and converts the first failure to a ValidationError
func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		return &ValidationError{
			Field:  fe.StructField(),
			Reason: fmt.Sprintf("failed %s (got %v)", reason, fe.Value()),
		}
	}
	return &ValidationError{Reason: err.Error()}
}
