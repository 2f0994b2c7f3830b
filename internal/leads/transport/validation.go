package transport

import (
	govalidator "github.com/go-playground/validator/v10"

	"quotescan_backend/internal/leads/valuation"
	"quotescan_backend/platform/validator"
)

// RegisterValidations installs the funnel-answer tags the DTOs in this
// package use. The valuation package owns the legal values; validating
// against its constants keeps intake and classification in lockstep.
func RegisterValidations(val *validator.Validator) error {
	if err := val.RegisterValidation("project_size", isProjectSize); err != nil {
		return err
	}
	return val.RegisterValidation("urgency", isUrgency)
}

func isProjectSize(fl govalidator.FieldLevel) bool {
	switch fl.Field().String() {
	case valuation.SizeSmall, valuation.SizeMedium, valuation.SizeLarge, valuation.SizeEntireHome:
		return true
	}
	return false
}

func isUrgency(fl govalidator.FieldLevel) bool {
	switch fl.Field().String() {
	case valuation.UrgencyASAP, valuation.UrgencySoon, valuation.UrgencyPlanning, valuation.UrgencyResearching:
		return true
	}
	return false
}
