package notice

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidatePayload checks a target or action payload against the fixed
// shape. field identifies which payload failed ("target" or "action") in
// the returned error.
func ValidatePayload(field string, obj *PayloadObject) error {
	if obj == nil {
		return nil
	}

	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &InvalidPayloadError{Field: field, Reasons: []string{err.Error()}}
	}

	reasons := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		name := strings.ToLower(ve.Field())
		switch ve.Tag() {
		case "required":
			reasons = append(reasons, fmt.Sprintf("%s is required", name))
		case "max":
			reasons = append(reasons, fmt.Sprintf("%s exceeds %s characters", name, ve.Param()))
		case "url":
			reasons = append(reasons, fmt.Sprintf("%s must be a valid url", name))
		default:
			reasons = append(reasons, fmt.Sprintf("%s failed %s validation", name, ve.Tag()))
		}
	}

	return &InvalidPayloadError{Field: field, Reasons: reasons}
}
