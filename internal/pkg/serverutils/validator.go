package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"insurance-intake-be/pkg/fault"
)

var validate = validator.New()

// ValidateRequest checks struct tags and converts violations into a
// Validation fault with a readable field list.
func ValidateRequest(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fault.Wrap(fault.Validation, err, "invalid request")
	}

	var fields []string
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fault.New(fault.Validation, "invalid request: %s", strings.Join(fields, ", "))
}
