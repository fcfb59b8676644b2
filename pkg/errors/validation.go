package errors

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FromValidation converts validator failures into a single coded error
// listing every failing field. Other errors are wrapped unchanged.
func FromValidation(code Code, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Wrap(code, err, "validation failed")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return New(code, "%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "hexcolor", "color":
		return fmt.Sprintf("%s must be a hex color", field)
	}
	return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
}

// ValidateNodeName validates a node name given on the command line or in a
// request. Names are matched literally, so only emptiness, control
// characters and length are rejected.
func ValidateNodeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "node name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "node name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node name contains invalid control characters")
		}
	}
	return nil
}

// ValidateImageSource validates the src of a logo or placed image. Data
// URIs, http(s) URLs and local paths are accepted; local paths may not
// contain null bytes or control characters.
func ValidateImageSource(src string) error {
	if src == "" {
		return New(ErrCodeInvalidInput, "image source cannot be empty")
	}
	switch {
	case strings.HasPrefix(src, "data:image/"):
		return nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return nil
	case strings.Contains(src, "://"):
		return New(ErrCodeInvalidInput, "image URL must use http or https scheme")
	}
	return ValidatePath(src)
}

// ValidatePath validates a local file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
