package greengrass

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks option structs against their validation tags.
// Failures wrap ErrInvalidParameter.
func Validate(op string, v interface{}) error {
	if err := validatorInstance().Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return &SDKError{Op: op, Err: fmt.Errorf("%w: %s", ErrInvalidParameter, strings.Join(fields, ", "))}
		}
		return &SDKError{Op: op, Err: fmt.Errorf("%w: %v", ErrInvalidParameter, err)}
	}
	return nil
}

// ValidateTopic checks a publish topic
func ValidateTopic(topic string) error {
	if topic == "" || strings.ContainsAny(topic, "+#") || len(topic) > 256 {
		return &SDKError{Op: "Publish", Err: fmt.Errorf("%w: topic %q", ErrInvalidParameter, topic)}
	}
	return nil
}

// ValidateThingName checks a shadow thing name
func ValidateThingName(op, thingName string) error {
	if thingName == "" || len(thingName) > 128 || strings.ContainsAny(thingName, "/#+") {
		return &SDKError{Op: op, Err: fmt.Errorf("%w: thing name %q", ErrInvalidParameter, thingName)}
	}
	return nil
}
