package apiclient

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"hubclient/internal/model"
)

var validate = validator.New()

// checkPayload runs declarative validation against a request struct.
// A failure here raises before any network call is attempted.
func checkPayload(v any) error {
	if err := validate.Struct(v); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			f := errs[0]
			return fmt.Errorf("%w: field %q fails rule %q", ErrValidation, f.Field(), f.Tag())
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func requireID(name, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, name)
	}
	if err := validate.Var(id, "uuid4"); err != nil {
		return fmt.Errorf("%w: %s must be a UUID", ErrValidation, name)
	}
	return nil
}

const (
	maxPollOptions = 10
	maxHashtags    = 30
	maxMentions    = 30
	maxValueLength = 10000
)

// checkContent validates the typed content union: enum membership,
// value bounds, and array length caps.
func checkContent(c model.Content) error {
	if !slices.Contains(model.ContentTypes, c.Type) {
		return fmt.Errorf("%w: unknown content type %q", ErrValidation, c.Type)
	}
	if len(c.Value) > maxValueLength {
		return fmt.Errorf("%w: content value exceeds %d characters", ErrValidation, maxValueLength)
	}
	if c.Type == model.ContentText && c.Value == "" && len(c.Metadata.Files) == 0 {
		return fmt.Errorf("%w: text content requires a value", ErrValidation)
	}
	if c.Type == model.ContentPoll && len(c.Metadata.PollOptions) < 2 {
		return fmt.Errorf("%w: poll requires at least two options", ErrValidation)
	}
	if len(c.Metadata.PollOptions) > maxPollOptions {
		return fmt.Errorf("%w: at most %d poll options", ErrValidation, maxPollOptions)
	}
	if len(c.Metadata.Hashtags) > maxHashtags {
		return fmt.Errorf("%w: at most %d hashtags", ErrValidation, maxHashtags)
	}
	if len(c.Metadata.Mentions) > maxMentions {
		return fmt.Errorf("%w: at most %d mentions", ErrValidation, maxMentions)
	}
	if c.Type == model.ContentEvent && c.Metadata.EventDetails == nil {
		return fmt.Errorf("%w: event content requires event details", ErrValidation)
	}
	return nil
}

func checkStatus(s model.TweetStatus) error {
	if !slices.Contains(model.TweetStatuses, s) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return nil
}
