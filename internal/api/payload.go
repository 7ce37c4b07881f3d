package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/jellydator/validation"
)

// formValue accepts JSON numbers and strings interchangeably so JSON and
// form-encoded bodies share one request shape.
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = formValue(s)
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "null" {
		raw = ""
	}
	*v = formValue(raw)
	return nil
}

// createUserRequest is the payload for POST /api/users.
type createUserRequest struct {
	Username string `json:"username"`
}

// Validate ensures request correctness.
func (r createUserRequest) Validate() error {
	return validation.Validate(r.Username,
		validation.Required.Error("username is required"),
	)
}

// logExerciseRequest is the payload for POST /api/users/:id/exercises. The
// user id comes from the path, not the body.
type logExerciseRequest struct {
	UserID      string    `json:"-"`
	Description string    `json:"description"`
	Duration    formValue `json:"duration"`
	Date        string    `json:"date"`
}

// Validate ensures request correctness. The literal "0" user id is rejected
// the same way as a missing one.
func (r logExerciseRequest) Validate() error {
	if err := validation.Validate(r.UserID,
		validation.Required.Error("_id is required"),
		validation.NotIn("0").Error("_id is required"),
	); err != nil {
		return err
	}
	if err := validation.Validate(r.Description,
		validation.Required.Error("description is required"),
	); err != nil {
		return err
	}
	return validation.Validate(string(r.Duration),
		validation.Required.Error("duration is not a number"),
		validation.By(durationIsNumber),
	)
}

// durationIsNumber mirrors the presence/type check only: zero and
// non-numeric values fail here, while out-of-range values are left for the
// storage constraint.
func durationIsNumber(value interface{}) error {
	raw, _ := value.(string)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return errors.New("duration is not a number")
	}
	return nil
}
