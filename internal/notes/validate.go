package notes

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notesd/internal/apperr"
	"github.com/starford/notesd/internal/models"
)

var (
	validType = validation.By(func(v any) error {
		if t, _ := v.(models.NoteType); !t.Valid() {
			return errors.New("must be one of text, checklist, table")
		}
		return nil
	})
	validColor = validation.By(func(v any) error {
		// Empty means none.
		if c, _ := v.(models.Color); c != "" && !c.Valid() {
			return errors.New("unknown color")
		}
		return nil
	})
)

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("notes: %w: %v", apperr.ErrInvalidArgument, err)
}

func validateCreate(t models.NoteType, title string, color models.Color) error {
	return invalid(validation.Errors{
		"type":  validation.Validate(t, validType),
		"color": validation.Validate(color, validColor),
	}.Filter())
}

func validateUpdate(u models.NoteUpdate) error {
	return invalid(validation.ValidateStruct(&u,
		validation.Field(&u.ID, validation.Required),
		validation.Field(&u.Type, validation.When(u.Type != "", validType)),
		validation.Field(&u.Color, validColor),
	))
}

func validateID(id string) error {
	return invalid(validation.Validate(id, validation.Required.Error("note id is required")))
}
