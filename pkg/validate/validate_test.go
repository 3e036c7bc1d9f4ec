package validate_test

import (
	"testing"

	"github.com/Astemirdum/book-service/pkg/validate"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCustomValidator_Validate(t *testing.T) {
	t.Parallel()
	type req struct {
		Title  string `json:"title" validate:"required,max=5"`
		Author string `json:"author,omitempty" validate:"required"`
	}
	v := validate.NewCustomValidator()

	require.NoError(t, v.Validate(req{Title: "foo", Author: "bar"}))

	err := v.Validate(req{Title: "toolong"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	require.Equal(t, "title", verrs[0].Field())
	require.Equal(t, "max", verrs[0].Tag())
	require.Equal(t, "author", verrs[1].Field())
	require.Equal(t, "required", verrs[1].Tag())
}
