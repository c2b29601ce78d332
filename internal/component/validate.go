package component

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/woud420/kickstart-sub000/internal/errs"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the structural requirements of a request: a known kind,
// a root, non-empty extension tags and a name for kinds that need one.
func (r Request) Validate() error {
	if err := validatorInstance().Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return errs.New(errs.KindValidation, "component.Validate",
				"%s: invalid fields: %s", r.Label(), strings.Join(fields, ", "))
		}
		return errs.Wrap(errs.KindValidation, "component.Validate", err, "%s", r.Label())
	}
	if !r.Kind.Valid() {
		return errs.New(errs.KindValidation, "component.Validate", "unknown kind %q", r.Kind)
	}
	if r.Kind.RequiresName() && strings.TrimSpace(r.Name) == "" {
		return errs.New(errs.KindValidation, "component.Validate", "%s: name is required", r.Label())
	}
	return nil
}
