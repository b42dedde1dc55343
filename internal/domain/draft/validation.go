package draft

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
)

// Validation is the validity snapshot of a draft. Errors is keyed by field path:
// "profile.<field>", "portfolios.<id>.<field>" and "images.<slot>".
type Validation struct {
	Errors  map[string]string `json:"errors"`
	IsValid bool              `json:"isValid"`
}

// Keys returns the failing field paths in a stable order, for checklists.
func (v Validation) Keys() []string {
	keys := make([]string, 0, len(v.Errors))
	for k := range v.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

func fieldErrors(s any, prefix string, out map[string]string) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[prefix] = err.Error()
		return
	}
	for _, fe := range verrs {
		out[prefix+"."+fe.Field()] = fmt.Sprintf("%s is required", fieldLabels[fe.Field()])
	}
}

func slotLabel(slot portfolio.Slot) string {
	switch slot {
	case portfolio.SlotBackground:
		return "Background image"
	case portfolio.SlotProfile:
		return "Profile image"
	}
	return string(slot)
}
