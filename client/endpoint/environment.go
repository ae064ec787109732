package endpoint

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Environment is the server a client talks to.
type Environment struct {
	BaseURL string `validate:"required,url"`
	// AllowInsecureConnections disables TLS certificate verification.
	AllowInsecureConnections bool
}

// RouteURL joins the base URL and path by concatenation. The caller
// supplies any separator.
func (e Environment) RouteURL(path string) string {
	return e.BaseURL + path
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate reports whether the environment can route requests.
func (e Environment) Validate() error {
	validateOnce.Do(func() { validate = validator.New(validator.WithRequiredStructEnabled()) })

	if err := validate.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}

		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid environment: %s", strings.Join(fields, ", "))
	}

	return nil
}

// Signature is an authentication header attached to every request.
type Signature struct {
	Name  string
	Value string
}
