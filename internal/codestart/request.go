package codestart

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"go.eggybyte.com/codestart/internal/errors"
)

// ProjectRequest describes the project a caller wants generated.
type ProjectRequest struct {
	GroupID    string   `validate:"required,mavenid"`
	ArtifactID string   `validate:"required,mavenid"`
	Version    string   `validate:"required"`
	BuildTool  string   `validate:"required"`
	Language   string   `validate:"required"`
	Extensions []string `validate:"dive,required"`
	Platform   Platform
}

// MavenIDPattern matches group and artifact ids. The leading alphanumeric keeps
// "." and ".." out, since the artifact id names the project directory.
var MavenIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-.]*$`)

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("mavenid", func(fl validator.FieldLevel) bool {
		return MavenIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// WithDefaults returns a copy of r with empty version, build tool, language and platform filled in.
func (r ProjectRequest) WithDefaults() ProjectRequest {
	if r.Version == "" {
		r.Version = DefaultVersion
	}
	if r.BuildTool == "" {
		r.BuildTool = DefaultBuildTool
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Platform == (Platform{}) {
		r.Platform = DefaultPlatform
	}
	return r
}

// Validate checks the request's shape. Build tool, language and extension ids are
// checked later against the catalog by the resolver.
func (r ProjectRequest) Validate() error {
	err := requestValidator.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		b := errors.Build(errors.CodeInvalidRequest).WithOp("codestart.ValidateRequest")
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			b.WithDetail("field", fe.Namespace())
		}
		return b.WithMsg(strings.Join(msgs, "; ")).Err()
	}
	return errors.Wrap(errors.CodeInvalidRequest, "codestart.ValidateRequest", err)
}
