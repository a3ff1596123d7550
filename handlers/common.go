package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"reviewcms/database"
	"reviewcms/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const fallbackAvatar = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(fl.Field().String())
	})
}

// apiError is an error that already knows its HTTP status and message.
type apiError struct {
	code    int
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &apiError{code: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &apiError{code: http.StatusNotFound, message: fmt.Sprintf(format, args...)}
}

// fail maps err onto an error envelope. Unexpected errors are logged and
// reported as a generic 500.
func fail(c *gin.Context, op string, err error) {
	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		response.Error(c, apiErr.code, apiErr.message)
	case errors.Is(err, database.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, database.ErrDuplicate):
		response.Error(c, http.StatusBadRequest, "Resource already exists")
	default:
		log.Printf("❌ [%s] %v", op, err)
		response.Error(c, http.StatusInternalServerError, "Internal server error")
	}
}

// parseID reads an ObjectID path parameter. A malformed id cannot match
// any document, so it is reported as not found.
func parseID(c *gin.Context, param, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		return primitive.NilObjectID, notFound("%s not found", name)
	}
	return id, nil
}

// bindError turns a binding or validation failure into a readable 400.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequest("Invalid request body: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		case "slug":
			msgs = append(msgs, fmt.Sprintf("%s must be lowercase letters, digits and single hyphens", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return badRequest("%s", strings.Join(msgs, "; "))
}
