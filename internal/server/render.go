package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/kutbudev/cardboard/internal/errors"
)

// HandlerFunc returns the status and body of a successful response. A nil
// body sends the status alone.
type HandlerFunc func(*gin.Context) (int, interface{}, error)

const internalErrorDetail = "Internal server error."

// JSONFormatter renders the result of next, or its error.
func JSONFormatter(next HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, res, err := next(c)
		if err != nil {
			abortWithError(c, err)
			return
		}

		if res == nil {
			c.Status(code)
			return
		}
		c.JSON(code, res)
	}
}

// abortWithError renders err: field errors as a map, coded errors as a
// detail message and anything else as a logged 500.
func abortWithError(c *gin.Context, err error) {
	var verr errors.ValidationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, verr)
		return
	}

	var coded errors.Error
	if errors.As(err, &coded) && coded.Code() < http.StatusInternalServerError {
		if coded.Code() == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", `Bearer realm="api"`)
		}
		c.AbortWithStatusJSON(coded.Code(), gin.H{"detail": coded.Message()})
		return
	}

	zerolog.Ctx(c.Request.Context()).Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": internalErrorDetail})
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json name.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON decodes the request body into obj and validates it. An empty
// body is validated as an empty object.
func bindJSON(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindJSON(obj)
	if stderrors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err != nil {
		return bindError(err)
	}
	return nil
}

// bindError turns a decoding or validation failure into a client error.
func bindError(err error) error {
	var (
		verrs  validator.ValidationErrors
		syntax *json.SyntaxError
		typed  *json.UnmarshalTypeError
	)

	switch {
	case stderrors.As(err, &verrs):
		out := errors.ValidationError{}
		for _, fe := range verrs {
			out.Add(fe.Field(), fieldMessage(fe))
		}
		return out
	case stderrors.As(err, &typed):
		if typed.Field == "" {
			return errors.ValidationError{
				"non_field_errors": {fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", jsonKind(typed.Value))},
			}
		}
		return errors.ValidationError{typed.Field: {"Incorrect type."}}
	case stderrors.As(err, &syntax):
		return errors.New("JSON parse error - "+syntax.Error(), errors.BadRequest())
	default:
		return errors.New("JSON parse error - "+err.Error(), errors.BadRequest())
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return errors.RequiredMessage
	case "notblank":
		return errors.BlankMessage
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	default:
		return "Invalid value."
	}
}

// jsonKind names a JSON value kind the way clients see it in messages.
func jsonKind(value string) string {
	switch value {
	case "array":
		return "list"
	case "number":
		return "int"
	case "bool":
		return "bool"
	case "string":
		return "str"
	default:
		return value
	}
}

// requestURL is the absolute URL of the current request, with the scheme
// set by ForwardedScheme.
func requestURL(c *gin.Context) *url.URL {
	scheme := c.GetString(schemeKey)
	if scheme == "" {
		scheme = "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
	}

	u := *c.Request.URL
	u.Scheme = scheme
	u.Host = c.Request.Host
	return &u
}

// pathID parses the :id route parameter. Anything that is not an
// identifier cannot name a row, so it is a 404.
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 63)
	if err != nil || id == 0 {
		return 0, errors.ErrNotFound
	}
	return uint(id), nil
}
