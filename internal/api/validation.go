package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNameOnce sync.Once

// useJSONFieldNames 让校验错误使用 JSON 字段名而不是 Go 字段名。
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindJSON 解析请求体并一次性报告所有字段错误；失败时已写出 400 响应。
func bindJSON(c *gin.Context, dst any) bool {
	useJSONFieldNames()

	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		ValidationFailed(c, fieldErrors(verrs))
		return false
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var fmtErr *formatError
	switch {
	case errors.As(err, &fmtErr):
		ValidationFailed(c, []FieldError{{Field: fmtErr.field, Message: fmtErr.message}})
	case errors.Is(err, io.EOF):
		BadRequest(c, "Request body is required")
	case errors.As(err, &syntaxErr):
		BadRequest(c, "Malformed JSON")
	case errors.As(err, &typeErr):
		ValidationFailed(c, []FieldError{{Field: typeErr.Field, Message: fmt.Sprintf("%s has the wrong type", typeErr.Field)}})
	default:
		BadRequest(c, "Invalid request body")
	}
	return false
}

func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return out
}

// fieldPath 去掉顶层结构体名，例如 projectRequest.links[0].url -> links[0].url。
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	name := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", name)
	case "url", "http_url":
		return name + " must be a valid URL"
	case "email":
		return name + " must be a valid email address"
	default:
		return name + " is invalid"
	}
}
