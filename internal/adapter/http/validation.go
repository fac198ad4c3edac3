package http

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string        `json:"error"`
	Details []FieldError  `json:"details,omitempty"`
	Stock   *StockBlocker `json:"stock,omitempty"`
	Item    string        `json:"item_name,omitempty"`
}

// StockBlocker names the type that could not cover a request.
type StockBlocker struct {
	TypeID    uint64 `json:"type_id"`
	TypeName  string `json:"type_name"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterStructValidation(submitDates, submitReq{})
	v.RegisterStructValidation(stockCounts, stockReq{})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// submitDates rejects an expected return day before the borrow day. Format
// errors are left to the field tags.
func submitDates(sl validator.StructLevel) {
	r := sl.Current().Interface().(submitReq)
	from, err1 := time.Parse(dateLayout, r.BorrowDate)
	to, err2 := time.Parse(dateLayout, r.ExpectedReturnDate)
	if err1 == nil && err2 == nil && to.Before(from) {
		sl.ReportError(r.ExpectedReturnDate, "expected_return_date", "ExpectedReturnDate", "returnafterborrow", "")
	}
}

func stockCounts(sl validator.StructLevel) {
	r := sl.Current().Interface().(stockReq)
	if r.Damaged+r.Lost > r.Total {
		sl.ReportError(r.Total, "total_stock", "Total", "covers", "")
	}
}

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "notblank":
			out = append(out, FieldError{Field: field, Message: "must not be blank"})
		case "oneof":
			out = append(out, FieldError{Field: field, Message: "must be one of: " + e.Param()})
		case "datetime":
			out = append(out, FieldError{Field: field, Message: "must be a date formatted " + e.Param()})
		case "returnafterborrow":
			out = append(out, FieldError{Field: field, Message: "must not be before borrow_date"})
		case "covers":
			out = append(out, FieldError{Field: field, Message: "must be at least damaged_stock + lost_stock"})
		case "min":
			out = append(out, FieldError{Field: field, Message: "must have at least " + e.Param() + " entries"})
		case "max":
			out = append(out, FieldError{Field: field, Message: "must be at most " + e.Param() + " characters"})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
