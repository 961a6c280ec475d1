package shipping

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/tournevent/shipbridge/pkg/shipper"
)

const clockLayout = "15:04"

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
	v.RegisterStructValidation(shippingRequestLevel, shipper.ShippingRequest{})
	v.RegisterStructValidation(pickupWindowLevel, SchedulePickupInput{})
	return v
}

// shippingRequestLevel requires both parties once defaults are applied.
func shippingRequestLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(shipper.ShippingRequest)
	if req.Shipper.IsZero() {
		sl.ReportError(req.Shipper, "shipper", "Shipper", "required", "")
	}
	if req.Recipient.IsZero() {
		sl.ReportError(req.Recipient, "recipient", "Recipient", "required", "")
	}
}

// pickupWindowLevel requires closeTime to be later than readyTime.
func pickupWindowLevel(sl validator.StructLevel) {
	in := sl.Current().Interface().(SchedulePickupInput)
	ready, errReady := time.Parse(clockLayout, in.ReadyTime)
	closing, errClose := time.Parse(clockLayout, in.CloseTime)
	if errReady != nil || errClose != nil {
		return
	}
	if !closing.After(ready) {
		sl.ReportError(in.CloseTime, "closeTime", "CloseTime", "gtfield", "readyTime")
	}
}

// check validates v and reports every violation as ErrInvalidRequest.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return invalid("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Namespace()
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	switch fe.Tag() {
	case "required", "notblank":
		return name + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s entry", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be below %s", name, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must use the %s layout", name, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", name, fe.Tag())
	}
}
