package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// struct-level rule: a single order must not reference the same inventory
	// item twice, otherwise restock-on-cancel double counts.
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	seen := map[string]bool{}
	for _, line := range req.Items {
		if line.ItemID == "" {
			continue
		}
		if seen[line.ItemID] {
			sl.ReportError(req.Items, "items", "Items", "unique_item_ids", line.ItemID)
			return
		}
		seen[line.ItemID] = true
	}
}

// FieldErrors flattens a validator error into the field -> messages map the
// workflows hand back to the presentation boundary.
func FieldErrors(err error) map[string][]string {
	out := map[string][]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			field := fieldName(fe)
			out[field] = append(out[field], messageFor(fe))
		}
		return out
	}
	out["request"] = append(out["request"], err.Error())
	return out
}

func fieldName(fe validatorv10.FieldError) string {
	// strip the leading struct name: "CreateOrderRequest.Customer.Email" -> "customer.email"
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	segments := strings.Split(ns, ".")
	for i, seg := range segments {
		if seg != "" {
			segments[i] = strings.ToLower(seg[:1]) + seg[1:]
		}
	}
	return strings.Join(segments, ".")
}

func messageFor(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind().String() == "slice" {
			return "must not be empty"
		}
		return "must be at least " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "unique_item_ids":
		return "must not reference the same item twice"
	default:
		return "is invalid"
	}
}

