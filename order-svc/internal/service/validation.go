package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"quiosco/order-svc/internal/domain"

	"github.com/go-playground/validator/v10"
)

const (
	msgNameRequired  = "Tu nombre es obligatorio"
	msgPhoneRequired = "El teléfono es obligatorio"
	msgPhoneFormat   = "El teléfono debe tener el formato: 0412-1234567 (solo operadoras: 0412, 0414, 0416, 0424, 0426)"
	msgTotal         = "Hay errores en la orden"
	msgOrderRequired = "Los productos de la orden son obligatorios"
	msgInvalidJSON   = "El pedido no es un JSON válido"
)

var phonePattern = regexp.MustCompile(`^(0412|0414|0416|0424|0426)-\d{7}$`)

// ValidPhone reports whether phone is a Venezuelan mobile number like 0412-1234567.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// Pointer fields distinguish "missing" from a zero value; required on a
// non-nil pointer only checks presence.
type orderSchema struct {
	Name  string           `json:"name" validate:"required"`
	Phone string           `json:"phone" validate:"required,vephone"`
	Total *float64         `json:"total" validate:"required,gte=1"`
	Order []lineItemSchema `json:"order" validate:"required,dive"`
}

type lineItemSchema struct {
	ID       *int     `json:"id" validate:"required"`
	Name     *string  `json:"name" validate:"required"`
	Price    *float64 `json:"price" validate:"required"`
	Quantity *int     `json:"quantity" validate:"required,gte=1"`
	Subtotal *float64 `json:"subtotal" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("vephone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateOrder checks an arbitrary checkout payload. It never touches storage.
// Either the typed input or a non-empty list of issues is meaningful.
func ValidateOrder(raw []byte) (domain.OrderInput, []domain.Issue) {
	var schema orderSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return domain.OrderInput{}, []domain.Issue{decodeIssue(err)}
	}

	if err := validate.Struct(schema); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return domain.OrderInput{}, []domain.Issue{{Message: msgTotal}}
		}
		issues := make([]domain.Issue, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			issues = append(issues, fieldIssue(fe))
		}
		return domain.OrderInput{}, issues
	}

	input := domain.OrderInput{
		Name:  schema.Name,
		Phone: schema.Phone,
		Total: *schema.Total,
		Order: make([]domain.LineItem, 0, len(schema.Order)),
	}
	for _, item := range schema.Order {
		input.Order = append(input.Order, domain.LineItem{
			ID:       *item.ID,
			Name:     *item.Name,
			Price:    *item.Price,
			Quantity: *item.Quantity,
			Subtotal: *item.Subtotal,
		})
	}
	return input, nil
}

func decodeIssue(err error) domain.Issue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return domain.Issue{Message: msgInvalidJSON}
		}
		return domain.Issue{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("Se esperaba un valor de tipo %s", typeErr.Type.Kind()),
		}
	}
	return domain.Issue{Message: msgInvalidJSON}
}

func fieldIssue(fe validator.FieldError) domain.Issue {
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}

	switch {
	case path == "name":
		return domain.Issue{Path: path, Message: msgNameRequired}
	case path == "phone" && fe.Tag() == "required":
		return domain.Issue{Path: path, Message: msgPhoneRequired}
	case path == "phone":
		return domain.Issue{Path: path, Message: msgPhoneFormat}
	case path == "total":
		return domain.Issue{Path: path, Message: msgTotal}
	case path == "order":
		return domain.Issue{Path: path, Message: msgOrderRequired}
	case fe.Tag() == "gte":
		return domain.Issue{Path: path, Message: "La cantidad debe ser al menos 1"}
	default:
		return domain.Issue{Path: path, Message: "El campo " + fe.Field() + " es obligatorio"}
	}
}
