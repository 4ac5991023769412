package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"product-catalog-api/internal/domain"
)

const (
	maxPriceIntegerDigits  = 8
	maxPriceFractionDigits = 2
)

// ProductRequest is the create/update body. Update is a full replacement, so
// both operations share it.
type ProductRequest struct {
	Name     string           `json:"name" validate:"required,min=2,max=100"`
	Price    *decimal.Decimal `json:"price" validate:"required,price"`
	Category string           `json:"category" validate:"required,category"`
	Active   *bool            `json:"active"`
}

// ToDomain assumes the request passed validation.
func (r ProductRequest) ToDomain() domain.Product {
	category, _ := domain.ParseCategory(r.Category)
	return domain.NewProduct(strings.TrimSpace(r.Name), *r.Price, category, r.Active)
}

// ProductResponse is the JSON form of a product. Price is rendered with two
// decimals as a string to keep it exact.
type ProductResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:       p.Key(),
		Name:     p.Name,
		Price:    p.Price.StringFixed(maxPriceFractionDigits),
		Category: string(p.Category),
		Active:   p.Active,
	}
}

// PageInfo repeats the page metadata for clients that read it nested.
type PageInfo struct {
	Size           int     `json:"size"`
	Limit          int     `json:"limit"`
	HasNext        bool    `json:"hasNext"`
	HasPrevious    bool    `json:"hasPrevious"`
	NextCursor     *string `json:"nextCursor,omitempty"`
	PreviousCursor *string `json:"previousCursor,omitempty"`
}

type ProductPageResponse struct {
	Content        []ProductResponse `json:"content"`
	NextCursor     *string           `json:"nextCursor,omitempty"`
	PreviousCursor *string           `json:"previousCursor,omitempty"`
	HasNext        bool              `json:"hasNext"`
	HasPrevious    bool              `json:"hasPrevious"`
	Size           int               `json:"size"`
	Limit          int               `json:"limit"`
	PageInfo       PageInfo          `json:"pageInfo"`
}

func toProductPageResponse(page domain.PaginatedResult[domain.Product]) ProductPageResponse {
	mapped := domain.MapResult(page, toProductResponse)
	return ProductPageResponse{
		Content:        mapped.Content,
		NextCursor:     mapped.NextCursor,
		PreviousCursor: mapped.PreviousCursor,
		HasNext:        mapped.HasNext,
		HasPrevious:    mapped.HasPrevious,
		Size:           mapped.Size,
		Limit:          mapped.Limit,
		PageInfo: PageInfo{
			Size:           mapped.Size,
			Limit:          mapped.Limit,
			HasNext:        mapped.HasNext,
			HasPrevious:    mapped.HasPrevious,
			NextCursor:     mapped.NextCursor,
			PreviousCursor: mapped.PreviousCursor,
		},
	}
}

// newValidator registers the catalog specific tags and reports fields by
// their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Decimals are validated through their string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("price", validatePrice)
	_ = v.RegisterValidation("category", validateCategory)
	return v
}

func validatePrice(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil || !d.IsPositive() {
		return false
	}
	if -d.Exponent() > maxPriceFractionDigits && !d.Equal(d.Round(maxPriceFractionDigits)) {
		return false
	}
	return len(d.Truncate(0).Abs().String()) <= maxPriceIntegerDigits
}

func validateCategory(fl validator.FieldLevel) bool {
	_, err := domain.ParseCategory(fl.Field().String())
	return err == nil
}

func categoryNames() string {
	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// validateRequest runs the struct validation and converts failures into a
// *domain.ValidationError keyed by JSON field name.
func validateRequest(v *validator.Validate, req *ProductRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := domain.NewValidationError()
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "price":
		return fmt.Sprintf("must be greater than 0 with at most %d integer digits and %d decimal places", maxPriceIntegerDigits, maxPriceFractionDigits)
	case "category":
		return "must be one of " + categoryNames()
	default:
		return "is invalid"
	}
}
