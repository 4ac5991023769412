package api

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"product-catalog-api/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const defaultWebPageSize = 10

// WebHandler serves the server-rendered catalog UI under /web.
type WebHandler struct {
	products  ProductServicer
	validate  *validator.Validate
	templates *template.Template
}

// NewWebHandler parses the embedded templates.
func NewWebHandler(products ProductServicer) (*WebHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("api: failed to parse web templates: %w", err)
	}
	return &WebHandler{
		products:  products,
		validate:  newValidator(),
		templates: tmpl,
	}, nil
}

type pageView struct {
	Title   string
	Message string
	Error   string
}

type webProduct struct {
	ID           int64
	Name         string
	Price        string
	CategoryName string
	Active       bool
}

func toWebProduct(p domain.Product) webProduct {
	r := toProductResponse(p)
	return webProduct{
		ID:           r.ID,
		Name:         r.Name,
		Price:        r.Price,
		CategoryName: p.Category.DisplayName(),
		Active:       r.Active,
	}
}

type listFilter struct {
	Name     string
	Category string
	Active   string // "", "true" or "false"
}

type listView struct {
	pageView
	Products    []webProduct
	Categories  []domain.Category
	Filter      listFilter
	SortDir     string
	Size        int
	HasNext     bool
	HasPrevious bool
	NextURL     string
	FirstURL    string
}

type productForm struct {
	Name     string
	Price    string
	Category string
	Active   bool
}

type formView struct {
	pageView
	Action      string
	Form        productForm
	FieldErrors map[string][]string
	Categories  []domain.Category
}

type detailView struct {
	pageView
	Product webProduct
}

func flashFrom(r *http.Request) pageView {
	return pageView{Message: r.URL.Query().Get("msg"), Error: r.URL.Query().Get("err")}
}

func (h *WebHandler) render(w http.ResponseWriter, code int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("ERROR: Failed to render %s template: %v", name, err)
	}
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, key, message string) {
	http.Redirect(w, r, "/web/products?"+url.Values{key: {message}}.Encode(), http.StatusSeeOther)
}

func (h *WebHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()

	size, err := strconv.Atoi(qParams.Get("size"))
	if err != nil || size < domain.MinLimit || size > domain.MaxLimit {
		size = defaultWebPageSize
	}
	query, err := domain.NewPaginationQuery(optionalParam(qParams, "cursor"), size, qParams.Get("sortBy"), qParams.Get("sortDir"))
	if err != nil {
		query, _ = domain.NewPaginationQuery(nil, size, "", "")
	}
	view := listView{
		pageView:   flashFrom(r),
		Categories: domain.Categories(),
		Filter:     listFilter{Name: qParams.Get("name"), Category: strings.ToUpper(qParams.Get("category"))},
		SortDir:    query.SortDir,
		Size:       size,
	}
	view.Title = "Products"

	var active *bool
	if raw := qParams.Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			rejected := invalidParam("active", raw)
			log.Printf("WARN: Web ListProducts rejected: %v", rejected)
			view.Error = rejected.Error()
			view.Products = []webProduct{}
			h.render(w, http.StatusBadRequest, "list", view)
			return
		}
		active = &parsed
		view.Filter.Active = strconv.FormatBool(parsed)
	}
	filter := domain.NewProductFilter(optionalParam(qParams, "category"), optionalParam(qParams, "name"), active)

	page, err := h.products.GetAllActive(r.Context(), query, filter)
	if err != nil {
		code, message := statusFor(err, "Failed to load products")
		if code >= http.StatusInternalServerError {
			log.Printf("ERROR: Web ListProducts failed: %v", err)
		}
		view.Error = message
		view.Products = []webProduct{}
		h.render(w, code, "list", view)
		return
	}

	view.Products = domain.MapResult(page, toWebProduct).Content
	view.HasNext = page.HasNext
	view.HasPrevious = page.HasPrevious
	navigation := url.Values{"size": {strconv.Itoa(size)}, "sortDir": {query.SortDir}}
	if view.Filter.Name != "" {
		navigation.Set("name", view.Filter.Name)
	}
	if view.Filter.Category != "" {
		navigation.Set("category", view.Filter.Category)
	}
	if view.Filter.Active != "" {
		navigation.Set("active", view.Filter.Active)
	}
	view.FirstURL = "/web/products?" + navigation.Encode()
	if page.NextCursor != nil {
		navigation.Set("cursor", *page.NextCursor)
		view.NextURL = "/web/products?" + navigation.Encode()
	}
	h.render(w, http.StatusOK, "list", view)
}

func (h *WebHandler) NewProductForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "form", formView{
		pageView:   pageView{Title: "New product"},
		Action:     "/web/products",
		Form:       productForm{Active: true},
		Categories: domain.Categories(),
	})
}

// parseForm validates a posted product form. On failure it returns the
// field errors to redisplay.
func (h *WebHandler) parseForm(r *http.Request) (productForm, *domain.Product, map[string][]string) {
	if err := r.ParseForm(); err != nil {
		return productForm{}, nil, map[string][]string{"form": {"could not be read"}}
	}
	form := productForm{
		Name:     r.PostForm.Get("name"),
		Price:    strings.TrimSpace(r.PostForm.Get("price")),
		Category: strings.ToUpper(strings.TrimSpace(r.PostForm.Get("category"))),
		Active:   r.PostForm.Get("active") != "",
	}

	req := ProductRequest{Name: form.Name, Category: form.Category, Active: &form.Active}
	priceErr := ""
	if form.Price != "" {
		price, err := decimal.NewFromString(form.Price)
		if err != nil {
			priceErr = "must be a number"
		} else {
			req.Price = &price
		}
	}

	fieldErrs := map[string][]string{}
	if err := validateRequest(h.validate, &req); err != nil {
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			return form, nil, map[string][]string{"form": {err.Error()}}
		}
		fieldErrs = verr.Fields
	}
	if priceErr != "" {
		fieldErrs["price"] = []string{priceErr}
	}
	if len(fieldErrs) > 0 {
		return form, nil, fieldErrs
	}
	product := req.ToDomain()
	return form, &product, nil
}

func (h *WebHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	form, product, fieldErrs := h.parseForm(r)
	view := formView{
		pageView:    pageView{Title: "New product"},
		Action:      "/web/products",
		Form:        form,
		FieldErrors: fieldErrs,
		Categories:  domain.Categories(),
	}
	if product == nil {
		h.render(w, http.StatusBadRequest, "form", view)
		return
	}

	if _, err := h.products.Create(r.Context(), *product); err != nil {
		code, message := statusFor(err, "Error creating product")
		log.Printf("ERROR: Web CreateProduct failed: %v", err)
		view.Error = message
		h.render(w, code, "form", view)
		return
	}
	redirectWithFlash(w, r, "msg", "Product created successfully!")
}

func (h *WebHandler) ShowProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		redirectWithFlash(w, r, "err", "Product not found")
		return
	}
	product, err := h.products.GetActiveByID(r.Context(), productID)
	if err != nil {
		log.Printf("WARN: Web ShowProduct %d: %v", productID, err)
		redirectWithFlash(w, r, "err", "Product not found")
		return
	}

	wp := toWebProduct(*product)
	h.render(w, http.StatusOK, "detail", detailView{pageView: pageView{Title: wp.Name}, Product: wp})
}

func (h *WebHandler) EditProductForm(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		redirectWithFlash(w, r, "err", "Product not found")
		return
	}
	product, err := h.products.GetActiveByID(r.Context(), productID)
	if err != nil {
		log.Printf("WARN: Web EditProductForm %d: %v", productID, err)
		redirectWithFlash(w, r, "err", "Product not found")
		return
	}

	h.render(w, http.StatusOK, "form", formView{
		pageView: pageView{Title: "Edit product"},
		Action:   fmt.Sprintf("/web/products/%d", productID),
		Form: productForm{
			Name:     product.Name,
			Price:    product.Price.StringFixed(maxPriceFractionDigits),
			Category: string(product.Category),
			Active:   product.Active,
		},
		Categories: domain.Categories(),
	})
}

func (h *WebHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		redirectWithFlash(w, r, "err", "Product not found")
		return
	}
	form, product, fieldErrs := h.parseForm(r)
	view := formView{
		pageView:    pageView{Title: "Edit product"},
		Action:      fmt.Sprintf("/web/products/%d", productID),
		Form:        form,
		FieldErrors: fieldErrs,
		Categories:  domain.Categories(),
	}
	if product == nil {
		h.render(w, http.StatusBadRequest, "form", view)
		return
	}

	if _, err := h.products.Update(r.Context(), productID, *product); err != nil {
		code, message := statusFor(err, "Error updating product")
		log.Printf("ERROR: Web UpdateProduct %d failed: %v", productID, err)
		view.Error = message
		h.render(w, code, "form", view)
		return
	}
	redirectWithFlash(w, r, "msg", "Product updated successfully!")
}

func (h *WebHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		redirectWithFlash(w, r, "err", "Product not found")
		return
	}
	if err := h.products.Deactivate(r.Context(), productID); err != nil {
		_, message := statusFor(err, "Error deactivating product")
		log.Printf("WARN: Web DeleteProduct %d: %v", productID, err)
		redirectWithFlash(w, r, "err", message)
		return
	}
	redirectWithFlash(w, r, "msg", "Product deactivated successfully!")
}

// RegisterRoutes mounts the UI under /web.
func (h *WebHandler) RegisterRoutes(r chi.Router) {
	r.Route("/web", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/web/products", http.StatusFound)
		})
		r.Get("/products", h.ListProducts)
		r.Post("/products", h.CreateProduct)
		r.Get("/products/new", h.NewProductForm)
		r.Get("/products/{productId}", h.ShowProduct)
		r.Get("/products/{productId}/edit", h.EditProductForm)
		r.Post("/products/{productId}", h.UpdateProduct)
		r.Post("/products/{productId}/delete", h.DeleteProduct)
	})
}
