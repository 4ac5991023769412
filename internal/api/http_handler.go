package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"product-catalog-api/internal/domain"
)

// HTTPHandler holds dependencies for the JSON REST handlers.
type HTTPHandler struct {
	products ProductServicer
	validate *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(products ProductServicer) *HTTPHandler {
	return &HTTPHandler{
		products: products,
		validate: newValidator(),
	}
}

func productIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeProductRequest writes the error response itself and reports whether
// the handler may continue.
func (h *HTTPHandler) decodeProductRequest(w http.ResponseWriter, r *http.Request, op string) (ProductRequest, bool) {
	defer r.Body.Close()

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return req, false
	}
	if err := validateRequest(h.validate, &req); err != nil {
		respondWithServiceError(w, err, op, "Failed to validate request")
		return req, false
	}
	return req, true
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProductRequest(w, r, "CreateProduct")
	if !ok {
		return
	}

	created, err := h.products.Create(r.Context(), req.ToDomain())
	if err != nil {
		respondWithServiceError(w, err, "CreateProduct", "Failed to create product")
		return
	}
	respondWithJSON(w, http.StatusCreated, toProductResponse(*created))
}

// parseListParams reads the query string of the list endpoint. Bad limits
// fall back to the default; bad sort options and flags are rejected.
func parseListParams(r *http.Request) (domain.PaginationQuery, domain.ProductFilter, error) {
	qParams := r.URL.Query()

	limit, err := strconv.Atoi(qParams.Get("limit"))
	if err != nil || limit < domain.MinLimit || limit > domain.MaxLimit {
		limit = domain.DefaultLimit
	}

	query, err := domain.NewPaginationQuery(optionalParam(qParams, "cursor"), limit, qParams.Get("sortBy"), qParams.Get("sortDir"))
	if err != nil {
		return domain.PaginationQuery{}, domain.ProductFilter{}, err
	}

	var active *bool
	if raw := qParams.Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.PaginationQuery{}, domain.ProductFilter{}, invalidParam("active", raw)
		}
		active = &parsed
	}

	filter := domain.NewProductFilter(optionalParam(qParams, "category"), optionalParam(qParams, "name"), active)
	return query, filter, nil
}

func optionalParam(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query, filter, err := parseListParams(r)
	if err != nil {
		respondWithServiceError(w, err, "ListProducts", "Failed to list products")
		return
	}

	page, err := h.products.GetAllActive(r.Context(), query, filter)
	if err != nil {
		respondWithServiceError(w, err, "ListProducts", "Failed to retrieve products")
		return
	}
	respondWithJSON(w, http.StatusOK, toProductPageResponse(page))
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.products.GetActiveByID(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, err, "GetProductByID", "Failed to retrieve product")
		return
	}
	respondWithJSON(w, http.StatusOK, toProductResponse(*product))
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	req, ok := h.decodeProductRequest(w, r, "UpdateProduct")
	if !ok {
		return
	}

	updated, err := h.products.Update(r.Context(), productID, req.ToDomain())
	if err != nil {
		respondWithServiceError(w, err, "UpdateProduct", "Failed to update product")
		return
	}
	respondWithJSON(w, http.StatusOK, toProductResponse(*updated))
}

// DeleteProduct deactivates the product. Inactive products can be deleted
// again without error.
func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if _, err := h.products.GetByID(r.Context(), productID); err != nil {
		respondWithServiceError(w, err, "DeleteProduct", "Failed to delete product")
		return
	}
	if err := h.products.Deactivate(r.Context(), productID); err != nil {
		respondWithServiceError(w, err, "DeleteProduct", "Failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes sets up the REST routes for the service.
// POST and PUT bodies must be JSON; other content types get 415.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	jsonOnly := middleware.AllowContentType("application/json")

	r.Route("/api/v1/products", func(r chi.Router) {
		r.With(jsonOnly).Post("/", h.CreateProduct) // POST /api/v1/products
		r.Get("/", h.ListProducts)                  // GET /api/v1/products

		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)               // GET /api/v1/products/{productId}
			r.With(jsonOnly).Put("/", h.UpdateProduct) // PUT /api/v1/products/{productId}
			r.Delete("/", h.DeleteProduct)             // DELETE /api/v1/products/{productId}
		})
	})
}
