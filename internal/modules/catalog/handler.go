package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct {
	service Service
	images  *ImageStore
}

func NewHandler(service Service, images *ImageStore) *Handler {
	return &Handler{service: service, images: images}
}

// RegisterRoutes mounts public reads and, behind adminOnly, the mutating CRUD.
func (h *Handler) RegisterRoutes(r *chi.Mux, adminOnly func(http.Handler) http.Handler) {
	r.Get("/api/products", h.listProducts)
	r.Get("/api/products/{id}", h.getProduct)

	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		// legacy create route still used by the old admin page
		r.Post("/api/products", h.createProduct)

		r.Get("/api/admin/products", h.listProducts)
		r.Get("/api/admin/products/{id}", h.getProduct)
		r.Post("/api/admin/products", h.adminCreateProduct)
		r.Put("/api/admin/products/{id}", h.updateProduct)
		r.Delete("/api/admin/products/{id}", h.deleteProduct)
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch products"})
		return
	}
	respond(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
			return
		}
		respond(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseCreateForm(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseCreateForm(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "product": p})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, err := h.parseUpdateForm(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
			return
		}
		respond(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "product": p})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil && !errors.Is(err, ErrNotFound) {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}
	respond(w, http.StatusOK, map[string]bool{"success": true})
}

// ── Form parsing ──────────────────────────────────────────────────────────────

const maxUploadBytes = 10 << 20

func (h *Handler) parseCreateForm(r *http.Request) (CreateProductRequest, error) {
	var req CreateProductRequest
	if err := parseForm(r); err != nil {
		return req, err
	}

	req.Name = r.FormValue("name")
	req.Description = r.FormValue("description")
	if req.Name == "" {
		return req, errors.New("name is required")
	}

	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		return req, errors.New("invalid price")
	}
	req.Price = price

	if v := r.FormValue("stock"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("invalid stock")
		}
		req.Stock = n
	}

	image, err := h.imageFromRequest(r)
	if err != nil {
		return req, err
	}
	if image != nil {
		req.Image = *image
	}
	return req, nil
}

func (h *Handler) parseUpdateForm(r *http.Request) (UpdateProductRequest, error) {
	var req UpdateProductRequest
	if err := parseForm(r); err != nil {
		return req, err
	}

	if v := r.FormValue("name"); v != "" {
		req.Name = &v
	}
	if v := r.FormValue("description"); v != "" {
		req.Description = &v
	}
	if v := r.FormValue("price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return req, errors.New("invalid price")
		}
		req.Price = &price
	}
	if v := r.FormValue("stock"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, errors.New("invalid stock")
		}
		req.Stock = &n
	}

	image, err := h.imageFromRequest(r)
	if err != nil {
		return req, err
	}
	req.Image = image
	return req, nil
}

// imageFromRequest resolves the product image: an explicit imageUrl form
// value wins over an uploaded file; nil means "leave unchanged".
func (h *Handler) imageFromRequest(r *http.Request) (*string, error) {
	if v := r.FormValue("imageUrl"); v != "" {
		return &v, nil
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		// no file attached (or not a multipart request)
		return nil, nil
	}
	defer file.Close()

	path, err := h.images.Save(file, header)
	if err != nil {
		return nil, err
	}
	return &path, nil
}

func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && err != http.ErrNotMultipart {
		return errors.New("invalid form data")
	}
	return nil
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
