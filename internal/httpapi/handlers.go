package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/service"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type handler struct {
	catalog Catalog
	carts   Carts
	logger  *zap.Logger
}

func (h *handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// QueryProducts handles GET /api/products?limit=&page=&sort=&query=
func (h *handler) QueryProducts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := domain.ProductQuery{
		Filter: domain.ParseFilter(params.Get("query")),
		Sort:   domain.ParseSort(params.Get("sort")),
		Page:   atoiOrZero(params.Get("page")),
		Limit:  atoiOrZero(params.Get("limit")),
	}

	result, err := h.catalog.Query(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetByID(r.Context(), mux.Vars(r)["pid"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}

	p, err := h.catalog.Create(r.Context(), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}

	p, err := h.catalog.Update(r.Context(), mux.Vars(r)["pid"], payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	pid := mux.Vars(r)["pid"]

	removed, err := h.catalog.Delete(r.Context(), pid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !removed {
		WriteJSONError(w, http.StatusNotFound, "not found", "product["+pid+"]: not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Create(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, cart)
}

func (h *handler) ListCarts(w http.ResponseWriter, r *http.Request) {
	carts, err := h.carts.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, carts)
}

// GetCart returns the cart with every line's product attached.
func (h *handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Populate(r.Context(), mux.Vars(r)["cid"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// AddLine handles POST /api/carts/{cid}/products/{pid}. The body is optional;
// a missing or unusable quantity adds one unit.
func (h *handler) AddLine(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	cart, err := h.carts.AddLine(r.Context(), vars["cid"], vars["pid"], service.CoerceQuantity(payload["quantity"]))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, cart)
}

func (h *handler) SetLineQuantity(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}

	quantity, err := cast.ToIntE(payload["quantity"])
	if err != nil || payload["quantity"] == nil {
		h.writeError(w, r, domain.NewValidationError("quantity", "must be an integer"))
		return
	}

	vars := mux.Vars(r)
	cart, err := h.carts.SetLineQuantity(r.Context(), vars["cid"], vars["pid"], quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

func (h *handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	cart, err := h.carts.RemoveLine(r.Context(), vars["cid"], vars["pid"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

type replaceLinesRequest struct {
	Products []domain.CartLine `json:"products"`
}

func (h *handler) ReplaceLines(w http.ResponseWriter, r *http.Request) {
	var req replaceLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}

	cart, err := h.carts.ReplaceLines(r.Context(), mux.Vars(r)["cid"], req.Products)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

func (h *handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Clear(r.Context(), mux.Vars(r)["cid"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// decodePayload reads a JSON object body. An empty body is an empty payload.
func (h *handler) decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	payload := map[string]any{}

	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil && !errors.Is(err, io.EOF) {
		WriteJSONError(w, http.StatusBadRequest, "invalid json", err.Error())
		return nil, false
	}
	if payload == nil {
		payload = map[string]any{}
	}

	return payload, true
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
