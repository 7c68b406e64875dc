package catalog

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/httpx"
)

type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := ParseProductQuery(r.URL.Query())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product query")
		return
	}

	page, err := h.svc.ListProducts(r.Context(), q)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to list products")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, page)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product id")
		return
	}

	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to get product", "product_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, product)
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product body")
		return
	}

	product, err := h.svc.CreateProduct(r.Context(), in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to create product")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, product)
}

func (h *Handler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product id")
		return
	}

	var in ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product body")
		return
	}

	product, err := h.svc.UpdateProduct(r.Context(), id, in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to update product", "product_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, product)
}

func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product id")
		return
	}

	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to delete product", "product_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setPromotionsRequest struct {
	Promotions []int64 `json:"promotions"`
}

func (h *Handler) HandleSetPromotions(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product id")
		return
	}

	var req setPromotionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid promotions body")
		return
	}

	product, err := h.svc.SetPromotions(r.Context(), id, req.Promotions)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to set promotions", "product_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, product)
}

type adjustInventoryRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) HandleAdjustInventory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product id")
		return
	}

	var req adjustInventoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid inventory body")
		return
	}

	product, err := h.svc.AdjustInventory(r.Context(), id, req.Delta)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to adjust inventory", "product_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, product)
}

func (h *Handler) HandleLowInventory(w http.ResponseWriter, r *http.Request) {
	threshold, err := httpx.QueryInt(r, "below", DefaultLowInventoryThreshold)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid threshold")
		return
	}

	products, err := h.svc.LowInventory(r.Context(), threshold)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to list low inventory")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, products)
}

func (h *Handler) HandleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.svc.ListCollections(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to list collections")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, collections)
}

func (h *Handler) HandleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid collection id")
		return
	}

	collection, err := h.svc.GetCollection(r.Context(), id)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to get collection", "collection_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, collection)
}

func (h *Handler) HandleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var in CollectionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid collection body")
		return
	}

	collection, err := h.svc.CreateCollection(r.Context(), in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to create collection")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, collection)
}

func (h *Handler) HandleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid collection id")
		return
	}

	var in CollectionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid collection body")
		return
	}

	collection, err := h.svc.UpdateCollection(r.Context(), id, in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to update collection", "collection_id", id)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, collection)
}

func (h *Handler) HandleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid collection id")
		return
	}

	if err := h.svc.DeleteCollection(r.Context(), id); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to delete collection", "collection_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListPromotions(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.svc.ListPromotions(r.Context())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to list promotions")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, promotions)
}

type createPromotionRequest struct {
	Description string  `json:"description"`
	Discount    float64 `json:"discount"`
}

func (h *Handler) HandleCreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req createPromotionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid promotion body")
		return
	}

	promotion, err := h.svc.CreatePromotion(r.Context(), req.Description, req.Discount)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to create promotion")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, promotion)
}

func (h *Handler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product id")
		return
	}

	reviews, err := h.svc.ListReviews(r.Context(), productID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to list reviews", "product_id", productID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, reviews)
}

type createReviewRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) HandleCreateReview(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid product id")
		return
	}

	var req createReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err, "invalid review body")
		return
	}

	review, err := h.svc.CreateReview(r.Context(), productID, req.Name, req.Description)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err, "failed to create review", "product_id", productID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, review)
}
