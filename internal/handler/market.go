package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wfmarket-sync/internal/model"
	"wfmarket-sync/internal/service"
	"wfmarket-sync/pkg/apierror"
	"wfmarket-sync/pkg/response"
)

// MarketHandler serves synced catalog and order book data.
type MarketHandler struct {
	market *service.MarketService
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(market *service.MarketService) *MarketHandler {
	return &MarketHandler{market: market}
}

// ListItems handles GET /api/v1/items?limit=&offset=
func (h *MarketHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		response.Error(w, apierror.ValidationError("invalid query", apierror.FieldError{Field: "limit", Message: "must be an integer"}))
		return
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		response.Error(w, apierror.ValidationError("invalid query", apierror.FieldError{Field: "offset", Message: "must be an integer"}))
		return
	}

	items, limit, offset, err := h.market.ListItems(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, "list items", err)
		return
	}
	response.JSONWithMeta(w, http.StatusOK, items, limit, offset, len(items))
}

// GetItem handles GET /api/v1/items/{url_name}
func (h *MarketHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.market.GetItem(r.Context(), chi.URLParam(r, "url_name"))
	if err != nil {
		h.fail(w, "get item", err)
		return
	}
	response.OK(w, item)
}

// ItemOrdersResponse is an item with its stored order book.
type ItemOrdersResponse struct {
	Item   *model.Item   `json:"item"`
	Orders []model.Order `json:"orders"`
}

// ListOrders handles GET /api/v1/items/{url_name}/orders?type=buy|sell
func (h *MarketHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	item, orders, err := h.market.ListOrders(r.Context(), chi.URLParam(r, "url_name"), r.URL.Query().Get("type"))
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	response.OK(w, ItemOrdersResponse{Item: item, Orders: orders})
}

// LastSync handles GET /api/v1/sync/last
func (h *MarketHandler) LastSync(w http.ResponseWriter, r *http.Request) {
	report, err := h.market.LastReport(r.Context())
	if err != nil {
		h.fail(w, "read last report", err)
		return
	}
	response.OK(w, report)
}

// GetSyncRun handles GET /api/v1/sync/runs/{run_id}
func (h *MarketHandler) GetSyncRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.market.Report(r.Context(), chi.URLParam(r, "run_id"))
	if err != nil {
		h.fail(w, "read report", err)
		return
	}
	response.OK(w, report)
}

// fail maps service errors to API errors.
func (h *MarketHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		response.Error(w, apierror.NotFound("item not found"))
	case errors.Is(err, service.ErrNoReport):
		response.Error(w, apierror.NotFound("no sync report recorded"))
	case errors.Is(err, service.ErrInvalidOrderType):
		response.Error(w, apierror.BadRequest(err.Error()))
	default:
		log.Printf("[MarketHandler] Failed to %s: %v", op, err)
		response.Error(w, apierror.InternalError(""))
	}
}

func intQuery(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
