package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/safar/tradein-store/internal/models"
	"github.com/safar/tradein-store/internal/store"
	"github.com/safar/tradein-store/internal/tradein"
	"go.uber.org/zap"
)

const maxUploadBytes = 20 << 20

// TradeInService is the part of tradein.Service the API exposes.
type TradeInService interface {
	CreateTradeIn(ctx context.Context, req tradein.CreateRequest, actingStaffID int64) (*models.TradeIn, error)
	GetTradeIn(ctx context.Context, id int64) (*models.TradeIn, error)
	GetTradeInByReference(ctx context.Context, reference string) (*models.TradeIn, error)
	ListTradeIns(ctx context.Context, filter store.TradeInFilter, cursor string, limit int) (*store.CursorPage, error)
	UpdateTradeIn(ctx context.Context, id int64, req tradein.UpdateRequest, actingStaffID int64) (*models.TradeIn, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status, reason string, actingStaffID int64) (*models.TradeIn, error)
	DeleteTradeIn(ctx context.Context, id int64, reason string, actingStaffID int64) (*models.TradeIn, error)
	UploadDocument(ctx context.Context, id int64, req tradein.UploadRequest, actingStaffID int64) (*models.Document, error)
	ListDocuments(ctx context.Context, id int64) ([]models.Document, error)
	ListAuditLog(ctx context.Context, id int64) ([]models.AuditEntry, error)
	CreateInventoryItem(ctx context.Context, req tradein.InventoryRequest) (*models.InventoryItem, error)
	GetInventoryItem(ctx context.Context, sku string) (*models.InventoryItem, error)
}

type Handler struct {
	svc TradeInService
	log *zap.Logger
}

func NewHandler(svc TradeInService, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) createTradeIn(w http.ResponseWriter, r *http.Request) {
	var req tradein.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.svc.CreateTradeIn(r.Context(), req, StaffID(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, t)
}

func (h *Handler) listTradeIns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter store.TradeInFilter
	if v := q.Get("customer_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid customer_id")
			return
		}
		filter.CustomerID = id
	}
	filter.Status = models.Status(q.Get("status"))

	limit, _ := strconv.Atoi(q.Get("limit"))

	page, err := h.svc.ListTradeIns(r.Context(), filter, q.Get("cursor"), limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) getTradeIn(w http.ResponseWriter, r *http.Request) {
	id, ok := tradeInID(w, r)
	if !ok {
		return
	}

	t, err := h.svc.GetTradeIn(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

func (h *Handler) getTradeInByReference(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.GetTradeInByReference(r.Context(), mux.Vars(r)["ref"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

func (h *Handler) updateTradeIn(w http.ResponseWriter, r *http.Request) {
	id, ok := tradeInID(w, r)
	if !ok {
		return
	}

	var req tradein.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.svc.UpdateTradeIn(r.Context(), id, req, StaffID(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := tradeInID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := h.svc.UpdateStatus(r.Context(), id, models.Status(req.Status), req.Reason, StaffID(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

func (h *Handler) deleteTradeIn(w http.ResponseWriter, r *http.Request) {
	id, ok := tradeInID(w, r)
	if !ok {
		return
	}

	t, err := h.svc.DeleteTradeIn(r.Context(), id, r.URL.Query().Get("reason"), StaffID(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := tradeInID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	doc, err := h.svc.UploadDocument(r.Context(), id, tradein.UploadRequest{
		DocumentType: r.FormValue("document_type"),
		FileName:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	}, StaffID(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, doc)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := tradeInID(w, r)
	if !ok {
		return
	}

	docs, err := h.svc.ListDocuments(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, docs)
}

func (h *Handler) listAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := tradeInID(w, r)
	if !ok {
		return
	}

	entries, err := h.svc.ListAuditLog(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

type totalsRequest struct {
	Items    []models.TradeInItem `json:"items"`
	NewItems []models.NewItem     `json:"new_items"`
}

// calculateTotals is a dry run of the financial summary for a draft.
func (h *Handler) calculateTotals(w http.ResponseWriter, r *http.Request) {
	var req totalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, tradein.CalculateTotals(req.Items, req.NewItems))
}

func (h *Handler) createInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req tradein.InventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.svc.CreateInventoryItem(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) getInventoryItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetInventoryItem(r.Context(), mux.Vars(r)["sku"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

func tradeInID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trade-in ID")
		return 0, false
	}
	return id, true
}
