package tradein

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safar/tradein-store/internal/database"
	"github.com/safar/tradein-store/internal/models"
	"github.com/safar/tradein-store/internal/notify"
	"github.com/safar/tradein-store/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier accepts events for asynchronous delivery.
type Notifier interface {
	Enqueue(e notify.Event) bool
}

// FileStorage stores uploaded trade-in documents.
type FileStorage interface {
	UploadFile(ctx context.Context, bucket, path, contentType string, body io.Reader) (string, error)
}

// DocumentTypes are the accepted kinds of trade-in attachments.
var DocumentTypes = []string{"photo", "appraisal", "certificate", "receipt", "identification", "other"}

// Service runs the trade-in lifecycle against the database. Collaborators
// are owned by the caller.
type Service struct {
	db       *sql.DB
	notifier Notifier
	files    FileStorage
	bucket   string
	log      *zap.Logger
	now      func() time.Time
}

func NewService(db *sql.DB, notifier Notifier, files FileStorage, bucket string, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		notifier: notifier,
		files:    files,
		bucket:   bucket,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateTradeIn validates req, reserves inventory for its new items and
// persists the trade-in in one serializable transaction. Either all of that
// happens or none of it does.
func (s *Service) CreateTradeIn(ctx context.Context, req CreateRequest, actingStaffID int64) (*models.TradeIn, error) {
	if req.StaffID == 0 {
		req.StaffID = actingStaffID
	}

	now := s.now()
	draft, err := Validate(req, now)
	if err != nil {
		return nil, err
	}

	draft.ReferenceNumber = NewReferenceNumber(now)
	draft.StatusHistory = []models.StatusHistoryEntry{{
		Status:    models.StatusPending,
		Timestamp: now,
		StaffID:   actingStaffID,
		Reason:    "created",
	}}

	var created *models.TradeIn
	err = database.WithRetry(ctx, s.db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		if err := requireCustomer(ctx, tx, draft.CustomerID); err != nil {
			return err
		}
		if err := requireStaff(ctx, tx, draft.StaffID); err != nil {
			return err
		}

		if err := store.ReserveInventory(ctx, tx, store.ReservationsFor(draft.NewItems)); err != nil {
			return err
		}

		t := *draft
		if err := store.InsertTradeIn(ctx, tx, &t); err != nil {
			return err
		}
		created = &t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("trade-in created",
		zap.Int64("trade_in_id", created.ID),
		zap.String("reference_number", created.ReferenceNumber),
		zap.String("net_difference", created.Financial.NetDifference.String()),
	)
	s.notifier.Enqueue(notify.NewEvent(notify.EventCreated, created, "", ""))

	return created, nil
}

// UpdateStatus moves a trade-in to newStatus if the status machine allows it
// and appends the history entry in the same statement. Cancelling returns
// reserved stock to inventory.
func (s *Service) UpdateStatus(ctx context.Context, id int64, newStatus models.Status, reason string, actingStaffID int64) (*models.TradeIn, error) {
	if _, ok := models.ParseStatus(string(newStatus)); !ok {
		return nil, invalid("status", "unknown status %q", string(newStatus))
	}

	reason = strings.TrimSpace(reason)
	return s.changeStatus(ctx, id, newStatus, reason, actingStaffID, func(previous models.Status) (string, any) {
		changes := map[string]any{
			"status":          newStatus,
			"previous_status": previous,
		}
		if reason != "" {
			changes["reason"] = reason
		}
		return models.AuditActionStatusChange, changes
	})
}

// DeleteTradeIn cancels a trade-in. Rows are never removed.
func (s *Service) DeleteTradeIn(ctx context.Context, id int64, reason string, actingStaffID int64) (*models.TradeIn, error) {
	reason = strings.TrimSpace(reason)
	return s.changeStatus(ctx, id, models.StatusCancelled, reason, actingStaffID, func(models.Status) (string, any) {
		return models.AuditActionCancel, map[string]any{"status": models.StatusCancelled}
	})
}

type auditFunc func(previous models.Status) (action string, changes any)

func (s *Service) changeStatus(ctx context.Context, id int64, to models.Status, reason string, actingStaffID int64, audit auditFunc) (*models.TradeIn, error) {
	var (
		updated  *models.TradeIn
		previous models.Status
		missing  []string
	)

	err := database.WithRetry(ctx, s.db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		t, err := store.LockTradeIn(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := models.Transition(t.Status, to); err != nil {
			return err
		}
		previous = t.Status

		entry := models.StatusHistoryEntry{
			Status:    to,
			Timestamp: s.now(),
			StaffID:   actingStaffID,
			Reason:    reason,
		}
		if err := store.AppendStatus(ctx, tx, t, entry); err != nil {
			return err
		}

		missing = nil
		if to == models.StatusCancelled {
			missing, err = store.ReleaseInventory(ctx, tx, store.ReservationsFor(t.NewItems))
			if err != nil {
				return err
			}
		}

		action, changes := audit(previous)
		if _, err := store.AppendAuditEntry(ctx, tx, t.ID, actingStaffID, action, changes); err != nil {
			return err
		}

		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.warnMissingStock(updated.ID, missing)

	s.log.Info("trade-in status changed",
		zap.Int64("trade_in_id", updated.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(to)),
	)
	s.notifier.Enqueue(notify.NewEvent(notify.EventStatusChanged, updated, previous, reason))

	return updated, nil
}

// UpdateTradeIn applies a field patch. Status is never changed here. Item
// lines may only change while the trade-in is pending; replacing new items
// releases the old reservations and reserves the new ones atomically.
func (s *Service) UpdateTradeIn(ctx context.Context, id int64, req UpdateRequest, actingStaffID int64) (*models.TradeIn, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	var (
		updated *models.TradeIn
		changed bool
		missing []string
	)
	err := database.WithRetry(ctx, s.db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		t, err := store.LockTradeIn(ctx, tx, id)
		if err != nil {
			return err
		}

		changes := map[string]any{}
		missing = nil

		if req.StaffID != nil && *req.StaffID != t.StaffID {
			if err := requireStaff(ctx, tx, *req.StaffID); err != nil {
				return err
			}
			t.StaffID = *req.StaffID
			changes["staff_id"] = t.StaffID
		}
		if req.Date != nil {
			date, err := parseDate("date", *req.Date, time.Time{})
			if err != nil {
				return err
			}
			if !date.Equal(t.Date) {
				t.Date = date
				changes["date"] = date.Format(dateLayout)
			}
		}
		if req.Notes != nil {
			if notes := strings.TrimSpace(*req.Notes); notes != t.Notes {
				t.Notes = notes
				changes["notes"] = t.Notes
			}
		}

		if req.changesLines() {
			if t.Status != models.StatusPending {
				return &BusinessRuleViolation{
					Rule:    RuleLinesLocked,
					Message: fmt.Sprintf("items can only change while pending (status is %s)", t.Status),
				}
			}

			items, newItems := t.Items, t.NewItems
			if req.Items != nil {
				items = *req.Items
			}
			if req.NewItems != nil {
				newItems = *req.NewItems
			}

			summary := CalculateTotals(items, newItems)
			if err := checkCreditCeiling(summary); err != nil {
				return err
			}
			if err := checkStorable(summary); err != nil {
				return err
			}

			if req.NewItems != nil {
				missing, err = store.ReleaseInventory(ctx, tx, store.ReservationsFor(t.NewItems))
				if err != nil {
					return err
				}
				if err := store.ReserveInventory(ctx, tx, store.ReservationsFor(newItems)); err != nil {
					return err
				}
				if err := store.ReplaceNewItems(ctx, tx, t.ID, newItems); err != nil {
					return err
				}
				changes["new_items"] = newItems
			}
			if req.Items != nil {
				if err := store.ReplaceItems(ctx, tx, t.ID, items); err != nil {
					return err
				}
				changes["items"] = items
			}

			t.Items, t.NewItems = items, newItems
			t.Financial = summary
			changes["financial"] = summary
		}

		updated = t
		changed = len(changes) > 0
		if !changed {
			return nil
		}

		if err := store.UpdateTradeInFields(ctx, tx, t); err != nil {
			return err
		}
		if _, err := store.AppendAuditEntry(ctx, tx, t.ID, actingStaffID, models.AuditActionUpdate, changes); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return updated, nil
	}

	s.warnMissingStock(updated.ID, missing)

	s.log.Info("trade-in updated", zap.Int64("trade_in_id", updated.ID))
	return updated, nil
}

func (s *Service) GetTradeIn(ctx context.Context, id int64) (*models.TradeIn, error) {
	return store.GetTradeIn(ctx, s.db, id)
}

func (s *Service) GetTradeInByReference(ctx context.Context, reference string) (*models.TradeIn, error) {
	if !IsReferenceNumber(reference) {
		return nil, invalid("reference_number", "must look like TI-YYYYMMDD-xxxxxx")
	}
	return store.GetTradeInByReference(ctx, s.db, reference)
}

func (s *Service) ListTradeIns(ctx context.Context, filter store.TradeInFilter, cursor string, limit int) (*store.CursorPage, error) {
	if filter.Status != "" {
		if _, ok := models.ParseStatus(string(filter.Status)); !ok {
			return nil, invalid("status", "unknown status %q", string(filter.Status))
		}
	}
	if _, err := store.DecodeCursor(cursor); err != nil {
		return nil, invalid("cursor", "is malformed")
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return store.ListTradeInsCursor(ctx, s.db, filter, cursor, limit)
}

func (s *Service) ListAuditLog(ctx context.Context, id int64) ([]models.AuditEntry, error) {
	if _, err := store.GetTradeIn(ctx, s.db, id); err != nil {
		return nil, err
	}
	return store.ListAuditLog(ctx, s.db, id)
}

// UploadRequest describes one document attached to a trade-in.
type UploadRequest struct {
	DocumentType string
	FileName     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// UploadDocument stores the file under the trade-in's reference number and
// records it.
func (s *Service) UploadDocument(ctx context.Context, id int64, req UploadRequest, actingStaffID int64) (*models.Document, error) {
	if !slices.Contains(DocumentTypes, req.DocumentType) {
		return nil, invalid("document_type", "must be one of %s", strings.Join(DocumentTypes, ", "))
	}
	name := path.Base(strings.ReplaceAll(req.FileName, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, invalid("file", "a file name is required")
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	t, err := store.GetTradeIn(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	objectPath := fmt.Sprintf("trade-ins/%s/%s-%s", t.ReferenceNumber, uuid.NewString(), name)
	key, err := s.files.UploadFile(ctx, s.bucket, objectPath, req.ContentType, req.Body)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		TradeInID:    t.ID,
		DocumentType: req.DocumentType,
		FileName:     name,
		ContentType:  req.ContentType,
		SizeBytes:    req.Size,
		StoragePath:  key,
		UploadedBy:   actingStaffID,
	}
	if err := store.InsertDocument(ctx, s.db, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *Service) ListDocuments(ctx context.Context, id int64) ([]models.Document, error) {
	if _, err := store.GetTradeIn(ctx, s.db, id); err != nil {
		return nil, err
	}
	return store.ListDocuments(ctx, s.db, id)
}

// InventoryRequest adds a stock row.
type InventoryRequest struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (s *Service) CreateInventoryItem(ctx context.Context, req InventoryRequest) (*models.InventoryItem, error) {
	if strings.TrimSpace(req.SKU) == "" {
		return nil, invalid("sku", "is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if err := validateAmount("price", req.Price, false, maxStockPrice); err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, invalid("quantity", "must not be negative")
	}
	if req.Quantity > maxQuantity {
		return nil, invalid("quantity", "must be at most %d", maxQuantity)
	}

	item, err := store.CreateInventoryItem(ctx, s.db, req.SKU, req.Name, req.Price, req.Quantity)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, invalid("sku", "already exists")
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) GetInventoryItem(ctx context.Context, sku string) (*models.InventoryItem, error) {
	return store.GetInventoryItem(ctx, s.db, sku)
}

// warnMissingStock logs reservations that could not be returned because the
// inventory row is gone.
func (s *Service) warnMissingStock(tradeInID int64, skus []string) {
	if len(skus) == 0 {
		return
	}
	s.log.Warn("inventory row missing, reserved stock not returned",
		zap.Int64("trade_in_id", tradeInID),
		zap.Strings("skus", skus),
	)
}

func requireCustomer(ctx context.Context, db store.Querier, id int64) error {
	ok, err := store.CustomerExists(ctx, db, id)
	if err != nil {
		return err
	}
	if !ok {
		return database.ErrCustomerNotFound
	}
	return nil
}

func requireStaff(ctx context.Context, db store.Querier, id int64) error {
	ok, err := store.StaffExists(ctx, db, id)
	if err != nil {
		return err
	}
	if !ok {
		return database.ErrStaffNotFound
	}
	return nil
}
