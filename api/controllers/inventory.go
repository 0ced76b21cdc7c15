package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/thedilution/dilution-backend/api/responses"
	"github.com/thedilution/dilution-backend/api/validators"
	"github.com/thedilution/dilution-backend/internal/inventory"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/logger"
)

type createItemRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Unit         string  `json:"unit" validate:"required,max=32"`
	Quantity     int     `json:"quantity" validate:"gte=0"`
	HardwarePort *string `json:"hardware_port" validate:"omitempty,max=64"`
	OwnerUserID  *string `json:"owner_user_id" validate:"omitempty,uuid4"`
}

func (req *createItemRequest) toInput() (inventory.CreateItemInput, error) {
	input := inventory.CreateItemInput{
		Name:         req.Name,
		Unit:         req.Unit,
		Quantity:     req.Quantity,
		HardwarePort: req.HardwarePort,
	}
	if req.OwnerUserID != nil {
		ownerID, err := uuid.Parse(*req.OwnerUserID)
		if err != nil {
			return inventory.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid owner_user_id")
		}
		input.OwnerUserID = &ownerID
	}
	return input, nil
}

type updateItemRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=255"`
	Unit         *string `json:"unit" validate:"omitempty,max=32"`
	HardwarePort *string `json:"hardware_port" validate:"omitempty,max=64"`
	Status       *string `json:"status" validate:"omitempty,max=32"`
}

type addStockRequest struct {
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Supplier    string  `json:"supplier" validate:"max=255"`
	BatchNumber string  `json:"batch_number" validate:"required,max=64"`
	ExpiresAt   *string `json:"expires_at" validate:"omitempty,datetime=2006-01-02"`
}

// CreateInventoryItem registers a new stock item.
func CreateInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var req createItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// GetInventoryItem fetches a single item.
func GetInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ListInventoryItems returns all stock items.
func ListInventoryItems(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		items, err := svc.ListItems(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// UpdateInventoryItem mutates item metadata. Quantity moves only through
// stock batches and jobcard approvals.
func UpdateInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), id, inventory.UpdateItemInput{
			Name:         req.Name,
			Unit:         req.Unit,
			HardwarePort: req.HardwarePort,
			Status:       req.Status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// DeleteInventoryItem removes an item.
func DeleteInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"deleted": id.String()})
	}
}

// AddStock records an incoming batch and increments the item's quantity.
func AddStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.AddStockInput{
			InventoryID: id,
			Quantity:    req.Quantity,
			Supplier:    req.Supplier,
			BatchNumber: req.BatchNumber,
		}
		if req.ExpiresAt != nil {
			expiry, parseErr := time.Parse("2006-01-02", *req.ExpiresAt)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid expires_at"))
				return
			}
			input.ExpiresAt = &expiry
		}

		batch, err := svc.AddStock(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, batch)
	}
}

// ListStockBatches returns an item's batch history.
func ListStockBatches(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batches, err := svc.ListBatches(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batches)
	}
}

// RemoveStockBatch deletes a batch and decrements the item's quantity.
func RemoveStockBatch(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		batchID, err := parseUUIDParam(r, "batchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveBatch(r.Context(), batchID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"deleted": batchID.String()})
	}
}
