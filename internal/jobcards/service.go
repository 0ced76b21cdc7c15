package jobcards

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/internal/consumption"
	"github.com/thedilution/dilution-backend/internal/dilutions"
	"github.com/thedilution/dilution-backend/internal/formulas"
	"github.com/thedilution/dilution-backend/internal/inventory"
	"github.com/thedilution/dilution-backend/internal/notifications"
	"github.com/thedilution/dilution-backend/internal/users"
	"github.com/thedilution/dilution-backend/pkg/db/models"
	"github.com/thedilution/dilution-backend/pkg/enums"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/logger"
	"github.com/thedilution/dilution-backend/pkg/metrics"
	"github.com/thedilution/dilution-backend/pkg/pagination"
	"github.com/thedilution/dilution-backend/pkg/robot"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the jobcard lifecycle. Approval is the only path that
// deducts stock, writes consumption rows, and triggers the robot, and it does
// all three in one transaction.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Jobcard, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Jobcard, error)
	List(ctx context.Context, filter Filter) (*Page, error)
	Approve(ctx context.Context, id, approverID uuid.UUID) (*models.Jobcard, error)
	Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (*models.Jobcard, error)
	Execute(ctx context.Context, id uuid.UUID, hardwareID *uuid.UUID) (*models.Jobcard, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Jobcard, error)
	Update(ctx context.Context, id, actorID uuid.UUID, input UpdateInput) (*models.Jobcard, error)
	Destroy(ctx context.Context, id uuid.UUID) error
}

type service struct {
	tx            txRunner
	repo          Repository
	dilutionRepo  dilutions.Repository
	formulaRepo   formulas.Repository
	inventoryRepo inventory.Repository
	consRepo      consumption.Repository
	notifRepo     notifications.Repository
	userRepo      users.Repository
	dispenser     robot.Dispenser
	logg          *logger.Logger
	jobMetrics    *metrics.JobcardMetrics
	robotMetrics  *metrics.RobotMetrics
	now           func() time.Time
}

// CreateInput captures a new dilution request with its patient context.
type CreateInput struct {
	DilutionID     uuid.UUID
	RequesterID    uuid.UUID
	HardwareID     *uuid.UUID
	Quantity       int
	EmergencyLevel int
	Prescription   PrescriptionInput
}

// PrescriptionInput is the patient context recorded alongside the jobcard.
type PrescriptionInput struct {
	Age       int
	Weight    float64
	Allergies string
}

// UpdateInput carries mutations allowed while a jobcard is still requested.
// A Status of approved routes the call through Approve; other transitions are
// rejected and must go through their dedicated endpoints.
type UpdateInput struct {
	Quantity       *int
	EmergencyLevel *int
	HardwareID     *uuid.UUID
	Status         *enums.JobcardStatus
}

// Deps bundles the service dependencies.
type Deps struct {
	Tx            txRunner
	Repo          Repository
	DilutionRepo  dilutions.Repository
	FormulaRepo   formulas.Repository
	InventoryRepo inventory.Repository
	ConsRepo      consumption.Repository
	NotifRepo     notifications.Repository
	UserRepo      users.Repository
	Dispenser     robot.Dispenser
	Logger        *logger.Logger
	JobMetrics    *metrics.JobcardMetrics
	RobotMetrics  *metrics.RobotMetrics
}

// NewService wires the jobcards service.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("jobcards repository required")
	}
	if deps.DilutionRepo == nil {
		return nil, fmt.Errorf("dilutions repository required")
	}
	if deps.FormulaRepo == nil {
		return nil, fmt.Errorf("formulas repository required")
	}
	if deps.InventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if deps.ConsRepo == nil {
		return nil, fmt.Errorf("consumption repository required")
	}
	if deps.NotifRepo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if deps.UserRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if deps.Dispenser == nil {
		return nil, fmt.Errorf("robot dispenser required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:            deps.Tx,
		repo:          deps.Repo,
		dilutionRepo:  deps.DilutionRepo,
		formulaRepo:   deps.FormulaRepo,
		inventoryRepo: deps.InventoryRepo,
		consRepo:      deps.ConsRepo,
		notifRepo:     deps.NotifRepo,
		userRepo:      deps.UserRepo,
		dispenser:     deps.Dispenser,
		logg:          deps.Logger,
		jobMetrics:    deps.JobMetrics,
		robotMetrics:  deps.RobotMetrics,
		now:           time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Jobcard, error) {
	if input.DilutionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dilution id is required")
	}
	if input.RequesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requester id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Prescription.Age < 0 || input.Prescription.Weight <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prescription age and weight must be valid")
	}

	var jobcard *models.Jobcard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.dilutionRepo.WithTx(tx).FindByID(ctx, input.DilutionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "dilution not found")
			}
			return err
		}

		prescription := &models.PrescriptionDetail{
			Age:       input.Prescription.Age,
			Weight:    input.Prescription.Weight,
			Allergies: strings.TrimSpace(input.Prescription.Allergies),
		}
		if err := repo.CreatePrescription(ctx, prescription); err != nil {
			return err
		}

		jobcard = &models.Jobcard{
			DilutionID:     input.DilutionID,
			PrescriptionID: prescription.ID,
			RequesterID:    input.RequesterID,
			HardwareID:     input.HardwareID,
			Quantity:       input.Quantity,
			EmergencyLevel: input.EmergencyLevel,
			Status:         enums.JobcardStatusRequested,
			RequestDate:    s.now().UTC(),
		}
		if err := repo.Create(ctx, jobcard); err != nil {
			return err
		}

		admin, err := s.userRepo.WithTx(tx).FindFirstByRole(ctx, enums.UserRoleAdmin)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logg.Warn(ctx, "no admin user found to receive approval notification")
				return nil
			}
			return err
		}
		return s.notifRepo.WithTx(tx).Create(ctx, &models.Notification{
			UserID:     admin.ID,
			JobcardID:  jobcard.ID,
			SourceType: "jobcard_request",
			Message:    fmt.Sprintf("New medication request (jobcard %s) requires approval.", jobcard.ID),
			Severity:   enums.NotificationSeverityWarning,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, jobcard.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Jobcard, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jobcard id is required")
	}
	jobcard, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "jobcard not found")
		}
		return nil, err
	}
	return jobcard, nil
}

// Page is one keyset-paginated slice of jobcards.
type Page struct {
	Items      []models.Jobcard `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func (s *service) List(ctx context.Context, filter Filter) (*Page, error) {
	limit := pagination.NormalizeLimit(filter.Limit)
	filter.Limit = limit + 1

	cards, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &Page{Items: cards}
	if len(cards) > limit {
		page.Items = cards[:limit]
		last := page.Items[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			RequestedAt: last.RequestDate,
			ID:          last.ID,
		})
	}
	return page, nil
}

// Approve runs the whole approval as one transaction: stock checks, stock
// deduction, consumption rows, the robot trigger, status flip and the
// requester notification. A failure at any step rolls everything back, so a
// failed approval leaves no trace beyond logs and metrics.
func (s *service) Approve(ctx context.Context, id, approverID uuid.UUID) (*models.Jobcard, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jobcard id is required")
	}
	if approverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "approver id is required")
	}

	ctx = s.logg.WithJobcardID(ctx, id.String())
	start := s.now()
	outcome := "error"
	defer func() {
		s.jobMetrics.ObserveApproval(outcome, time.Since(start))
	}()

	var approved *models.Jobcard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		jobcard, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "jobcard not found")
			}
			return err
		}
		if jobcard.Status == enums.JobcardStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "jobcard is already approved")
		}
		if !jobcard.Status.CanApprove() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("jobcard in status %q cannot be approved", jobcard.Status))
		}

		dilution, err := s.dilutionRepo.WithTx(tx).FindByID(ctx, jobcard.DilutionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "dilution not found")
			}
			return err
		}

		details, err := s.formulaRepo.WithTx(tx).LoadRecipeForUpdate(ctx, dilution.FormulaID)
		if err != nil {
			return err
		}
		if len(details) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "the formula has no ingredients listed")
		}

		// Ports are validated before any stock moves so a misconfigured
		// recipe fails without touching the ledger.
		material, err := BuildMaterialPayload(details)
		if err != nil {
			return err
		}

		invRepo := s.inventoryRepo.WithTx(tx)
		consRepo := s.consRepo.WithTx(tx)
		consumedAt := s.now().UTC()
		for _, detail := range details {
			item := detail.Inventory
			if item.Quantity < detail.RequiredQuantity {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for item %s", item.Name)).
					WithDetails(map[string]any{
						"inventory_id": item.ID,
						"available":    item.Quantity,
						"required":     detail.RequiredQuantity,
					})
			}
			ok, err := invRepo.AdjustQuantity(ctx, item.ID, -detail.RequiredQuantity)
			if err != nil {
				return err
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for item %s", item.Name))
			}
			if err := consRepo.Create(ctx, &models.Consumption{
				InventoryID:  item.ID,
				JobcardID:    jobcard.ID,
				FormulaID:    dilution.FormulaID,
				QuantityUsed: detail.RequiredQuantity,
				ConsumedAt:   consumedAt,
			}); err != nil {
				return err
			}
		}

		// The gateway call rides inside the transaction: a rejected or
		// unreachable gateway must abort the stock deduction.
		triggerStart := s.now()
		taskID, err := s.dispenser.Trigger(ctx, TaskName(jobcard.ID), material)
		s.robotMetrics.ObserveTrigger(err == nil, time.Since(triggerStart))
		if err != nil {
			s.logg.Error(ctx, "robot trigger failed, approval cancelled", err)
			return err
		}

		now := s.now().UTC()
		taskRef := strconv.FormatInt(taskID, 10)
		jobcard.Status = enums.JobcardStatusApproved
		jobcard.ApproveDate = &now
		jobcard.ApproverID = &approverID
		jobcard.RobotTaskID = &taskRef
		if err := repo.Update(ctx, jobcard); err != nil {
			return err
		}

		if err := s.notifRepo.WithTx(tx).Create(ctx, &models.Notification{
			UserID:     jobcard.RequesterID,
			JobcardID:  jobcard.ID,
			SourceType: "jobcard_approval",
			Message:    fmt.Sprintf("Your medication request (jobcard %s) has been approved.", jobcard.ID),
			Severity:   enums.NotificationSeverityInfo,
		}); err != nil {
			return err
		}

		approved = jobcard
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			outcome = strings.ToLower(string(appErr.Code()))
		}
		return nil, err
	}

	outcome = "approved"
	s.logg.Info(ctx, "jobcard approved")
	return approved, nil
}

// Reject flips a requested jobcard to rejected. No stock is touched; nothing
// was ever deducted for a card that has not been approved.
func (s *service) Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (*models.Jobcard, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jobcard id is required")
	}
	if approverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "approver id is required")
	}

	var rejected *models.Jobcard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		jobcard, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "jobcard not found")
			}
			return err
		}
		if !jobcard.Status.CanReject() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("jobcard in status %q cannot be rejected", jobcard.Status))
		}

		jobcard.Status = enums.JobcardStatusRejected
		jobcard.ApproverID = &approverID
		if err := repo.Update(ctx, jobcard); err != nil {
			return err
		}

		message := fmt.Sprintf("Your medication request (jobcard %s) has been rejected.", jobcard.ID)
		if reason = strings.TrimSpace(reason); reason != "" {
			message = fmt.Sprintf("%s Reason: %s", message, reason)
		}
		if err := s.notifRepo.WithTx(tx).Create(ctx, &models.Notification{
			UserID:     jobcard.RequesterID,
			JobcardID:  jobcard.ID,
			SourceType: "jobcard_rejection",
			Message:    message,
			Severity:   enums.NotificationSeverityWarning,
		}); err != nil {
			return err
		}

		rejected = jobcard
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// Execute starts dispensing an approved jobcard. The recipe is re-resolved
// and the gateway re-triggered so a machine restarted since approval gets a
// fresh task; inventory is not touched again.
func (s *service) Execute(ctx context.Context, id uuid.UUID, hardwareID *uuid.UUID) (*models.Jobcard, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jobcard id is required")
	}

	ctx = s.logg.WithJobcardID(ctx, id.String())

	var updated *models.Jobcard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		jobcard, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "jobcard not found")
			}
			return err
		}
		if !jobcard.Status.CanExecute() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("jobcard in status %q cannot start processing", jobcard.Status))
		}

		dilution, err := s.dilutionRepo.WithTx(tx).FindByID(ctx, jobcard.DilutionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "dilution not found")
			}
			return err
		}
		details, err := s.formulaRepo.WithTx(tx).LoadRecipeForUpdate(ctx, dilution.FormulaID)
		if err != nil {
			return err
		}
		if len(details) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "the formula has no ingredients listed")
		}
		material, err := BuildMaterialPayload(details)
		if err != nil {
			return err
		}

		triggerStart := s.now()
		taskID, err := s.dispenser.Trigger(ctx, TaskName(jobcard.ID), material)
		s.robotMetrics.ObserveTrigger(err == nil, time.Since(triggerStart))
		if err != nil {
			s.logg.Error(ctx, "robot trigger failed, execution cancelled", err)
			return err
		}

		taskRef := strconv.FormatInt(taskID, 10)
		jobcard.Status = enums.JobcardStatusProcessing
		jobcard.RobotTaskID = &taskRef
		if hardwareID != nil {
			jobcard.HardwareID = hardwareID
		}
		if err := repo.Update(ctx, jobcard); err != nil {
			return err
		}
		updated = jobcard
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Complete finalizes a processing jobcard and notifies the requester.
func (s *service) Complete(ctx context.Context, id uuid.UUID) (*models.Jobcard, error) {
	return s.transition(ctx, id, func(jobcard *models.Jobcard) error {
		if !jobcard.Status.CanComplete() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("jobcard in status %q cannot be completed", jobcard.Status))
		}
		jobcard.Status = enums.JobcardStatusCompleted
		return nil
	}, func(jobcard *models.Jobcard) *models.Notification {
		return &models.Notification{
			UserID:     jobcard.RequesterID,
			JobcardID:  jobcard.ID,
			SourceType: "jobcard_completion",
			Message:    fmt.Sprintf("Your medication request (jobcard %s) is ready.", jobcard.ID),
			Severity:   enums.NotificationSeverityInfo,
		}
	})
}

func (s *service) transition(
	ctx context.Context,
	id uuid.UUID,
	mutate func(jobcard *models.Jobcard) error,
	notify func(jobcard *models.Jobcard) *models.Notification,
) (*models.Jobcard, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jobcard id is required")
	}

	var updated *models.Jobcard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		jobcard, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "jobcard not found")
			}
			return err
		}
		if err := mutate(jobcard); err != nil {
			return err
		}
		if err := repo.Update(ctx, jobcard); err != nil {
			return err
		}
		if notify != nil {
			if err := s.notifRepo.WithTx(tx).Create(ctx, notify(jobcard)); err != nil {
				return err
			}
		}
		updated = jobcard
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Update mutates request fields; allowed only while the card is requested.
// Legacy clients patch status=approved instead of calling the approve
// endpoint, so that one transition is honored here.
func (s *service) Update(ctx context.Context, id, actorID uuid.UUID, input UpdateInput) (*models.Jobcard, error) {
	if input.Status != nil {
		if *input.Status != enums.JobcardStatusApproved {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("status %q cannot be set directly, use the lifecycle endpoints", *input.Status))
		}
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status != enums.JobcardStatusApproved {
			return s.Approve(ctx, id, actorID)
		}
		// Already approved: the status patch is a no-op, fall through to
		// the remaining fields.
		input.Status = nil
	}
	if input.Quantity == nil && input.EmergencyLevel == nil && input.HardwareID == nil {
		return s.Get(ctx, id)
	}
	updated, err := s.transition(ctx, id, func(jobcard *models.Jobcard) error {
		if jobcard.Status != enums.JobcardStatusRequested {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("jobcard in status %q can no longer be edited", jobcard.Status))
		}
		if input.Quantity != nil {
			if *input.Quantity <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
			}
			jobcard.Quantity = *input.Quantity
		}
		if input.EmergencyLevel != nil {
			jobcard.EmergencyLevel = *input.EmergencyLevel
		}
		if input.HardwareID != nil {
			jobcard.HardwareID = input.HardwareID
		}
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, updated.ID)
}

// Destroy removes the jobcard and its prescription row together.
func (s *service) Destroy(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "jobcard id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		jobcard, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "jobcard not found")
			}
			return err
		}
		if err := repo.Delete(ctx, jobcard.ID); err != nil {
			return err
		}
		return repo.DeletePrescription(ctx, jobcard.PrescriptionID)
	})
}
