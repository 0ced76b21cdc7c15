package jobcards

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
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
	"github.com/thedilution/dilution-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// serialTxRunner queues write transactions behind a mutex. The sqlite test
// driver cannot interleave two writers the way postgres serializes them on
// the FOR UPDATE row locks, so the queueing is modeled here instead.
type serialTxRunner struct {
	mu sync.Mutex
	db *gorm.DB
}

func (r *serialTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.WithContext(ctx).Transaction(fn)
}

type fakeDispenser struct {
	calls    int
	lastTask string
	lastMat  string
	taskID   int64
	err      error
}

func (f *fakeDispenser) Trigger(ctx context.Context, taskName, material string) (int64, error) {
	f.calls++
	f.lastTask = taskName
	f.lastMat = material
	if f.err != nil {
		return 0, f.err
	}
	return f.taskID, nil
}

func newJobcardsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:jobcards_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.InventoryItem{},
		&models.Formula{},
		&models.FormulaDetail{},
		&models.Dilution{},
		&models.PrescriptionDetail{},
		&models.Jobcard{},
		&models.Consumption{},
		&models.Notification{},
	))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, disp *fakeDispenser) Service {
	t.Helper()
	return newTestServiceTx(t, db, disp, gormTxRunner{db: db})
}

func newTestServiceTx(t *testing.T, db *gorm.DB, disp *fakeDispenser, tx txRunner) Service {
	t.Helper()
	svc, err := NewService(Deps{
		Tx:            tx,
		Repo:          NewRepository(db),
		DilutionRepo:  dilutions.NewRepository(db),
		FormulaRepo:   formulas.NewRepository(db),
		InventoryRepo: inventory.NewRepository(db),
		ConsRepo:      consumption.NewRepository(db),
		NotifRepo:     notifications.NewRepository(db),
		UserRepo:      users.NewRepository(db),
		Dispenser:     disp,
		Logger:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

type fixture struct {
	requester uuid.UUID
	approver  uuid.UUID
	jobcard   uuid.UUID
	itemA     uuid.UUID
	itemB     uuid.UUID
	formula   uuid.UUID
}

func port(p string) *string { return &p }

// seed builds one requested jobcard whose recipe needs 30 of item A and 20 of
// item B, against 100 units of each.
func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	requester := &models.User{Username: "doctor_" + uuid.NewString()[:8], PasswordHash: "x", Role: enums.UserRoleDoctor, IsActive: true}
	approver := &models.User{Username: "pharm_" + uuid.NewString()[:8], PasswordHash: "x", Role: enums.UserRolePharmacist, IsActive: true}
	require.NoError(t, db.Create(requester).Error)
	require.NoError(t, db.Create(approver).Error)

	itemA := &models.InventoryItem{Name: "Saline", Unit: "ml", Quantity: 100, HardwarePort: port("P1")}
	itemB := &models.InventoryItem{Name: "Dextrose", Unit: "ml", Quantity: 100, HardwarePort: port("P2")}
	require.NoError(t, db.Create(itemA).Error)
	require.NoError(t, db.Create(itemB).Error)

	formula := &models.Formula{Name: "Mix 5%"}
	require.NoError(t, db.Create(formula).Error)
	require.NoError(t, db.Create(&models.FormulaDetail{FormulaID: formula.ID, InventoryID: itemA.ID, RequiredQuantity: 30}).Error)
	require.NoError(t, db.Create(&models.FormulaDetail{FormulaID: formula.ID, InventoryID: itemB.ID, RequiredQuantity: 20}).Error)

	dilution := &models.Dilution{Name: "Dextrose 5%", FormulaID: formula.ID}
	require.NoError(t, db.Create(dilution).Error)

	prescription := &models.PrescriptionDetail{Age: 42, Weight: 70}
	require.NoError(t, db.Create(prescription).Error)

	jobcard := &models.Jobcard{
		DilutionID:     dilution.ID,
		PrescriptionID: prescription.ID,
		RequesterID:    requester.ID,
		Quantity:       1,
		Status:         enums.JobcardStatusRequested,
		RequestDate:    time.Now().UTC(),
	}
	require.NoError(t, db.Create(jobcard).Error)

	return fixture{
		requester: requester.ID,
		approver:  approver.ID,
		jobcard:   jobcard.ID,
		itemA:     itemA.ID,
		itemB:     itemB.ID,
		formula:   formula.ID,
	}
}

func itemQuantity(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, db.First(&item, "id = ?", id).Error)
	return item.Quantity
}

func consumptionCount(t *testing.T, db *gorm.DB, jobcardID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Consumption{}).Where("jobcard_id = ?", jobcardID).Count(&count).Error)
	return count
}

func TestApprove(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	disp := &fakeDispenser{taskID: 4711}
	svc := newTestService(t, db, disp)

	jobcard, err := svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.NoError(t, err)

	assert.Equal(t, enums.JobcardStatusApproved, jobcard.Status)
	require.NotNil(t, jobcard.ApproveDate)
	require.NotNil(t, jobcard.ApproverID)
	assert.Equal(t, fx.approver, *jobcard.ApproverID)
	require.NotNil(t, jobcard.RobotTaskID)
	assert.Equal(t, "4711", *jobcard.RobotTaskID)

	assert.Equal(t, 70, itemQuantity(t, db, fx.itemA))
	assert.Equal(t, 80, itemQuantity(t, db, fx.itemB))
	assert.EqualValues(t, 2, consumptionCount(t, db, fx.jobcard))

	assert.Equal(t, 1, disp.calls)
	assert.Equal(t, "Job-"+fx.jobcard.String()+"-Dilution-Mix", disp.lastTask)
	assert.Contains(t, disp.lastMat, "Saline:30:P1")
	assert.Contains(t, disp.lastMat, "Dextrose:20:P2")

	var notes []models.Notification
	require.NoError(t, db.Where("user_id = ?", fx.requester).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, enums.NotificationSeverityInfo, notes[0].Severity)
	assert.Equal(t, fx.jobcard, notes[0].JobcardID)
}

func TestApproveInsufficientStock(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	require.NoError(t, db.Model(&models.InventoryItem{}).Where("id = ?", fx.itemB).Update("quantity", 5).Error)
	disp := &fakeDispenser{taskID: 1}
	svc := newTestService(t, db, disp)

	_, err := svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, appErr.Code())

	// whole transaction rolled back, including item A which had enough stock
	assert.Equal(t, 100, itemQuantity(t, db, fx.itemA))
	assert.Equal(t, 5, itemQuantity(t, db, fx.itemB))
	assert.EqualValues(t, 0, consumptionCount(t, db, fx.jobcard))
	assert.Equal(t, 0, disp.calls)

	var jobcard models.Jobcard
	require.NoError(t, db.First(&jobcard, "id = ?", fx.jobcard).Error)
	assert.Equal(t, enums.JobcardStatusRequested, jobcard.Status)
	assert.Nil(t, jobcard.ApproveDate)
}

func TestApproveGatewayFailure(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	disp := &fakeDispenser{err: pkgerrors.New(pkgerrors.CodeRobotGateway, "robot gateway returned status 500")}
	svc := newTestService(t, db, disp)

	_, err := svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeRobotGateway, appErr.Code())
	assert.Equal(t, 1, disp.calls)

	// stock deduction and consumption rows must roll back with the trigger
	assert.Equal(t, 100, itemQuantity(t, db, fx.itemA))
	assert.Equal(t, 100, itemQuantity(t, db, fx.itemB))
	assert.EqualValues(t, 0, consumptionCount(t, db, fx.jobcard))

	var jobcard models.Jobcard
	require.NoError(t, db.First(&jobcard, "id = ?", fx.jobcard).Error)
	assert.Equal(t, enums.JobcardStatusRequested, jobcard.Status)
	assert.Nil(t, jobcard.RobotTaskID)
}

func TestApproveAlreadyApproved(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	disp := &fakeDispenser{taskID: 1}
	svc := newTestService(t, db, disp)

	_, err := svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.NoError(t, err)
	require.Equal(t, 1, disp.calls)

	_, err = svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	// second attempt must not touch stock or the robot again
	assert.Equal(t, 1, disp.calls)
	assert.Equal(t, 70, itemQuantity(t, db, fx.itemA))
	assert.EqualValues(t, 2, consumptionCount(t, db, fx.jobcard))
}

func TestApproveEmptyFormula(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	require.NoError(t, db.Where("formula_id = ?", fx.formula).Delete(&models.FormulaDetail{}).Error)
	disp := &fakeDispenser{taskID: 1}
	svc := newTestService(t, db, disp)

	_, err := svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
	assert.Equal(t, 0, disp.calls)
}

func TestApproveMissingHardwarePort(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	require.NoError(t, db.Model(&models.InventoryItem{}).Where("id = ?", fx.itemB).Update("hardware_port", nil).Error)
	disp := &fakeDispenser{taskID: 1}
	svc := newTestService(t, db, disp)

	_, err := svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConfiguration, appErr.Code())

	assert.Equal(t, 0, disp.calls)
	assert.Equal(t, 100, itemQuantity(t, db, fx.itemA))
	assert.EqualValues(t, 0, consumptionCount(t, db, fx.jobcard))
}

func TestApproveNotFound(t *testing.T) {
	db := newJobcardsTestDB(t)
	seed(t, db)
	svc := newTestService(t, db, &fakeDispenser{})

	_, err := svc.Approve(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestRejectThenReApprove(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	disp := &fakeDispenser{taskID: 99}
	svc := newTestService(t, db, disp)

	rejected, err := svc.Reject(context.Background(), fx.jobcard, fx.approver, "allergy conflict")
	require.NoError(t, err)
	assert.Equal(t, enums.JobcardStatusRejected, rejected.Status)

	// rejection never touches the ledger
	assert.Equal(t, 100, itemQuantity(t, db, fx.itemA))
	assert.Equal(t, 100, itemQuantity(t, db, fx.itemB))
	assert.EqualValues(t, 0, consumptionCount(t, db, fx.jobcard))

	var notes []models.Notification
	require.NoError(t, db.Where("user_id = ?", fx.requester).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, enums.NotificationSeverityWarning, notes[0].Severity)
	assert.Contains(t, notes[0].Message, "allergy conflict")

	// rejection is not terminal
	approved, err := svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.NoError(t, err)
	assert.Equal(t, enums.JobcardStatusApproved, approved.Status)
	assert.Equal(t, 70, itemQuantity(t, db, fx.itemA))
}

func TestRejectApprovedCard(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	svc := newTestService(t, db, &fakeDispenser{taskID: 1})

	_, err := svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), fx.jobcard, fx.approver, "")
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestExecuteAndComplete(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	disp := &fakeDispenser{taskID: 1}
	svc := newTestService(t, db, disp)

	// execute before approval is rejected, and the robot is never contacted
	_, err := svc.Execute(context.Background(), fx.jobcard, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Equal(t, 0, disp.calls)

	_, err = svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.NoError(t, err)

	// execute re-triggers the robot and records the fresh task id, but the
	// stock deducted at approval stays deducted exactly once
	disp.taskID = 7
	processing, err := svc.Execute(context.Background(), fx.jobcard, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.JobcardStatusProcessing, processing.Status)
	require.NotNil(t, processing.RobotTaskID)
	assert.Equal(t, "7", *processing.RobotTaskID)
	assert.Equal(t, 2, disp.calls)
	assert.Equal(t, 70, itemQuantity(t, db, fx.itemA))
	assert.EqualValues(t, 2, consumptionCount(t, db, fx.jobcard))

	completed, err := svc.Complete(context.Background(), fx.jobcard)
	require.NoError(t, err)
	assert.Equal(t, enums.JobcardStatusCompleted, completed.Status)

	// completed cards are terminal
	_, err = svc.Complete(context.Background(), fx.jobcard)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCreateNotifiesAdmin(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	admin := &models.User{Username: "admin_" + uuid.NewString()[:8], PasswordHash: "x", Role: enums.UserRoleAdmin, IsActive: true}
	require.NoError(t, db.Create(admin).Error)
	svc := newTestService(t, db, &fakeDispenser{})

	var dilution models.Dilution
	require.NoError(t, db.First(&dilution).Error)

	jobcard, err := svc.Create(context.Background(), CreateInput{
		DilutionID:  dilution.ID,
		RequesterID: fx.requester,
		Quantity:    2,
		Prescription: PrescriptionInput{
			Age:    31,
			Weight: 58.5,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.JobcardStatusRequested, jobcard.Status)
	require.NotNil(t, jobcard.Prescription)
	assert.Equal(t, 31, jobcard.Prescription.Age)

	var notes []models.Notification
	require.NoError(t, db.Where("user_id = ?", admin.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, enums.NotificationSeverityWarning, notes[0].Severity)
	assert.Equal(t, jobcard.ID, notes[0].JobcardID)
}

func TestCreateWithoutAdminStillSucceeds(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	svc := newTestService(t, db, &fakeDispenser{})

	var dilution models.Dilution
	require.NoError(t, db.First(&dilution).Error)

	jobcard, err := svc.Create(context.Background(), CreateInput{
		DilutionID:   dilution.ID,
		RequesterID:  fx.requester,
		Quantity:     1,
		Prescription: PrescriptionInput{Age: 7, Weight: 22},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("jobcard_id = ?", jobcard.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestUpdateOnlyWhileRequested(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	svc := newTestService(t, db, &fakeDispenser{taskID: 1})

	qty := 3
	updated, err := svc.Update(context.Background(), fx.jobcard, fx.requester, UpdateInput{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)

	_, err = svc.Approve(context.Background(), fx.jobcard, fx.approver)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), fx.jobcard, fx.requester, UpdateInput{Quantity: &qty})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestUpdateStatusApprovedRoutesThroughApproval(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	disp := &fakeDispenser{taskID: 5}
	svc := newTestService(t, db, disp)

	approved := enums.JobcardStatusApproved
	updated, err := svc.Update(context.Background(), fx.jobcard, fx.approver, UpdateInput{Status: &approved})
	require.NoError(t, err)

	// the patch runs the full approval: stock moves, robot fires, approver set
	assert.Equal(t, enums.JobcardStatusApproved, updated.Status)
	require.NotNil(t, updated.ApproverID)
	assert.Equal(t, fx.approver, *updated.ApproverID)
	assert.Equal(t, 1, disp.calls)
	assert.Equal(t, 70, itemQuantity(t, db, fx.itemA))

	// patching status=approved on an approved card is a no-op
	again, err := svc.Update(context.Background(), fx.jobcard, fx.approver, UpdateInput{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, enums.JobcardStatusApproved, again.Status)
	assert.Equal(t, 1, disp.calls)
	assert.Equal(t, 70, itemQuantity(t, db, fx.itemA))
}

func TestUpdateRejectsOtherStatusPatches(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	svc := newTestService(t, db, &fakeDispenser{})

	completed := enums.JobcardStatusCompleted
	_, err := svc.Update(context.Background(), fx.jobcard, fx.approver, UpdateInput{Status: &completed})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDestroyRemovesPrescription(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)
	svc := newTestService(t, db, &fakeDispenser{})

	jobcard, err := svc.Get(context.Background(), fx.jobcard)
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(context.Background(), fx.jobcard))

	var count int64
	require.NoError(t, db.Model(&models.Jobcard{}).Where("id = ?", fx.jobcard).Count(&count).Error)
	assert.EqualValues(t, 0, count)
	require.NoError(t, db.Model(&models.PrescriptionDetail{}).Where("id = ?", jobcard.PrescriptionID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestListPaginatesWithCursor(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		prescription := &models.PrescriptionDetail{Age: 30, Weight: 60}
		require.NoError(t, db.Create(prescription).Error)
		card := &models.Jobcard{
			DilutionID:     dilutionID(t, db, fx.formula),
			PrescriptionID: prescription.ID,
			RequesterID:    fx.requester,
			Quantity:       1,
			Status:         enums.JobcardStatusRequested,
			RequestDate:    base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(card).Error)
	}

	svc := newTestService(t, db, &fakeDispenser{})

	first, err := svc.List(context.Background(), Filter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.NextCursor)

	cursor, err := pagination.ParseCursor(first.NextCursor)
	require.NoError(t, err)

	second, err := svc.List(context.Background(), Filter{Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, card := range append(first.Items, second.Items...) {
		require.False(t, seen[card.ID], "card %s returned twice", card.ID)
		seen[card.ID] = true
	}
}

func dilutionID(t *testing.T, db *gorm.DB, formulaID uuid.UUID) uuid.UUID {
	t.Helper()
	var dilution models.Dilution
	require.NoError(t, db.First(&dilution, "formula_id = ?", formulaID).Error)
	return dilution.ID
}

// Two approvals race for a recipe whose first ingredient only covers one of
// them. Exactly one may win; the loser reports insufficient stock, the ledger
// never goes negative and the robot fires once.
func TestConcurrentApprovalsShareScarceIngredient(t *testing.T) {
	db := newJobcardsTestDB(t)
	fx := seed(t, db)

	// 30 units of item A cover exactly one approval
	require.NoError(t, db.Model(&models.InventoryItem{}).Where("id = ?", fx.itemA).Update("quantity", 30).Error)

	prescription := &models.PrescriptionDetail{Age: 55, Weight: 80}
	require.NoError(t, db.Create(prescription).Error)
	rival := &models.Jobcard{
		DilutionID:     dilutionID(t, db, fx.formula),
		PrescriptionID: prescription.ID,
		RequesterID:    fx.requester,
		Quantity:       1,
		Status:         enums.JobcardStatusRequested,
		RequestDate:    time.Now().UTC(),
	}
	require.NoError(t, db.Create(rival).Error)

	disp := &fakeDispenser{taskID: 99}
	svc := newTestServiceTx(t, db, disp, &serialTxRunner{db: db})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{fx.jobcard, rival.ID} {
		wg.Add(1)
		go func(slot int, jobcardID uuid.UUID) {
			defer wg.Done()
			_, errs[slot] = svc.Approve(context.Background(), jobcardID, fx.approver)
		}(i, id)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		losses++
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "unexpected error type: %v", err)
		assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	assert.Equal(t, 0, itemQuantity(t, db, fx.itemA))
	assert.Equal(t, 80, itemQuantity(t, db, fx.itemB))
	assert.Equal(t, 1, disp.calls)

	total := consumptionCount(t, db, fx.jobcard) + consumptionCount(t, db, rival.ID)
	assert.EqualValues(t, 2, total)
}
