package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/thedilution/dilution-backend/internal/auth"
	"github.com/thedilution/dilution-backend/internal/consumption"
	"github.com/thedilution/dilution-backend/internal/dashboard"
	"github.com/thedilution/dilution-backend/internal/dilutions"
	"github.com/thedilution/dilution-backend/internal/formulas"
	"github.com/thedilution/dilution-backend/internal/hardware"
	"github.com/thedilution/dilution-backend/internal/inventory"
	"github.com/thedilution/dilution-backend/internal/jobcards"
	"github.com/thedilution/dilution-backend/internal/notifications"
	"github.com/thedilution/dilution-backend/internal/users"
	pkgauth "github.com/thedilution/dilution-backend/pkg/auth"
	"github.com/thedilution/dilution-backend/pkg/config"
	"github.com/thedilution/dilution-backend/pkg/db/models"
	"github.com/thedilution/dilution-backend/pkg/enums"
	"github.com/thedilution/dilution-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, input auth.RegisterInput) (*auth.LoginResult, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubJobcardService struct {
	listFn    func(ctx context.Context, filter jobcards.Filter) (*jobcards.Page, error)
	approveFn func(ctx context.Context, id, approverID uuid.UUID) (*models.Jobcard, error)
}

func (s stubJobcardService) Create(ctx context.Context, input jobcards.CreateInput) (*models.Jobcard, error) {
	panic("unimplemented")
}

func (s stubJobcardService) Get(ctx context.Context, id uuid.UUID) (*models.Jobcard, error) {
	panic("unimplemented")
}

func (s stubJobcardService) List(ctx context.Context, filter jobcards.Filter) (*jobcards.Page, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return &jobcards.Page{}, nil
}

func (s stubJobcardService) Approve(ctx context.Context, id, approverID uuid.UUID) (*models.Jobcard, error) {
	if s.approveFn != nil {
		return s.approveFn(ctx, id, approverID)
	}
	return &models.Jobcard{ID: id, Status: enums.JobcardStatusApproved}, nil
}

func (s stubJobcardService) Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (*models.Jobcard, error) {
	return &models.Jobcard{ID: id, Status: enums.JobcardStatusRejected}, nil
}

func (s stubJobcardService) Execute(ctx context.Context, id uuid.UUID, hardwareID *uuid.UUID) (*models.Jobcard, error) {
	panic("unimplemented")
}

func (s stubJobcardService) Complete(ctx context.Context, id uuid.UUID) (*models.Jobcard, error) {
	panic("unimplemented")
}

func (s stubJobcardService) Update(ctx context.Context, id, actorID uuid.UUID, input jobcards.UpdateInput) (*models.Jobcard, error) {
	panic("unimplemented")
}

func (s stubJobcardService) Destroy(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubInventoryService struct{}

func (stubInventoryService) CreateItem(ctx context.Context, input inventory.CreateItemInput) (*models.InventoryItem, error) {
	panic("unimplemented")
}

func (stubInventoryService) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	panic("unimplemented")
}

func (stubInventoryService) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	return []models.InventoryItem{}, nil
}

func (stubInventoryService) UpdateItem(ctx context.Context, id uuid.UUID, input inventory.UpdateItemInput) (*models.InventoryItem, error) {
	panic("unimplemented")
}

func (stubInventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubInventoryService) AddStock(ctx context.Context, input inventory.AddStockInput) (*models.StockBatch, error) {
	panic("unimplemented")
}

func (stubInventoryService) ListBatches(ctx context.Context, inventoryID uuid.UUID) ([]models.StockBatch, error) {
	panic("unimplemented")
}

func (stubInventoryService) RemoveBatch(ctx context.Context, batchID uuid.UUID) error {
	panic("unimplemented")
}

type stubFormulaService struct{}

func (stubFormulaService) Create(ctx context.Context, input formulas.CreateInput) (*models.Formula, error) {
	panic("unimplemented")
}

func (stubFormulaService) Get(ctx context.Context, id uuid.UUID) (*models.Formula, error) {
	panic("unimplemented")
}

func (stubFormulaService) List(ctx context.Context) ([]models.Formula, error) {
	return []models.Formula{}, nil
}

func (stubFormulaService) SetDetails(ctx context.Context, formulaID uuid.UUID, details []formulas.DetailInput) (*models.Formula, error) {
	panic("unimplemented")
}

func (stubFormulaService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubDilutionService struct{}

func (stubDilutionService) Create(ctx context.Context, input dilutions.CreateInput) (*models.Dilution, error) {
	panic("unimplemented")
}

func (stubDilutionService) Get(ctx context.Context, id uuid.UUID) (*models.Dilution, error) {
	panic("unimplemented")
}

func (stubDilutionService) List(ctx context.Context) ([]models.Dilution, error) {
	return []models.Dilution{}, nil
}

func (stubDilutionService) Update(ctx context.Context, id uuid.UUID, input dilutions.UpdateInput) (*models.Dilution, error) {
	panic("unimplemented")
}

func (stubDilutionService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubNotificationService struct{}

func (stubNotificationService) Record(ctx context.Context, input notifications.RecordInput) (*models.Notification, error) {
	panic("unimplemented")
}

func (stubNotificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	return []models.Notification{}, nil
}

func (stubNotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return nil
}

func (stubNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return nil
}

type stubHardwareService struct{}

func (stubHardwareService) Create(ctx context.Context, input hardware.CreateInput) (*models.Hardware, error) {
	panic("unimplemented")
}

func (stubHardwareService) Get(ctx context.Context, id uuid.UUID) (*models.Hardware, error) {
	panic("unimplemented")
}

func (stubHardwareService) List(ctx context.Context) ([]models.Hardware, error) {
	return []models.Hardware{}, nil
}

func (stubHardwareService) Update(ctx context.Context, id uuid.UUID, input hardware.UpdateInput) (*models.Hardware, error) {
	panic("unimplemented")
}

func (stubHardwareService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubHardwareService) RecordLog(ctx context.Context, input hardware.LogInput) (*models.HardwareLog, error) {
	panic("unimplemented")
}

func (stubHardwareService) ListLogs(ctx context.Context) ([]models.HardwareLog, error) {
	return []models.HardwareLog{}, nil
}

func (stubHardwareService) ListLogsForHardware(ctx context.Context, hardwareID uuid.UUID) ([]models.HardwareLog, error) {
	return []models.HardwareLog{}, nil
}

type stubUsersService struct{}

func (stubUsersService) Create(ctx context.Context, input users.CreateInput) (*models.User, error) {
	panic("unimplemented")
}

func (stubUsersService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	panic("unimplemented")
}

func (stubUsersService) List(ctx context.Context) ([]models.User, error) {
	return []models.User{}, nil
}

func (stubUsersService) Update(ctx context.Context, id uuid.UUID, input users.UpdateInput) (*models.User, error) {
	panic("unimplemented")
}

func (stubUsersService) Deactivate(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubConsumptionService struct{}

func (stubConsumptionService) List(ctx context.Context, filter consumption.Filter) ([]models.Consumption, error) {
	return []models.Consumption{}, nil
}

type stubDashboardService struct{}

func (stubDashboardService) Summary(ctx context.Context) (*dashboard.Summary, error) {
	return &dashboard.Summary{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		DBPinger:      stubPinger{},
		RedisPinger:   stubPinger{},
		AuthService:   stubAuthService{},
		RegisterSvc:   stubRegisterService{},
		JobcardSvc:    stubJobcardService{},
		InventorySvc:  stubInventoryService{},
		FormulaSvc:    stubFormulaService{},
		DilutionSvc:   stubDilutionService{},
		Notifications: stubNotificationService{},
		HardwareSvc:   stubHardwareService{},
		UsersSvc:      stubUsersService{},
		ConsumptionSv: stubConsumptionService{},
		DashboardSvc:  stubDashboardService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:     uuid.New(),
		Role:       role,
		Department: "oncology",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobcards", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestProtectedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobcards", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleDoctor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestApproveRequiresApproverRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/jobcards/" + uuid.NewString() + "/approve"

	doctor := httptest.NewRequest(http.MethodPost, target, nil)
	doctor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleDoctor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, doctor)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for doctor got %d", resp.Code)
	}

	pharmacist := httptest.NewRequest(http.MethodPost, target, nil)
	pharmacist.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRolePharmacist))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, pharmacist)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for pharmacist got %d", resp.Code)
	}
}

func TestUsersGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	pharmacist := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	pharmacist.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRolePharmacist))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, pharmacist)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for pharmacist got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestLoginIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusUnauthorized {
		t.Fatalf("login must not require a token, got %d", resp.Code)
	}
}

func TestRegisterIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusUnauthorized {
		t.Fatalf("register must not require a token, got %d", resp.Code)
	}
}
