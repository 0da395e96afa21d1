package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"estate_backoffice/internal/models"
)

// stubTransferClient fakes the provider's transfer surface.
type stubTransferClient struct {
	recipientErr error
	transferErr  error
	raw          json.RawMessage
	transfers    int
}

func (s *stubTransferClient) CreateTransferRecipient(bank models.BankDetails, name string) (*TransferRecipient, json.RawMessage, error) {
	if s.recipientErr != nil {
		return nil, s.raw, s.recipientErr
	}
	return &TransferRecipient{RecipientCode: "RCP_1"}, s.raw, nil
}

func (s *stubTransferClient) InitiateTransfer(amount int64, recipientCode, reference string) (*TransferResult, json.RawMessage, error) {
	s.transfers++
	if s.transferErr != nil {
		return nil, s.raw, s.transferErr
	}
	return &TransferResult{TransferCode: "TRF_1", Status: "pending"}, s.raw, nil
}

func newDisbursementTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(&models.Agent{}, &models.Partner{}, &models.Commission{}, &models.Disbursement{})
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedPendingCommission(t *testing.T, db *gorm.DB) *models.Commission {
	t.Helper()
	agent := models.Agent{
		Name:  "Jane Doe",
		Email: "jane@agents.test",
		BankDetails: models.BankDetails{
			BankCode:      "058",
			AccountNumber: "0123456789",
			AccountName:   "Jane Doe",
		},
	}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("failed to seed agent: %v", err)
	}

	commission := models.Commission{
		EnrollmentID:  1,
		InvoiceID:     1,
		RecipientID:   agent.ID,
		RecipientKind: models.RecipientKindAgent,
		Percent:       7,
		Amount:        7000,
		Status:        models.CommissionStatusPending,
	}
	if err := db.Create(&commission).Error; err != nil {
		t.Fatalf("failed to seed commission: %v", err)
	}
	return &commission
}

func TestCreateLinksCommissionOnce(t *testing.T) {
	db := newDisbursementTestDB(t)
	commission := seedPendingCommission(t, db)
	svc := NewDisbursementService(db, nil, &stubTransferClient{})

	first, err := svc.Create(commission.ID, "admin@test")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.Status != models.DisbursementStatusPending {
		t.Errorf("disbursement status = %s; want PENDING", first.Status)
	}

	if _, err := svc.Create(commission.ID, "admin@test"); !errors.Is(err, ErrAlreadyDisbursed) {
		t.Fatalf("second Create() error = %v; want ErrAlreadyDisbursed", err)
	}

	var count int64
	db.Model(&models.Disbursement{}).Count(&count)
	if count != 1 {
		t.Errorf("disbursement count = %d; want 1", count)
	}

	var reloaded models.Commission
	db.First(&reloaded, commission.ID)
	if reloaded.DisbursementID == nil || *reloaded.DisbursementID != first.ID {
		t.Errorf("commission links disbursement %v; want %d", reloaded.DisbursementID, first.ID)
	}
}

func TestReleaseTransferRejected(t *testing.T) {
	db := newDisbursementTestDB(t)
	commission := seedPendingCommission(t, db)

	stub := &stubTransferClient{
		recipientErr: errors.New("Invalid account number"),
		raw:          json.RawMessage(`{"status":false,"message":"Invalid account number"}`),
	}
	svc := NewDisbursementService(db, nil, stub)

	disbursement, err := svc.Create(commission.ID, "admin@test")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.Release(context.Background(), disbursement.ID, nil, "admin@test")
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("Release() error = %v; want ErrTransferFailed", err)
	}

	var reloaded models.Disbursement
	db.First(&reloaded, disbursement.ID)
	if reloaded.Status != models.DisbursementStatusFailed {
		t.Errorf("disbursement status = %s; want FAILED", reloaded.Status)
	}
	if !strings.Contains(string(reloaded.ProviderResponse), "Invalid account number") {
		t.Errorf("provider response %q does not retain the rejection", reloaded.ProviderResponse)
	}
	if reloaded.ReleasedBy != "admin@test" {
		t.Errorf("released_by = %q; want admin@test", reloaded.ReleasedBy)
	}

	var reloadedCommission models.Commission
	db.First(&reloadedCommission, commission.ID)
	if reloadedCommission.Status != models.CommissionStatusPending {
		t.Errorf("commission status = %s; want PENDING after failed release", reloadedCommission.Status)
	}
}

func TestReleaseSuccessSettlesCommission(t *testing.T) {
	db := newDisbursementTestDB(t)
	commission := seedPendingCommission(t, db)

	stub := &stubTransferClient{raw: json.RawMessage(`{"status":true,"data":{"transfer_code":"TRF_1"}}`)}
	svc := NewDisbursementService(db, nil, stub)

	disbursement, err := svc.Create(commission.ID, "admin@test")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	released, err := svc.Release(context.Background(), disbursement.ID, nil, "admin@test")
	if err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if released.Status != models.DisbursementStatusReleased {
		t.Errorf("disbursement status = %s; want RELEASED", released.Status)
	}
	if released.TransferCode != "TRF_1" {
		t.Errorf("transfer code = %q; want TRF_1", released.TransferCode)
	}
	if !strings.HasPrefix(released.TransferReference, "DISB-") {
		t.Errorf("transfer reference = %q; want DISB- prefix", released.TransferReference)
	}
	if released.ReleasedAt == nil {
		t.Error("released_at not set")
	}

	var reloadedCommission models.Commission
	db.First(&reloadedCommission, commission.ID)
	if reloadedCommission.Status != models.CommissionStatusPaid {
		t.Errorf("commission status = %s; want PAID", reloadedCommission.Status)
	}
	if reloadedCommission.PaidAt == nil {
		t.Error("commission paid_at not set")
	}
}

func TestReleaseFailedRetrySucceeds(t *testing.T) {
	db := newDisbursementTestDB(t)
	commission := seedPendingCommission(t, db)

	stub := &stubTransferClient{
		transferErr: errors.New("Insufficient balance"),
		raw:         json.RawMessage(`{"status":false,"message":"Insufficient balance"}`),
	}
	svc := NewDisbursementService(db, nil, stub)

	disbursement, err := svc.Create(commission.ID, "admin@test")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Release(context.Background(), disbursement.ID, nil, "admin@test"); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("first Release() error = %v; want ErrTransferFailed", err)
	}

	stub.transferErr = nil
	stub.raw = json.RawMessage(`{"status":true,"data":{"transfer_code":"TRF_1"}}`)

	released, err := svc.Release(context.Background(), disbursement.ID, nil, "admin@test")
	if err != nil {
		t.Fatalf("retry Release() error = %v", err)
	}
	if released.Status != models.DisbursementStatusReleased {
		t.Errorf("disbursement status = %s; want RELEASED after retry", released.Status)
	}
	if stub.transfers != 2 {
		t.Errorf("provider transfer calls = %d; want 2", stub.transfers)
	}
}

func TestReleaseGuardsAgainstConcurrentAttempts(t *testing.T) {
	db := newDisbursementTestDB(t)
	commission := seedPendingCommission(t, db)

	stub := &stubTransferClient{}
	svc := NewDisbursementService(db, nil, stub)

	disbursement, err := svc.Create(commission.ID, "admin@test")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Another attempt holds the claim.
	db.Model(&models.Disbursement{}).Where("id = ?", disbursement.ID).
		Update("status", models.DisbursementStatusReleasing)

	if _, err := svc.Release(context.Background(), disbursement.ID, nil, "admin@test"); !errors.Is(err, ErrReleaseInProgress) {
		t.Fatalf("Release() error = %v; want ErrReleaseInProgress", err)
	}
	if stub.transfers != 0 {
		t.Errorf("provider transfer calls = %d; want 0 while another attempt holds the claim", stub.transfers)
	}

	// A released disbursement is terminal.
	db.Model(&models.Disbursement{}).Where("id = ?", disbursement.ID).
		Update("status", models.DisbursementStatusReleased)

	if _, err := svc.Release(context.Background(), disbursement.ID, nil, "admin@test"); !errors.Is(err, ErrNotReleasable) {
		t.Fatalf("Release() error = %v; want ErrNotReleasable", err)
	}
}
