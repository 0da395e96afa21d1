package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"estate_backoffice/internal/models"
)

// DisbursementService converts pending commissions into outbound transfers
// through the payment provider. A release is one provider call pair plus one
// transaction persisting the outcome; a failed release stays FAILED and is
// only retried by an explicit new release call.
type DisbursementService struct {
	db       *gorm.DB
	cache    *RedisCache
	provider TransferClient
}

func NewDisbursementService(db *gorm.DB, cache *RedisCache, provider TransferClient) *DisbursementService {
	return &DisbursementService{db: db, cache: cache, provider: provider}
}

// recipientInfo is the resolved payout target for a disbursement.
type recipientInfo struct {
	Name string
	Bank models.BankDetails
}

// resolveRecipient looks up the payout target by recipient kind.
func resolveRecipient(db *gorm.DB, kind models.RecipientKind, recipientID uint) (*recipientInfo, error) {
	switch kind {
	case models.RecipientKindAgent:
		var agent models.Agent
		if err := db.First(&agent, recipientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("agent %d: %w", recipientID, ErrRecipientNotFound)
			}
			return nil, err
		}
		return &recipientInfo{Name: agent.Name, Bank: agent.BankDetails}, nil
	case models.RecipientKindPartner:
		var partner models.Partner
		if err := db.First(&partner, recipientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("partner %d: %w", recipientID, ErrRecipientNotFound)
			}
			return nil, err
		}
		return &recipientInfo{Name: partner.Name, Bank: partner.BankDetails}, nil
	}
	return nil, fmt.Errorf("unknown recipient kind %q: %w", kind, ErrValidation)
}

// TransferReference builds the locally generated idempotent reference for a
// release attempt.
func TransferReference(disbursementID uint, now time.Time) string {
	return fmt.Sprintf("DISB-%d-%d", disbursementID, now.Unix())
}

// Create opens a PENDING disbursement for a pending commission and
// back-links the commission to it.
func (s *DisbursementService) Create(commissionID uint, actor string) (*models.Disbursement, error) {
	var result models.Disbursement

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var commission models.Commission
		if err := tx.First(&commission, commissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("commission %d: %w", commissionID, ErrNotFound)
			}
			return err
		}

		if commission.DisbursementID != nil {
			return fmt.Errorf("commission %d is linked to disbursement %d: %w",
				commission.ID, *commission.DisbursementID, ErrAlreadyDisbursed)
		}
		if commission.Status != models.CommissionStatusPending {
			return fmt.Errorf("commission %d has status %s: %w", commission.ID, commission.Status, ErrNotPending)
		}

		recipient, err := resolveRecipient(tx, commission.RecipientKind, commission.RecipientID)
		if err != nil {
			return err
		}
		if !recipient.Bank.Configured() {
			return fmt.Errorf("%s %d: %w", commission.RecipientKind, commission.RecipientID, ErrMissingBankDetails)
		}

		disbursement := models.Disbursement{
			Type:          models.DisbursementTypeCommission,
			RecipientID:   commission.RecipientID,
			RecipientKind: commission.RecipientKind,
			Amount:        commission.Amount,
			Status:        models.DisbursementStatusPending,
			CreatedBy:     actor,
		}
		if err := tx.Create(&disbursement).Error; err != nil {
			return err
		}

		// The back-link is the arbiter: the conditional update only lands
		// while the commission is still unlinked, so a concurrent Create for
		// the same commission loses here and rolls its disbursement back.
		link := tx.Model(&commission).
			Where("disbursement_id IS NULL").
			Update("disbursement_id", disbursement.ID)
		if link.Error != nil {
			return link.Error
		}
		if link.RowsAffected == 0 {
			return fmt.Errorf("commission %d: %w", commission.ID, ErrAlreadyDisbursed)
		}

		result = disbursement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// BulkItemResult is the outcome of one item in a bulk create.
type BulkItemResult struct {
	CommissionID   uint   `json:"commission_id"`
	DisbursementID uint   `json:"disbursement_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CreateBulk processes commissions independently; one failure never aborts
// or rolls back the rest of the batch.
func (s *DisbursementService) CreateBulk(commissionIDs []uint, actor string) []BulkItemResult {
	results := make([]BulkItemResult, 0, len(commissionIDs))
	for _, id := range commissionIDs {
		item := BulkItemResult{CommissionID: id}
		disbursement, err := s.Create(id, actor)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.DisbursementID = disbursement.ID
		}
		results = append(results, item)
	}
	return results
}

// Release pushes a pending disbursement through the provider: register the
// transfer recipient, initiate the transfer, then persist the outcome. When
// bank is nil the recipient's stored bank details are used.
func (s *DisbursementService) Release(ctx context.Context, disbursementID uint, bank *models.BankDetails, actor string) (*models.Disbursement, error) {
	var disbursement models.Disbursement
	if err := s.db.First(&disbursement, disbursementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("disbursement %d: %w", disbursementID, ErrNotFound)
		}
		return nil, err
	}

	// PENDING releases normally; FAILED may be retried by an explicit call.
	switch disbursement.Status {
	case models.DisbursementStatusPending, models.DisbursementStatusFailed:
	case models.DisbursementStatusReleasing:
		return nil, fmt.Errorf("disbursement %d: %w", disbursement.ID, ErrReleaseInProgress)
	default:
		return nil, fmt.Errorf("disbursement %d has status %s: %w",
			disbursement.ID, disbursement.Status, ErrNotReleasable)
	}

	// Short-lived Redis lock as a fast pre-filter. If the lock cannot be
	// taken, fail closed; exclusivity is still enforced below either way.
	if s.cache != nil {
		lockKey := fmt.Sprintf("disbursement:release:%d", disbursement.ID)
		ok, err := s.cache.AcquireLock(ctx, lockKey, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("release lock for disbursement %d unavailable: %v: %w",
				disbursement.ID, err, ErrReleaseInProgress)
		}
		if !ok {
			return nil, fmt.Errorf("disbursement %d: %w", disbursement.ID, ErrReleaseInProgress)
		}
		defer func() {
			_ = s.cache.ReleaseLock(ctx, lockKey)
		}()
	}

	recipient, err := resolveRecipient(s.db, disbursement.RecipientKind, disbursement.RecipientID)
	if err != nil {
		return nil, err
	}
	if bank == nil {
		bank = &recipient.Bank
	}
	if !bank.Configured() {
		return nil, fmt.Errorf("%s %d: %w", disbursement.RecipientKind, disbursement.RecipientID, ErrMissingBankDetails)
	}

	// Claim the row before any provider I/O. The conditional update is the
	// arbiter: exactly one attempt moves the row to RELEASING, so the
	// provider is never called twice for one disbursement even without
	// Redis. Every claimed attempt terminates in RELEASED or FAILED.
	claim := s.db.Model(&models.Disbursement{}).
		Where("id = ? AND status IN ?", disbursement.ID, []models.DisbursementStatus{
			models.DisbursementStatusPending, models.DisbursementStatusFailed,
		}).
		Update("status", models.DisbursementStatusReleasing)
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, fmt.Errorf("disbursement %d: %w", disbursement.ID, ErrReleaseInProgress)
	}

	now := time.Now()
	reference := TransferReference(disbursement.ID, now)
	amountMinor := ToMinorUnits(disbursement.Amount)

	transferRecipient, raw, err := s.provider.CreateTransferRecipient(*bank, recipient.Name)
	if err != nil {
		s.persistFailure(&disbursement, raw, actor)
		return nil, fmt.Errorf("recipient registration rejected for disbursement %d: %v: %w",
			disbursement.ID, err, ErrTransferFailed)
	}

	transfer, raw, err := s.provider.InitiateTransfer(amountMinor, transferRecipient.RecipientCode, reference)
	if err != nil {
		s.persistFailure(&disbursement, raw, actor)
		return nil, fmt.Errorf("transfer rejected for disbursement %d: %v: %w",
			disbursement.ID, err, ErrTransferFailed)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":             models.DisbursementStatusReleased,
			"released_at":        now,
			"transfer_code":      transfer.TransferCode,
			"transfer_reference": reference,
			"provider_response":  json.RawMessage(raw),
			"released_by":        actor,
		}
		if err := tx.Model(&disbursement).Updates(updates).Error; err != nil {
			return err
		}

		// The linked commission flips to PAID in the same transaction so a
		// released disbursement can never leave its commission pending.
		var commission models.Commission
		err := tx.Where("disbursement_id = ?", disbursement.ID).First(&commission).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // ad-hoc disbursement, no commission to settle
			}
			return err
		}

		return tx.Model(&commission).Updates(map[string]interface{}{
			"status":  models.CommissionStatusPaid,
			"paid_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&disbursement, disbursement.ID).Error; err != nil {
		return nil, err
	}
	return &disbursement, nil
}

// persistFailure records a provider rejection: FAILED status with the raw
// response retained for audit. A fresh Release call retries.
func (s *DisbursementService) persistFailure(disbursement *models.Disbursement, raw json.RawMessage, actor string) {
	updates := map[string]interface{}{
		"status":      models.DisbursementStatusFailed,
		"released_by": actor,
	}
	if len(raw) > 0 {
		updates["provider_response"] = raw
	}
	if err := s.db.Model(disbursement).Updates(updates).Error; err != nil {
		log.Printf("Failed to persist FAILED state for disbursement %d: %v", disbursement.ID, err)
	}
}

// StatusStat is the count and amount sum for one disbursement status.
type StatusStat struct {
	Count int64   `json:"count"`
	Total float64 `json:"total"`
}

// DisbursementStats aggregates disbursements by status.
type DisbursementStats struct {
	Pending  StatusStat `json:"pending"`
	Released StatusStat `json:"released"`
	Failed   StatusStat `json:"failed"`
}

// Stats aggregates counts and sums by status, optionally windowed by
// creation date and scoped to one recipient kind. Read-only.
func (s *DisbursementService) Stats(from, to *time.Time, kind *models.RecipientKind) (*DisbursementStats, error) {
	query := s.db.Model(&models.Disbursement{})
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}
	if kind != nil {
		query = query.Where("recipient_kind = ?", *kind)
	}

	var rows []struct {
		Status models.DisbursementStatus
		Count  int64
		Total  float64
	}
	err := query.Select("status, count(*) as count, coalesce(sum(amount), 0) as total").
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := DisbursementStats{}
	for _, row := range rows {
		stat := StatusStat{Count: row.Count, Total: row.Total}
		switch row.Status {
		case models.DisbursementStatusPending:
			stats.Pending = stat
		case models.DisbursementStatusReleased:
			stats.Released = stat
		case models.DisbursementStatusFailed:
			stats.Failed = stat
		}
	}
	return &stats, nil
}
