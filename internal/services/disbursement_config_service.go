package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"estate_backoffice/internal/models"
)

// DisbursementConfigService owns the auto-disbursement policy record.
// The config is read fresh for every decision; it is never cached in
// process, so a policy change takes effect on the next payment.
type DisbursementConfigService struct {
	db *gorm.DB
}

func NewDisbursementConfigService(db *gorm.DB) *DisbursementConfigService {
	return &DisbursementConfigService{db: db}
}

// Get returns the policy record, materializing the default
// (NONE_EXCEPT, empty exception list) on first read.
func (s *DisbursementConfigService) Get() (*models.DisbursementConfig, error) {
	var config models.DisbursementConfig
	err := s.db.Order("id").
		Attrs(models.DisbursementConfig{
			Mode:       models.DisbursementModeNoneExcept,
			Exceptions: []models.RecipientRef{},
		}).
		FirstOrCreate(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// ShouldAutoDisburse decides whether commissions for this recipient are
// disbursed without manual approval.
func (s *DisbursementConfigService) ShouldAutoDisburse(kind models.RecipientKind, recipientID uint) (bool, error) {
	config, err := s.Get()
	if err != nil {
		return false, err
	}
	return config.AutoDisburse(kind, recipientID), nil
}

// SetMode switches between ALL_EXCEPT and NONE_EXCEPT.
func (s *DisbursementConfigService) SetMode(mode models.DisbursementMode) (*models.DisbursementConfig, error) {
	if mode != models.DisbursementModeAllExcept && mode != models.DisbursementModeNoneExcept {
		return nil, fmt.Errorf("unknown mode %q: %w", mode, ErrValidation)
	}

	config, err := s.Get()
	if err != nil {
		return nil, err
	}

	config.Mode = mode
	if err := s.db.Save(config).Error; err != nil {
		return nil, err
	}
	return config, nil
}

// AddException puts a recipient on the exception list. The recipient must
// resolve to an existing agent or partner.
func (s *DisbursementConfigService) AddException(kind models.RecipientKind, recipientID uint) (*models.DisbursementConfig, error) {
	if err := s.recipientExists(kind, recipientID); err != nil {
		return nil, err
	}

	config, err := s.Get()
	if err != nil {
		return nil, err
	}

	if config.HasException(kind, recipientID) {
		return nil, fmt.Errorf("%s %d: %w", kind, recipientID, ErrAlreadyPresent)
	}

	config.Exceptions = append(config.Exceptions, models.RecipientRef{Kind: kind, ID: recipientID})
	if err := s.db.Save(config).Error; err != nil {
		return nil, err
	}
	return config, nil
}

// RemoveException takes a recipient off the exception list.
func (s *DisbursementConfigService) RemoveException(kind models.RecipientKind, recipientID uint) (*models.DisbursementConfig, error) {
	config, err := s.Get()
	if err != nil {
		return nil, err
	}

	if !config.HasException(kind, recipientID) {
		return nil, fmt.Errorf("%s %d: %w", kind, recipientID, ErrNotPresent)
	}

	kept := config.Exceptions[:0]
	for _, ref := range config.Exceptions {
		if ref.Kind != kind || ref.ID != recipientID {
			kept = append(kept, ref)
		}
	}
	config.Exceptions = kept

	if err := s.db.Save(config).Error; err != nil {
		return nil, err
	}
	return config, nil
}

func (s *DisbursementConfigService) recipientExists(kind models.RecipientKind, recipientID uint) error {
	var err error
	switch kind {
	case models.RecipientKindAgent:
		err = s.db.First(&models.Agent{}, recipientID).Error
	case models.RecipientKindPartner:
		err = s.db.First(&models.Partner{}, recipientID).Error
	default:
		return fmt.Errorf("unknown recipient kind %q: %w", kind, ErrValidation)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", kind, recipientID, ErrRecipientNotFound)
	}
	return err
}
