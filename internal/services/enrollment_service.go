package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/gorm"

	"estate_backoffice/internal/models"
)

// EnrollmentService establishes enrollments together with their invoice
// batch. After creation the invoices are mutated only by InvoiceService.
type EnrollmentService struct {
	db *gorm.DB
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// CreateEnrollmentInput carries everything needed to establish an
// enrollment and its installment schedule.
type CreateEnrollmentInput struct {
	ClientID         uint      `json:"client_id"`
	PropertyID       uint      `json:"property_id"`
	AgentID          uint      `json:"agent_id"`
	PartnerID        *uint     `json:"partner_id,omitempty"`
	TotalAmount      float64   `json:"total_amount"`
	InstallmentCount int       `json:"installment_count"`
	FirstDueDate     time.Time `json:"first_due_date"`
}

// installmentDueDates generates one monthly due date per installment
// starting at first, via an RRULE occurrence expansion.
func installmentDueDates(first time.Time, count int) []time.Time {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.MONTHLY,
		Count:   count,
		Dtstart: first,
	})
	if err != nil {
		// ROption above is static apart from count/dtstart; expansion
		// cannot fail for count >= 1, but fall back to plain AddDate.
		dates := make([]time.Time, count)
		for i := range dates {
			dates[i] = first.AddDate(0, i, 0)
		}
		return dates
	}
	return rule.All()
}

// splitAmount divides a total into count installments rounded to 2 decimal
// places, with the last installment absorbing the rounding remainder so the
// parts always sum back to the total.
func splitAmount(total float64, count int) []float64 {
	amounts := make([]float64, count)
	base := math.Floor(total/float64(count)*100) / 100
	running := 0.0
	for i := 0; i < count-1; i++ {
		amounts[i] = base
		running += base
	}
	amounts[count-1] = math.Round((total-running)*100) / 100
	return amounts
}

// Create establishes an enrollment and its full invoice batch atomically.
func (s *EnrollmentService) Create(input CreateEnrollmentInput) (*models.Enrollment, error) {
	if input.InstallmentCount < 1 {
		return nil, fmt.Errorf("installment count must be at least 1: %w", ErrValidation)
	}
	if input.TotalAmount <= 0 {
		return nil, fmt.Errorf("total amount must be positive: %w", ErrValidation)
	}

	if err := s.db.First(&models.Client{}, input.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("client %d: %w", input.ClientID, ErrNotFound)
		}
		return nil, err
	}
	if err := s.db.First(&models.Property{}, input.PropertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("property %d: %w", input.PropertyID, ErrNotFound)
		}
		return nil, err
	}
	if err := s.db.First(&models.Agent{}, input.AgentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("agent %d: %w", input.AgentID, ErrNotFound)
		}
		return nil, err
	}
	if input.PartnerID != nil {
		if err := s.db.First(&models.Partner{}, *input.PartnerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("partner %d: %w", *input.PartnerID, ErrNotFound)
			}
			return nil, err
		}
	}

	enrollment := models.Enrollment{
		ClientID:         input.ClientID,
		PropertyID:       input.PropertyID,
		AgentID:          input.AgentID,
		PartnerID:        input.PartnerID,
		TotalAmount:      input.TotalAmount,
		InstallmentCount: input.InstallmentCount,
		Status:           models.EnrollmentStatusOngoing,
	}

	dueDates := installmentDueDates(input.FirstDueDate, input.InstallmentCount)
	amounts := splitAmount(input.TotalAmount, input.InstallmentCount)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}

		invoices := make([]models.Invoice, input.InstallmentCount)
		for i := range invoices {
			invoices[i] = models.Invoice{
				EnrollmentID:      enrollment.ID,
				InstallmentNumber: i + 1,
				DueDate:           dueDates[i],
				Amount:            amounts[i],
				Status:            models.InvoiceStatusPending,
			}
		}
		return tx.Create(&invoices).Error
	})
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Get loads an enrollment with its invoices ordered by installment number.
func (s *EnrollmentService) Get(enrollmentID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := s.db.Preload("Client").Preload("Property").Preload("Agent").Preload("Partner").
		Preload("Invoices", func(db *gorm.DB) *gorm.DB {
			return db.Order("installment_number asc")
		}).
		First(&enrollment, enrollmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, err
	}
	return &enrollment, nil
}

// List returns enrollments filtered by status, newest first.
func (s *EnrollmentService) List(status *models.EnrollmentStatus, limit, offset int) ([]models.Enrollment, int64, error) {
	query := s.db.Model(&models.Enrollment{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var enrollments []models.Enrollment
	err := query.Preload("Client").Preload("Property").
		Order("created_at desc").Limit(limit).Offset(offset).
		Find(&enrollments).Error
	if err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}
