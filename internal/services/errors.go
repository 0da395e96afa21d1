package services

import "errors"

// Sentinel errors surfaced by the billing and disbursement services.
// Handlers match these with errors.Is to pick HTTP status codes.
var (
	ErrNotFound = errors.New("record not found")

	// Invoice lifecycle
	ErrAlreadyPaid      = errors.New("invoice is already paid")
	ErrInvoiceCancelled = errors.New("invoice is cancelled")
	ErrOutOfOrder       = errors.New("earlier installments are unpaid")
	ErrNotPaid          = errors.New("invoice is not paid")
	ErrNotMostRecent    = errors.New("invoice is not the most recently paid")

	// Commissions
	ErrCommissionDisbursed = errors.New("commission already has a disbursement")

	// Disbursements
	ErrAlreadyDisbursed   = errors.New("commission is already disbursed")
	ErrNotPending         = errors.New("commission is not pending")
	ErrMissingBankDetails = errors.New("recipient has no bank details configured")
	ErrNotReleasable      = errors.New("disbursement is not releasable")
	ErrTransferFailed     = errors.New("provider transfer failed")
	ErrReleaseInProgress  = errors.New("a release attempt is already in progress")

	// Disbursement config
	ErrAlreadyPresent    = errors.New("recipient already in exception list")
	ErrNotPresent        = errors.New("recipient not in exception list")
	ErrRecipientNotFound = errors.New("recipient not found")

	// Payment ingestion
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrLinkExpired      = errors.New("payment link has expired")
	ErrLinkInactive     = errors.New("payment link is inactive")
	ErrLinkUsed         = errors.New("payment link has already been used")

	ErrValidation = errors.New("invalid input")
)
