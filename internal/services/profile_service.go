package services

import (
	"errors"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileExists       = errors.New("profile already submitted")
	ErrProfileNotPending   = errors.New("profile is not awaiting review")
	ErrReasonRequired      = errors.New("rejection reason is required")
	ErrLimitExceeded       = errors.New("loan limit exceeded")
	ErrProfileNotApproved  = errors.New("profile is not approved")
	ErrRegisterNumberTaken = errors.New("register number already in use")
)

// ProfileInput carries the KYC fields a customer submits for review.
type ProfileInput struct {
	RegisterNumber    string
	DateOfBirth       string
	Gender            string
	Address           []byte
	EmergencyContact  []byte
	Education         []byte
	Employment        []byte
	BankName          string
	BankAccountNumber string
	BankAccountName   string
}

// SubmitProfile creates the user's KYC profile, or resubmits a rejected
// one. Pending and approved profiles cannot be overwritten.
func SubmitProfile(userID uint, input ProfileInput) (*models.Profile, error) {
	var existing models.Profile
	err := database.DB.Where("user_id = ?", userID).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status != models.ProfileStatusRejected {
			return nil, ErrProfileExists
		}
		return resubmitProfile(&existing, input)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first submission
	default:
		return nil, err
	}

	var count int64
	if err := database.DB.Model(&models.Profile{}).
		Where("register_number = ?", input.RegisterNumber).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrRegisterNumberTaken
	}

	profile := &models.Profile{
		UserID:            userID,
		RegisterNumber:    input.RegisterNumber,
		DateOfBirth:       input.DateOfBirth,
		Gender:            input.Gender,
		Address:           input.Address,
		EmergencyContact:  input.EmergencyContact,
		Education:         input.Education,
		Employment:        input.Employment,
		BankName:          input.BankName,
		BankAccountNumber: input.BankAccountNumber,
		BankAccountName:   input.BankAccountName,
		Status:            models.ProfileStatusPending,
	}
	if err := database.DB.Create(profile).Error; err != nil {
		return nil, err
	}

	logger.Log.Info("profile submitted", zap.Uint("user_id", userID))
	return profile, nil
}

func resubmitProfile(profile *models.Profile, input ProfileInput) (*models.Profile, error) {
	if input.RegisterNumber != profile.RegisterNumber {
		var count int64
		if err := database.DB.Model(&models.Profile{}).
			Where("register_number = ? AND id <> ?", input.RegisterNumber, profile.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrRegisterNumberTaken
		}
	}

	currentVersion := profile.Version
	profile.RegisterNumber = input.RegisterNumber
	profile.DateOfBirth = input.DateOfBirth
	profile.Gender = input.Gender
	profile.Address = input.Address
	profile.EmergencyContact = input.EmergencyContact
	profile.Education = input.Education
	profile.Employment = input.Employment
	profile.BankName = input.BankName
	profile.BankAccountNumber = input.BankAccountNumber
	profile.BankAccountName = input.BankAccountName
	profile.Status = models.ProfileStatusPending
	profile.RejectionReason = ""
	profile.VerifiedAt = nil
	profile.VerifiedBy = nil
	profile.Version++

	result := database.DB.Model(&models.Profile{}).
		Where("id = ? AND version = ?", profile.ID, currentVersion).
		Updates(map[string]interface{}{
			"register_number":     profile.RegisterNumber,
			"date_of_birth":       profile.DateOfBirth,
			"gender":              profile.Gender,
			"address":             profile.Address,
			"emergency_contact":   profile.EmergencyContact,
			"education":           profile.Education,
			"employment":          profile.Employment,
			"bank_name":           profile.BankName,
			"bank_account_number": profile.BankAccountNumber,
			"bank_account_name":   profile.BankAccountName,
			"status":              profile.Status,
			"rejection_reason":    "",
			"verified_at":         nil,
			"verified_by":         nil,
			"version":             profile.Version,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrOptimisticLock
	}

	logger.Log.Info("profile resubmitted", zap.Uint("user_id", profile.UserID))
	return profile, nil
}

// GetProfileByUserID returns the user's KYC profile.
func GetProfileByUserID(userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// ProfileFilter narrows admin profile listings.
type ProfileFilter struct {
	Status string
	Page   int
	Limit  int
}

// FindProfiles lists profiles for admin review, newest first.
func FindProfiles(filter ProfileFilter) ([]models.Profile, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	query := database.DB.Model(&models.Profile{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []models.Profile
	offset := (filter.Page - 1) * filter.Limit
	err := query.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// VerifyProfile approves or rejects a pending KYC profile. Rejection
// requires a reason so the customer knows what to fix before resubmitting.
func VerifyProfile(profileID uint, adminID uint, approve bool, reason string) (*models.Profile, error) {
	var profile models.Profile
	if err := database.DB.First(&profile, profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if profile.Status != models.ProfileStatusPending {
		return nil, ErrProfileNotPending
	}
	if !approve && reason == "" {
		return nil, ErrReasonRequired
	}

	now := time.Now()
	currentVersion := profile.Version
	updates := map[string]interface{}{
		"version": currentVersion + 1,
	}
	if approve {
		profile.Status = models.ProfileStatusApproved
		profile.VerifiedAt = &now
		profile.VerifiedBy = &adminID
		updates["status"] = models.ProfileStatusApproved
		updates["verified_at"] = now
		updates["verified_by"] = adminID
	} else {
		profile.Status = models.ProfileStatusRejected
		profile.RejectionReason = reason
		updates["status"] = models.ProfileStatusRejected
		updates["rejection_reason"] = reason
	}
	profile.Version = currentVersion + 1

	result := database.DB.Model(&models.Profile{}).
		Where("id = ? AND version = ?", profile.ID, currentVersion).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrOptimisticLock
	}

	event := EventProfileApproved
	if !approve {
		event = EventProfileRejected
	}
	Notify(profile.UserID, event, map[string]interface{}{"profile_id": profile.ID})

	logger.Log.Info("profile reviewed",
		zap.Uint("profile_id", profile.ID),
		zap.Uint("admin_id", adminID),
		zap.String("status", string(profile.Status)))
	return &profile, nil
}

// lockProfileForUser loads the user's profile under a row lock inside tx.
func lockProfileForUser(tx *gorm.DB, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// setLoanLimitTx replaces the profile's available loan limit inside tx.
// Approval uses this to grant the full reviewed amount.
func setLoanLimitTx(tx *gorm.DB, profile *models.Profile, limit int64) error {
	return updateLimitTx(tx, profile, limit)
}

// consumeLoanLimitTx deducts a disbursement from the available limit.
func consumeLoanLimitTx(tx *gorm.DB, profile *models.Profile, amount int64) error {
	if amount > profile.AvailableLoanLimit {
		return ErrLimitExceeded
	}
	return updateLimitTx(tx, profile, profile.AvailableLoanLimit-amount)
}

// restoreLoanLimitTx returns principal to the available limit after a
// loan is fully settled.
func restoreLoanLimitTx(tx *gorm.DB, profile *models.Profile, amount int64) error {
	return updateLimitTx(tx, profile, profile.AvailableLoanLimit+amount)
}

func updateLimitTx(tx *gorm.DB, profile *models.Profile, limit int64) error {
	currentVersion := profile.Version
	profile.AvailableLoanLimit = limit
	profile.Version++

	result := tx.Model(&models.Profile{}).
		Where("id = ? AND version = ?", profile.ID, currentVersion).
		Updates(map[string]interface{}{
			"available_loan_limit": limit,
			"version":              profile.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}
