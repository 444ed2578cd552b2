package services

import (
	"os"
	"testing"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func seedBareUser() models.User {
	user := models.User{
		Phone:    "95112233",
		Email:    "bare@test.mn",
		Password: "hashed",
		Role:     models.RoleCustomer,
		IsActive: true,
		Version:  1,
	}
	database.DB.Create(&user)
	return user
}

func sampleProfileInput() ProfileInput {
	return ProfileInput{
		RegisterNumber:    "UK95012345",
		DateOfBirth:       "1995-01-23",
		Gender:            "female",
		Address:           []byte(`{"city":"Ulaanbaatar","district":"Bayanzurkh"}`),
		EmergencyContact:  []byte(`{"name":"D. Dulam","phone":"99887766"}`),
		BankName:          "Golomt",
		BankAccountNumber: "1234567890",
		BankAccountName:   "S. Saran",
	}
}

func TestSubmitAndVerifyProfile(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupWalletTestDB()
	mr := setupWalletTestRedis()
	defer mr.Close()

	user := seedBareUser()
	admin := seedAdmin()

	p, err := SubmitProfile(user.ID, sampleProfileInput())
	assert.NoError(t, err)
	assert.Equal(t, models.ProfileStatusPending, p.Status)
	assert.Equal(t, int64(0), p.AvailableLoanLimit)

	// Pending profile cannot be overwritten.
	_, err = SubmitProfile(user.ID, sampleProfileInput())
	assert.ErrorIs(t, err, ErrProfileExists)

	// Rejection requires a reason.
	_, err = VerifyProfile(p.ID, admin.ID, false, "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	rejected, err := VerifyProfile(p.ID, admin.ID, false, "register number unreadable")
	assert.NoError(t, err)
	assert.Equal(t, models.ProfileStatusRejected, rejected.Status)
	assert.Equal(t, "register number unreadable", rejected.RejectionReason)

	// A rejected profile may be resubmitted with corrected fields.
	input := sampleProfileInput()
	input.RegisterNumber = "UK95054321"
	resubmitted, err := SubmitProfile(user.ID, input)
	assert.NoError(t, err)
	assert.Equal(t, models.ProfileStatusPending, resubmitted.Status)
	assert.Equal(t, "UK95054321", resubmitted.RegisterNumber)
	assert.Empty(t, resubmitted.RejectionReason)

	approved, err := VerifyProfile(resubmitted.ID, admin.ID, true, "")
	assert.NoError(t, err)
	assert.Equal(t, models.ProfileStatusApproved, approved.Status)
	assert.NotNil(t, approved.VerifiedAt)
	assert.Equal(t, admin.ID, *approved.VerifiedBy)

	// A decided profile cannot be decided again.
	_, err = VerifyProfile(resubmitted.ID, admin.ID, true, "")
	assert.ErrorIs(t, err, ErrProfileNotPending)

	// An approved profile cannot be overwritten.
	_, err = SubmitProfile(user.ID, sampleProfileInput())
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestSubmitProfileRegisterNumberTaken(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupWalletTestDB()
	mr := setupWalletTestRedis()
	defer mr.Close()

	first := seedBorrower(0, 0)
	var firstProfile models.Profile
	database.DB.Where("user_id = ?", first.ID).First(&firstProfile)

	user := seedBareUser()
	input := sampleProfileInput()
	input.RegisterNumber = firstProfile.RegisterNumber

	_, err := SubmitProfile(user.ID, input)
	assert.ErrorIs(t, err, ErrRegisterNumberTaken)
}
