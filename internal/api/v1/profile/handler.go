package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/services"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

func toResponse(p *models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:                 p.ID,
		UserID:             p.UserID,
		RegisterNumber:     p.RegisterNumber,
		DateOfBirth:        p.DateOfBirth,
		Gender:             p.Gender,
		Address:            json.RawMessage(p.Address),
		EmergencyContact:   json.RawMessage(p.EmergencyContact),
		Education:          json.RawMessage(p.Education),
		Employment:         json.RawMessage(p.Employment),
		BankName:           p.BankName,
		BankAccountNumber:  p.BankAccountNumber,
		BankAccountName:    p.BankAccountName,
		Status:             string(p.Status),
		RejectionReason:    p.RejectionReason,
		AvailableLoanLimit: p.AvailableLoanLimit,
		VerifiedAt:         p.VerifiedAt,
		CreatedAt:          p.CreatedAt,
	}
}

// Submit godoc
// @Summary Submit the KYC profile for review
// @Description Creates the profile, or resubmits it after a rejection
// @Tags profile
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body SubmitInput true "Profile fields"
// @Success 201 {object} utils.Response{data=ProfileResponse}
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /profile [post]
func Submit(c *gin.Context) {
	var input SubmitInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	user := c.MustGet("user").(models.User)
	p, err := services.SubmitProfile(user.ID, services.ProfileInput{
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
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProfileExists):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
		case errors.Is(err, services.ErrRegisterNumberTaken):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to submit profile"))
		}
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Profile submitted for review", toResponse(p)))
}

// Get godoc
// @Summary Get my KYC profile
// @Tags profile
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=ProfileResponse}
// @Failure 404 {object} utils.Response
// @Router /profile [get]
func Get(c *gin.Context) {
	user := c.MustGet("user").(models.User)
	p, err := services.GetProfileByUserID(user.ID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch profile"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Profile retrieved successfully", toResponse(p)))
}
