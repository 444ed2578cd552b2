package profile

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/services"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type VerifyInput struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

type ProfileListItem struct {
	ID                 uint       `json:"id"`
	UserID             uint       `json:"user_id"`
	RegisterNumber     string     `json:"register_number"`
	Status             string     `json:"status"`
	AvailableLoanLimit int64      `json:"available_loan_limit"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type ProfileListResponse struct {
	Profiles []ProfileListItem `json:"profiles"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// List godoc
// @Summary List KYC profiles
// @Description Paginated profile listing for review. Staff only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} utils.Response{data=ProfileListResponse}
// @Router /admin/profiles [get]
func List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	profiles, total, err := services.FindProfiles(services.ProfileFilter{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch profiles"))
		return
	}

	items := make([]ProfileListItem, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, ProfileListItem{
			ID:                 p.ID,
			UserID:             p.UserID,
			RegisterNumber:     p.RegisterNumber,
			Status:             string(p.Status),
			AvailableLoanLimit: p.AvailableLoanLimit,
			VerifiedAt:         p.VerifiedAt,
			CreatedAt:          p.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Profiles retrieved successfully", ProfileListResponse{
		Profiles: items,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}))
}

// Verify godoc
// @Summary Approve or reject a KYC profile
// @Description Rejection requires a reason; the customer can fix and resubmit
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Profile ID"
// @Param input body VerifyInput true "Decision"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /admin/profiles/{id}/verify [post]
func Verify(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid profile ID"))
		return
	}

	var input VerifyInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	admin := c.MustGet("user").(models.User)
	p, err := services.VerifyProfile(uint(id), admin.ID, input.Approve, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
		case errors.Is(err, services.ErrProfileNotPending):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
		case errors.Is(err, services.ErrReasonRequired):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to verify profile"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Profile reviewed", gin.H{
		"id":     p.ID,
		"status": p.Status,
	}))
}
