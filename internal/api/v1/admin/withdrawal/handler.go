package withdrawal

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

type ApproveInput struct {
	Notes string `json:"notes"`
}

type RejectInput struct {
	Reason string `json:"reason" binding:"required"`
}

type WithdrawalListItem struct {
	ID            uint       `json:"id"`
	UserID        uint       `json:"user_id"`
	Amount        int64      `json:"amount"`
	BankName      string     `json:"bank_name"`
	AccountNumber string     `json:"account_number"`
	AccountName   string     `json:"account_name"`
	Status        string     `json:"status"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type WithdrawalListResponse struct {
	Withdrawals []WithdrawalListItem `json:"withdrawals"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
}

func adminWithdrawalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWithdrawalNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
	case errors.Is(err, services.ErrWithdrawalNotPending):
		c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
	case errors.Is(err, services.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to process withdrawal"))
	}
}

// List godoc
// @Summary List withdrawal requests
// @Tags admin
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param user_id query int false "Filter by user ID"
// @Param status query string false "Filter by status"
// @Success 200 {object} utils.Response{data=WithdrawalListResponse}
// @Router /admin/withdrawals [get]
func List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := services.WithdrawalFilter{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}
	if userIDStr, exists := c.GetQuery("user_id"); exists {
		userID, err := strconv.Atoi(userIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user_id"))
			return
		}
		uid := uint(userID)
		filter.UserID = &uid
	}

	withdrawals, total, err := services.FindWithdrawals(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch withdrawals"))
		return
	}

	items := make([]WithdrawalListItem, 0, len(withdrawals))
	for _, w := range withdrawals {
		items = append(items, WithdrawalListItem{
			ID:            w.ID,
			UserID:        w.UserID,
			Amount:        w.Amount,
			BankName:      w.BankName,
			AccountNumber: w.AccountNumber,
			AccountName:   w.AccountName,
			Status:        string(w.Status),
			ProcessedAt:   w.ProcessedAt,
			CreatedAt:     w.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Withdrawals retrieved successfully", WithdrawalListResponse{
		Withdrawals: items,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}))
}

// Approve godoc
// @Summary Mark a withdrawal as paid out
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Withdrawal ID"
// @Param input body ApproveInput false "Notes"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /admin/withdrawals/{id}/approve [post]
func Approve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid withdrawal ID"))
		return
	}

	var input ApproveInput
	_ = c.ShouldBindJSON(&input)

	admin := c.MustGet("user").(models.User)
	w, err := services.ApproveWithdrawal(uint(id), admin.ID, input.Notes)
	if err != nil {
		adminWithdrawalError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Withdrawal approved", gin.H{"id": w.ID, "status": w.Status}))
}

// Reject godoc
// @Summary Reject a withdrawal and return the held funds
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Withdrawal ID"
// @Param input body RejectInput true "Reason"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /admin/withdrawals/{id}/reject [post]
func Reject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid withdrawal ID"))
		return
	}

	var input RejectInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	admin := c.MustGet("user").(models.User)
	w, err := services.RejectWithdrawal(uint(id), admin.ID, input.Reason)
	if err != nil {
		adminWithdrawalError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Withdrawal rejected", gin.H{"id": w.ID, "status": w.Status}))
}
