package withdrawal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/services"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// Request godoc
// @Summary Request a withdrawal to a bank account
// @Description The amount is held from the wallet immediately and released if the request is cancelled or rejected
// @Tags withdrawal
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body RequestInput true "Withdrawal fields"
// @Success 201 {object} utils.Response{data=WithdrawalResponse}
// @Failure 400 {object} utils.Response
// @Router /withdrawals [post]
func Request(c *gin.Context) {
	var input RequestInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	user := c.MustGet("user").(models.User)
	w, err := services.RequestWithdrawal(user.ID, services.WithdrawalInput{
		Amount:        input.Amount,
		BankName:      input.BankName,
		AccountNumber: input.AccountNumber,
		AccountName:   input.AccountName,
		Notes:         input.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWithdrawalTooSmall),
			errors.Is(err, services.ErrInsufficientFunds),
			errors.Is(err, services.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to request withdrawal"))
		}
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Withdrawal requested", toResponse(w)))
}

// Cancel godoc
// @Summary Cancel my pending withdrawal
// @Description Returns the held funds to the wallet
// @Tags withdrawal
// @Produce json
// @Security Bearer
// @Param id path int true "Withdrawal ID"
// @Success 200 {object} utils.Response{data=WithdrawalResponse}
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /withdrawals/{id}/cancel [post]
func Cancel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid withdrawal ID"))
		return
	}

	user := c.MustGet("user").(models.User)
	w, err := services.CancelWithdrawal(user.ID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWithdrawalNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
		case errors.Is(err, services.ErrWithdrawalNotPending):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to cancel withdrawal"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Withdrawal cancelled", toResponse(w)))
}

// Get godoc
// @Summary Get one of my withdrawals
// @Tags withdrawal
// @Produce json
// @Security Bearer
// @Param id path int true "Withdrawal ID"
// @Success 200 {object} utils.Response{data=WithdrawalResponse}
// @Failure 404 {object} utils.Response
// @Router /withdrawals/{id} [get]
func Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid withdrawal ID"))
		return
	}

	user := c.MustGet("user").(models.User)
	w, err := services.GetWithdrawalByID(uint(id))
	if err != nil || w.UserID != user.ID {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, services.ErrWithdrawalNotFound.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Withdrawal retrieved successfully", toResponse(w)))
}

// List godoc
// @Summary List my withdrawals
// @Tags withdrawal
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} utils.Response{data=WithdrawalListResponse}
// @Router /withdrawals [get]
func List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	user := c.MustGet("user").(models.User)
	withdrawals, total, err := services.FindWithdrawals(services.WithdrawalFilter{
		UserID: &user.ID,
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch withdrawals"))
		return
	}

	items := make([]WithdrawalResponse, 0, len(withdrawals))
	for i := range withdrawals {
		items = append(items, toResponse(&withdrawals[i]))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Withdrawals retrieved successfully", WithdrawalListResponse{
		Withdrawals: items,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}))
}
