package loan

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
	ApprovedAmount int64  `json:"approved_amount" binding:"required,gt=0"`
	Notes          string `json:"notes"`
}

type RejectInput struct {
	Reason string `json:"reason" binding:"required"`
}

type LoanListItem struct {
	ID              uint       `json:"id"`
	UserID          uint       `json:"user_id"`
	LoanNumber      string     `json:"loan_number"`
	RequestedAmount int64      `json:"requested_amount"`
	ApprovedAmount  int64      `json:"approved_amount"`
	DisbursedAmount int64      `json:"disbursed_amount"`
	TermDays        int        `json:"term_days"`
	RemainingAmount int64      `json:"remaining_amount"`
	Status          string     `json:"status"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type LoanListResponse struct {
	Loans []LoanListItem `json:"loans"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func adminLoanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLoanNotFound),
		errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrWalletNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
	case errors.Is(err, services.ErrInvalidLoanState),
		errors.Is(err, services.ErrVerificationFeeUnpaid):
		c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
	case errors.Is(err, services.ErrAmountOutOfRange),
		errors.Is(err, services.ErrLimitExceeded),
		errors.Is(err, services.ErrReasonRequired):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to process loan operation"))
	}
}

// List godoc
// @Summary List loans
// @Description Paginated loan listing. Staff only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param user_id query int false "Filter by user ID"
// @Param status query string false "Filter by status"
// @Success 200 {object} utils.Response{data=LoanListResponse}
// @Router /admin/loans [get]
func List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := services.LoanFilter{
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

	loans, total, err := services.FindLoans(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch loans"))
		return
	}

	items := make([]LoanListItem, 0, len(loans))
	for _, l := range loans {
		items = append(items, LoanListItem{
			ID:              l.ID,
			UserID:          l.UserID,
			LoanNumber:      l.LoanNumber,
			RequestedAmount: l.RequestedAmount,
			ApprovedAmount:  l.ApprovedAmount,
			DisbursedAmount: l.DisbursedAmount,
			TermDays:        l.TermDays,
			RemainingAmount: l.RemainingAmount,
			Status:          string(l.Status),
			DueDate:         l.DueDate,
			CreatedAt:       l.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Loans retrieved successfully", LoanListResponse{
		Loans: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

// StartReview godoc
// @Summary Take a fee-paid application into review
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path int true "Loan ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /admin/loans/{id}/review [post]
func StartReview(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid loan ID"))
		return
	}

	admin := c.MustGet("user").(models.User)
	l, err := services.StartReview(uint(id), admin.ID)
	if err != nil {
		adminLoanError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Review started", gin.H{"id": l.ID, "status": l.Status}))
}

// Approve godoc
// @Summary Approve a loan application
// @Description Sets the customer's available loan limit to the approved amount
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Loan ID"
// @Param input body ApproveInput true "Approved amount"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /admin/loans/{id}/approve [post]
func Approve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid loan ID"))
		return
	}

	var input ApproveInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	admin := c.MustGet("user").(models.User)
	l, err := services.ApproveLoan(uint(id), admin.ID, input.ApprovedAmount, input.Notes)
	if err != nil {
		adminLoanError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Loan approved", gin.H{
		"id":              l.ID,
		"status":          l.Status,
		"approved_amount": l.ApprovedAmount,
	}))
}

// Reject godoc
// @Summary Reject or cancel a loan application
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Loan ID"
// @Param input body RejectInput true "Reason"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /admin/loans/{id}/reject [post]
func Reject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid loan ID"))
		return
	}

	var input RejectInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	admin := c.MustGet("user").(models.User)
	l, err := services.RejectLoan(uint(id), admin.ID, input.Reason)
	if err != nil {
		adminLoanError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Loan rejected", gin.H{"id": l.ID, "status": l.Status}))
}

// ApproveDisbursement godoc
// @Summary Pay out a requested disbursement
// @Description Credits the borrower's wallet and consumes the loan limit
// @Tags admin
// @Produce json
// @Security Bearer
// @Param id path int true "Loan ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /admin/loans/{id}/disburse [post]
func ApproveDisbursement(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid loan ID"))
		return
	}

	admin := c.MustGet("user").(models.User)
	l, err := services.ApproveDisbursement(uint(id), admin.ID)
	if err != nil {
		adminLoanError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Loan disbursed", gin.H{
		"id":               l.ID,
		"status":           l.Status,
		"disbursed_amount": l.DisbursedAmount,
		"due_date":         l.DueDate,
	}))
}
