package loan

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/services"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

func loanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLoanNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrProfileNotApproved):
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, err.Error()))
	case errors.Is(err, services.ErrActiveLoanExists),
		errors.Is(err, services.ErrInvalidLoanState),
		errors.Is(err, services.ErrNotExtendable):
		c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
	case errors.Is(err, services.ErrAmountOutOfRange),
		errors.Is(err, services.ErrInvalidTerm),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrOverpayment),
		errors.Is(err, services.ErrLimitExceeded),
		errors.Is(err, services.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to process loan operation"))
	}
}

// Apply godoc
// @Summary Apply for a loan
// @Description Opens a loan application and debits the verification fee from the wallet. Requires an approved KYC profile, no other active loan and a balance covering the fee.
// @Tags loan
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body ApplyInput true "Application fields"
// @Success 201 {object} utils.Response{data=LoanResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /loans [post]
func Apply(c *gin.Context) {
	var input ApplyInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	user := c.MustGet("user").(models.User)
	l, err := services.ApplyForLoan(user.ID, input.RequestedAmount, input.Purpose)
	if err != nil {
		loanError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Loan application created", toResponse(l)))
}

// RequestDisbursement godoc
// @Summary Request a payout against the approved limit
// @Description Fixes principal, term and interest. The payout lands in the wallet once an admin approves it.
// @Tags loan
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Loan ID"
// @Param input body DisbursementInput true "Amount and term"
// @Success 200 {object} utils.Response{data=LoanResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /loans/{id}/disbursement [post]
func RequestDisbursement(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid loan ID"))
		return
	}

	var input DisbursementInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	user := c.MustGet("user").(models.User)
	l, err := services.RequestDisbursement(user.ID, uint(id), input.Amount, input.TermDays)
	if err != nil {
		loanError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Disbursement requested", toResponse(l)))
}

// Pay godoc
// @Summary Repay part or all of a loan from the wallet
// @Tags loan
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Loan ID"
// @Param input body PaymentInput true "Payment amount"
// @Success 200 {object} utils.Response{data=LoanResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /loans/{id}/payments [post]
func Pay(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid loan ID"))
		return
	}

	var input PaymentInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	user := c.MustGet("user").(models.User)
	l, err := services.PayLoan(user.ID, uint(id), input.Amount)
	if err != nil {
		loanError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Payment applied", toResponse(l)))
}

// Extend godoc
// @Summary Extend the loan due date by another of its own term
// @Description Adds one more term's interest on the principal, at the loan's rate, to the amount owed. 14-day loans cannot be extended.
// @Tags loan
// @Produce json
// @Security Bearer
// @Param id path int true "Loan ID"
// @Success 200 {object} utils.Response{data=LoanResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /loans/{id}/extensions [post]
func Extend(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid loan ID"))
		return
	}

	user := c.MustGet("user").(models.User)
	l, err := services.ExtendLoan(user.ID, uint(id))
	if err != nil {
		loanError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Loan extended", toResponse(l)))
}

// GetActive godoc
// @Summary Get my current loan
// @Tags loan
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=LoanResponse}
// @Failure 404 {object} utils.Response
// @Router /loans/active [get]
func GetActive(c *gin.Context) {
	user := c.MustGet("user").(models.User)
	l, err := services.GetActiveLoanForUser(user.ID)
	if err != nil {
		loanError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Loan retrieved successfully", toResponse(l)))
}

// List godoc
// @Summary List my loans
// @Tags loan
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} utils.Response{data=LoanListResponse}
// @Router /loans [get]
func List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	user := c.MustGet("user").(models.User)
	loans, total, err := services.FindLoans(services.LoanFilter{
		UserID: &user.ID,
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch loans"))
		return
	}

	items := make([]LoanResponse, 0, len(loans))
	for i := range loans {
		items = append(items, toResponse(&loans[i]))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Loans retrieved successfully", LoanListResponse{
		Loans: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

// Get godoc
// @Summary Get one of my loans
// @Tags loan
// @Produce json
// @Security Bearer
// @Param id path int true "Loan ID"
// @Success 200 {object} utils.Response{data=LoanResponse}
// @Failure 404 {object} utils.Response
// @Router /loans/{id} [get]
func Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid loan ID"))
		return
	}

	user := c.MustGet("user").(models.User)
	l, err := services.GetLoanByID(uint(id))
	if err != nil || l.UserID != user.ID {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, services.ErrLoanNotFound.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Loan retrieved successfully", toResponse(l)))
}

// Terms godoc
// @Summary List available loan terms and rates
// @Tags loan
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=[]TermOption}
// @Router /loans/terms [get]
func Terms(c *gin.Context) {
	options := make([]TermOption, 0, 3)
	for _, days := range []int{14, 30, 90} {
		rate, _ := services.InterestRateForTerm(days)
		options = append(options, TermOption{
			TermDays:     days,
			InterestRate: rate,
			Extendable:   days != 14,
		})
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Loan terms", options))
}

// Stats godoc
// @Summary My borrowing summary
// @Tags loan
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=services.LoanStats}
// @Router /loans/stats [get]
func Stats(c *gin.Context) {
	user := c.MustGet("user").(models.User)
	stats, err := services.GetUserLoanStats(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch loan stats"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Loan stats", stats))
}
