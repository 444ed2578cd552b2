package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/services"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// Get godoc
// @Summary Get my wallet
// @Tags wallet
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=WalletResponse}
// @Failure 404 {object} utils.Response
// @Router /wallet [get]
func Get(c *gin.Context) {
	user := c.MustGet("user").(models.User)
	w, err := services.GetWallet(user.ID)
	if err != nil {
		if errors.Is(err, services.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch wallet"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Wallet retrieved successfully", WalletResponse{
		ID:             w.ID,
		Balance:        w.Balance,
		Currency:       w.Currency,
		TotalDeposited: w.TotalDeposited,
		TotalWithdrawn: w.TotalWithdrawn,
		TotalSpent:     w.TotalSpent,
		LastActivityAt: w.LastActivityAt,
	}))
}

// Deposit godoc
// @Summary Create a QPay deposit invoice
// @Description Returns the invoice QR and deeplink. The wallet is credited once the invoice is paid.
// @Tags wallet
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body DepositInput true "Deposit amount"
// @Success 201 {object} utils.Response{data=DepositResponse}
// @Failure 400 {object} utils.Response
// @Failure 502 {object} utils.Response
// @Router /wallet/deposit [post]
func Deposit(c *gin.Context) {
	var input DepositInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	user := c.MustGet("user").(models.User)
	t, err := services.CreateDeposit(user.ID, input.Amount)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDepositTooSmall):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		case errors.Is(err, services.ErrGatewayUnavailable):
			c.JSON(http.StatusBadGateway, utils.NewErrorResponse(http.StatusBadGateway, "Payment gateway unavailable, try again later"))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create deposit"))
		}
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Deposit invoice created", DepositResponse{
		TransactionID:   t.ID,
		Amount:          t.Amount,
		Status:          string(t.Status),
		InvoiceID:       t.InvoiceID,
		InvoiceQR:       t.InvoiceQR,
		InvoiceDeeplink: t.InvoiceDeeplink,
		ExpireAt:        t.InvoiceExpireAt,
	}))
}

// CheckDeposit godoc
// @Summary Check a pending deposit against the gateway
// @Description Settles the deposit if the invoice has been paid
// @Tags wallet
// @Produce json
// @Security Bearer
// @Param id path int true "Transaction ID"
// @Success 200 {object} utils.Response{data=DepositResponse}
// @Failure 404 {object} utils.Response
// @Failure 502 {object} utils.Response
// @Router /wallet/deposit/{id}/check [post]
func CheckDeposit(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid transaction ID"))
		return
	}

	// Ownership first, before the confirm call settles anything.
	user := c.MustGet("user").(models.User)
	existing, err := services.GetTransactionByID(uint(id))
	if err != nil || existing.UserID != user.ID {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, services.ErrTransactionNotFound.Error()))
		return
	}

	t, _, err := services.ConfirmDeposit(uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTransactionNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
		case errors.Is(err, services.ErrNotDepositPending):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
		case errors.Is(err, services.ErrGatewayUnavailable):
			c.JSON(http.StatusBadGateway, utils.NewErrorResponse(http.StatusBadGateway, "Payment gateway unavailable, try again later"))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to check deposit"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Deposit status", DepositResponse{
		TransactionID: t.ID,
		Amount:        t.Amount,
		Status:        string(t.Status),
		InvoiceID:     t.InvoiceID,
		ExpireAt:      t.InvoiceExpireAt,
	}))
}

// History godoc
// @Summary List my wallet transactions
// @Tags wallet
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} utils.Response{data=HistoryResponse}
// @Router /wallet/transactions [get]
func History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	user := c.MustGet("user").(models.User)
	transactions, total, err := services.GetWalletHistory(user.ID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch transactions"))
		return
	}

	items := make([]TransactionItem, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, TransactionItem{
			ID:            t.ID,
			CreatedAt:     t.CreatedAt,
			Type:          string(t.Type),
			Amount:        t.Amount,
			BalanceBefore: t.BalanceBefore,
			BalanceAfter:  t.BalanceAfter,
			Status:        string(t.Status),
			Description:   t.Description,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Transactions retrieved successfully", HistoryResponse{
		Transactions: items,
		Total:        total,
		Page:         page,
		Limit:        limit,
	}))
}

// GetTransaction godoc
// @Summary Get one of my transactions
// @Tags wallet
// @Produce json
// @Security Bearer
// @Param id path int true "Transaction ID"
// @Success 200 {object} utils.Response{data=TransactionItem}
// @Failure 404 {object} utils.Response
// @Router /wallet/transactions/{id} [get]
func GetTransaction(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid transaction ID"))
		return
	}

	user := c.MustGet("user").(models.User)
	t, err := services.GetTransactionByID(uint(id))
	if err != nil || t.UserID != user.ID {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, services.ErrTransactionNotFound.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Transaction retrieved successfully", TransactionItem{
		ID:            t.ID,
		CreatedAt:     t.CreatedAt,
		Type:          string(t.Type),
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Status:        string(t.Status),
		Description:   t.Description,
	}))
}
