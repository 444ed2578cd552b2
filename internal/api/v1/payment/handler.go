package payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/services"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/utils"
	"github.com/AmarboldBazarsuren/mzeel-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Callback godoc
// @Summary QPay payment callback
// @Description Called by QPay when an invoice is paid. The payment is verified against the gateway before the wallet is credited.
// @Tags payment
// @Produce json
// @Param transaction_id query int true "Transaction ID"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /payment/callback [get]
func Callback(c *gin.Context) {
	id, err := strconv.ParseUint(c.Query("transaction_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid transaction_id"))
		return
	}

	// Never trust the callback alone; ConfirmDeposit re-checks the invoice
	// with the gateway before crediting anything.
	t, credited, err := services.ConfirmDeposit(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
			return
		}
		logger.Log.Error("payment callback failed",
			zap.Uint64("transaction_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to process callback"))
		return
	}

	if services.Watcher != nil && credited {
		services.Watcher.Remove(t.ID)
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Callback processed", gin.H{
		"transaction_id": t.ID,
		"status":         t.Status,
	}))
}
