package dashboard

import (
	"net/http"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/services"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// Stats godoc
// @Summary Platform overview figures
// @Description Aggregated user, loan, wallet and withdrawal numbers. Staff only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=services.DashboardStats}
// @Failure 500 {object} utils.Response
// @Router /admin/dashboard [get]
func Stats(c *gin.Context) {
	stats, err := services.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch dashboard stats"))
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Dashboard stats", stats))
}
