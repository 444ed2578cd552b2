package loan

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	loans := router.Group("/loans")
	loans.POST("", Apply)
	loans.GET("", List)
	loans.GET("/active", GetActive)
	loans.GET("/terms", Terms)
	loans.GET("/stats", Stats)
	loans.GET("/:id", Get)
	loans.POST("/:id/disbursement", RequestDisbursement)
	loans.POST("/:id/payments", Pay)
	loans.POST("/:id/extensions", Extend)
}
