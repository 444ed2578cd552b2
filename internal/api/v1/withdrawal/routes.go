package withdrawal

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	w := router.Group("/withdrawals")
	w.POST("", Request)
	w.GET("", List)
	w.GET("/:id", Get)
	w.POST("/:id/cancel", Cancel)
}
