package wallet

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	w := router.Group("/wallet")
	w.GET("", Get)
	w.POST("/deposit", Deposit)
	w.POST("/deposit/:id/check", CheckDeposit)
	w.GET("/transactions", History)
	w.GET("/transactions/:id", GetTransaction)
}
