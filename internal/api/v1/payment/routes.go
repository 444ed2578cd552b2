package payment

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	p := router.Group("/payment")
	p.GET("/callback", Callback)
	p.POST("/callback", Callback)
}
