package profile

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	p := router.Group("/profile")
	p.POST("", Submit)
	p.GET("", Get)
}
