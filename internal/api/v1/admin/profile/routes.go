package profile

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/profiles", List)
	router.POST("/profiles/:id/verify", Verify)
}
