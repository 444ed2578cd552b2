package user

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users", ListUsers)
	router.GET("/users/:id", GetUser)
	router.PATCH("/users/:id", UpdateUser)
}
