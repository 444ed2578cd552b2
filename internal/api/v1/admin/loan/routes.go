package loan

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/loans", List)
	router.POST("/loans/:id/review", StartReview)
	router.POST("/loans/:id/approve", Approve)
	router.POST("/loans/:id/reject", Reject)
	router.POST("/loans/:id/disburse", ApproveDisbursement)
}
