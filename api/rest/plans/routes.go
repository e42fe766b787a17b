package plans

import "github.com/gin-gonic/gin"

// registers plan generation routes; router must already require auth
func RegisterRoutes(router *gin.RouterGroup, gen Generator) {
	group := router.Group("/plans")
	{
		group.POST("/training", TrainingHandler(gen))
		group.POST("/nutrition", NutritionHandler(gen))
	}
}
