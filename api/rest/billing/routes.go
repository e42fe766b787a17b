package billing

import "github.com/gin-gonic/gin"

// registers the unauthenticated webhook route
func RegisterWebhookRoutes(router *gin.RouterGroup, proc WebhookProcessor) {
	router.POST("/billing/webhook", WebhookHandler(proc))
}

// registers billing routes for signed-in users; router must already require auth
func RegisterRoutes(router *gin.RouterGroup, deps StatusDeps, sessions SessionCreator) {
	group := router.Group("/billing")
	{
		group.GET("/status", StatusHandler(deps))
		group.POST("/checkout", CheckoutHandler(deps.Accounts, sessions))
		group.POST("/portal", PortalHandler(deps.Accounts, sessions))
	}
}
