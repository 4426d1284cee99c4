package http

import (
	"github.com/gin-gonic/gin"

	"github.com/examportal/backend/core"
	"github.com/examportal/backend/service"
)

// SetupRouter sets up the Gin router. Every route sits behind the gate.
func SetupRouter(authService *service.AuthService, adminService *service.AdminService, policy Policy) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), Gate(authService, policy))

	handlers := NewAuthHandlers(authService, adminService)
	admin := NewAdminHandlers(adminService)

	router.GET("/health", handlers.Health)

	auth := router.Group("/auth")
	auth.Use(RequireAuth())
	{
		auth.POST("/logout", handlers.Logout)
	}

	api := router.Group("/api")
	{
		api.GET("/me", RequireAuth(), handlers.Me)
	}

	adminAPI := api.Group("/admin")
	adminAPI.Use(RequireRole(core.RoleAdmin))
	{
		adminAPI.POST("/exams", admin.CreateExam)
		adminAPI.GET("/exams/:id", admin.GetExam)
		adminAPI.PUT("/exams/:id", admin.UpdateExam)
		adminAPI.DELETE("/exams/:id", admin.DeleteExam)
		adminAPI.PUT("/exams/:id/questions", admin.AddQuestionsToExam)
		adminAPI.POST("/questions", admin.CreateQuestion)
		adminAPI.PUT("/questions/:id", admin.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", admin.DeleteQuestion)
		adminAPI.PUT("/users/:id/role", admin.AssignRole)
	}

	return router
}
