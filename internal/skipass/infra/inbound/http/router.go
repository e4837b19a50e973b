package http

import "github.com/gin-gonic/gin"

// RegisterDashboardRoutes registra las rutas HTTP del tablero bajo /api/v1.
func RegisterDashboardRoutes(r *gin.Engine, handler *DashboardHandler) {
	api := r.Group("/api/v1")
	{
		api.GET("/dataset", handler.GetDataset)     // Estado de la carga, límites y opciones
		api.GET("/dashboard", handler.GetDashboard) // Vista sin estado desde query params
	}

	sessions := api.Group("/sessions")
	{
		sessions.POST("", handler.CreateSession)
		sessions.GET("/:id", handler.GetSession)
		sessions.DELETE("/:id", handler.DeleteSession)
		sessions.PATCH("/:id/filters", handler.UpdateFilter)   // Un campo por petición; vuelve a la página 1
		sessions.PUT("/:id/criteria", handler.SelectCriteria)  // Atributo del gráfico de reparto
		sessions.PUT("/:id/page", handler.ChangePage)          // No-op fuera de rango
		if handler.events != nil {
			sessions.GET("/:id/events", handler.StreamEvents) // Server-Sent Events
		}
	}
}
