package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/lifeline-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lifeline-backend/internal/http/middleware"
	"github.com/yungbote/lifeline-backend/internal/observability"
)

type RouterConfig struct {
	PersonHandler   *httpH.PersonHandler
	TimelineHandler *httpH.TimelineHandler
	ChatHandler     *httpH.ChatHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestMetrics())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if m := observability.Current(); m != nil {
		r.GET("/metrics", gin.WrapF(m.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// People
		if cfg.PersonHandler != nil {
			api.POST("/people", cfg.PersonHandler.CreatePerson)
			api.GET("/people", cfg.PersonHandler.ListPeople)
			api.GET("/people/:id", cfg.PersonHandler.GetPerson)
			api.POST("/people/:id/reingest", cfg.PersonHandler.ReingestPerson)
			api.DELETE("/people/:id", cfg.PersonHandler.DeletePerson)
		}

		// Timeline
		if cfg.TimelineHandler != nil {
			api.GET("/people/:id/timeline", cfg.TimelineHandler.GetTimeline)
			api.GET("/stages/:id/sources", cfg.TimelineHandler.GetStageSources)
		}

		// Chat
		if cfg.ChatHandler != nil {
			api.POST("/chat/stage", cfg.ChatHandler.SendStageChat)
			api.GET("/chat/sessions/:id/messages", cfg.ChatHandler.GetSessionMessages)
		}
	}

	return r
}
