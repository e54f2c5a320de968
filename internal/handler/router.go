package handler

import (
	"net/http"
	"time"

	"storycraft/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg *config.Config, storyHandler *StoryHandler, webHandler *WebHandler) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)

	router := gin.New()

	router.Use(RequestID())
	router.Use(RequestLogger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/", webHandler.Index)
	router.POST("/generate", webHandler.Generate)
	router.GET("/submissions/:id", webHandler.Submission)
	router.GET("/story/:id", webHandler.Story)
	router.GET("/library", webHandler.Library)

	api := router.Group("/api")
	{
		stories := api.Group("/stories")
		{
			stories.POST("", storyHandler.CreateStory)
			stories.GET("", storyHandler.ListStories)
			stories.GET("/:id", storyHandler.GetStory)
		}

		submissions := api.Group("/submissions")
		{
			submissions.POST("", storyHandler.CreateSubmission)
			submissions.GET("/:id", storyHandler.GetSubmission)
			submissions.GET("/:id/events", storyHandler.SubmissionEvents)
		}
	}

	return router, nil
}
