package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every endpoint onto a gin engine.
func NewRouter(content *ContentHandler, ops *OpsHandler, log *logrus.Entry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	router.GET("/health", ops.Health)
	router.GET("/stats", ops.Stats)

	api := router.Group("/api")
	{
		api.GET("/assign_question", content.AssignQuestion)
		api.GET("/questions/cycle", content.QuestionForCycle)
		api.GET("/logs", ops.GetLogs)

		api.POST("/answers", content.SubmitAnswer)
		api.GET("/answers", content.GetAnswers)
		api.GET("/profiles", content.GetProfiles)

		api.POST("/videos/watched", content.LogVideoWatch)
		api.GET("/videos/check", content.CheckVideoWatch)
	}

	return router
}
