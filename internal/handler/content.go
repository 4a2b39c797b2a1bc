package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/isheraz/stroll-test/internal/cycle"
	"github.com/isheraz/stroll-test/internal/models"
	"github.com/isheraz/stroll-test/internal/service"
)

type ContentHandler struct {
	service *service.ContentService
	log     *logrus.Entry
}

func NewContentHandler(service *service.ContentService, log *logrus.Entry) *ContentHandler {
	return &ContentHandler{service: service, log: log}
}

func (h *ContentHandler) AssignQuestion(c *gin.Context) {
	var req models.AssignQuestionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	resp, err := h.service.AssignQuestion(c.Request.Context(), req.RegionName, req.UserID, req.Cycle)
	if err != nil {
		extra := gin.H{}
		if resp != nil {
			extra["cycle"] = resp.Cycle
			extra["currentCycle"] = resp.CurrentCycle
		}
		writeError(c, h.log, err, extra)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ContentHandler) QuestionForCycle(c *gin.Context) {
	var req models.CycleQuestionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	cycleType, err := cycle.ParseType(req.CycleType)
	if err != nil {
		badRequest(c, h.log, err)
		return
	}

	var date time.Time
	if req.Cycle != "" {
		date, err = time.Parse(time.DateOnly, req.Cycle)
		if err != nil {
			badRequest(c, h.log, err)
			return
		}
	}

	resp, err := h.service.QuestionForCycle(c.Request.Context(), req.Region, req.Gender, date, cycleType)
	if err != nil {
		extra := gin.H{}
		if resp != nil {
			extra["cycle"] = resp.Cycle
		}
		writeError(c, h.log, err, extra)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ContentHandler) SubmitAnswer(c *gin.Context) {
	var req models.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	id, err := h.service.SubmitAnswer(c.Request.Context(), req.UserID, req.QuestionID, req.Answer)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusCreated, models.SubmitAnswerResponse{Message: "Answer submitted successfully", AnswerID: id})
}

func (h *ContentHandler) GetProfiles(c *gin.Context) {
	var req models.ProfilesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	var types []string
	if req.ProfileTypes != "" {
		types = strings.Split(req.ProfileTypes, ",")
	}

	profiles, err := h.service.ResolveProfiles(c.Request.Context(), req.Gender, req.UserID, types)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, models.ProfilesResponse{Profiles: profiles})
}

func (h *ContentHandler) GetAnswers(c *gin.Context) {
	var req models.AnswersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	answers, err := h.service.ResolveAnswers(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, models.AnswersResponse{UserID: req.UserID, Answers: answers})
}

func (h *ContentHandler) LogVideoWatch(c *gin.Context) {
	var req models.VideoWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	id, err := h.service.LogVideoWatch(c.Request.Context(), req.UserID, req.ProfileID)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusCreated, models.VideoWatchResponse{Message: "Video watch logged", WatchID: id})
}

func (h *ContentHandler) CheckVideoWatch(c *gin.Context) {
	var req models.VideoCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	watched, err := h.service.HasWatchedVideo(c.Request.Context(), req.UserID, req.ProfileID)
	if err != nil {
		writeError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, models.VideoCheckResponse{UserID: req.UserID, ProfileID: req.ProfileID, Watched: watched})
}
