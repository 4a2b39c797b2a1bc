package models

import (
	"time"

	"github.com/isheraz/stroll-test/internal/cycle"
)

type Question struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type Profile struct {
	ID          int64  `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	ProfileType string `json:"profile_type"`
	VideoURL    string `json:"video_url"`
}

// Answer is a stored answer joined with its question text.
type Answer struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	QuestionID int64     `json:"question_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

// CacheLevel reports where a resolved value came from.
type CacheLevel string

const (
	CacheLevelHit  CacheLevel = "hit"
	CacheLevelMiss CacheLevel = "miss"
)

type AssignQuestionRequest struct {
	RegionName string `form:"region_name" binding:"required"`
	UserID     string `form:"user_id" binding:"required"`
	Cycle      int    `form:"cycle" binding:"omitempty,min=1"`
}

type AssignQuestionResponse struct {
	UserID       string      `json:"user_id"`
	Region       string      `json:"region"`
	Cycle        cycle.Cycle `json:"cycle"`
	CurrentCycle cycle.Cycle `json:"currentCycle"`
	Question     *Question   `json:"question,omitempty"`
	CacheLevel   CacheLevel  `json:"cache_level,omitempty"`
}

type CycleQuestionRequest struct {
	Region    string `form:"region" binding:"required"`
	Gender    string `form:"gender" binding:"required,oneof=male female"`
	Cycle     string `form:"cycle" binding:"omitempty,datetime=2006-01-02"`
	CycleType string `form:"cycleType" binding:"omitempty,oneof=day week"`
}

type CycleQuestionResponse struct {
	Region     string      `json:"region"`
	Gender     string      `json:"gender"`
	Cycle      cycle.Cycle `json:"cycle"`
	Question   *Question   `json:"question"`
	CacheLevel CacheLevel  `json:"cache_level"`
}

type SubmitAnswerRequest struct {
	UserID     string `json:"userId" binding:"required"`
	QuestionID int64  `json:"questionId" binding:"required,min=1"`
	Answer     string `json:"answer" binding:"required"`
}

type SubmitAnswerResponse struct {
	Message  string `json:"message"`
	AnswerID int64  `json:"answerId"`
}

type ProfilesRequest struct {
	Gender       string `form:"gender" binding:"required,oneof=male female"`
	UserID       string `form:"userId" binding:"required"`
	ProfileTypes string `form:"profileTypes"`
}

type ProfilesResponse struct {
	Profiles []Profile `json:"profiles"`
}

type AnswersRequest struct {
	UserID string `form:"userId" binding:"required"`
}

type AnswersResponse struct {
	UserID  string   `json:"userId"`
	Answers []Answer `json:"answers"`
}

type VideoWatchRequest struct {
	UserID    string `json:"userId" binding:"required"`
	ProfileID string `json:"profileId" binding:"required"`
}

type VideoWatchResponse struct {
	Message string `json:"message"`
	WatchID int64  `json:"watchId"`
}

type VideoCheckRequest struct {
	UserID    string `form:"userId" binding:"required"`
	ProfileID string `form:"profileId" binding:"required"`
}

type VideoCheckResponse struct {
	UserID    string `json:"userId"`
	ProfileID string `json:"profileId"`
	Watched   bool   `json:"watched"`
}

type LogsResponse struct {
	Logs []string `json:"logs"`
}

type HealthResponse struct {
	Status     string    `json:"status"`
	CacheOK    bool      `json:"cache_ok"`
	PostgresOK bool      `json:"postgres_ok"`
	Timestamp  time.Time `json:"timestamp"`
}

type StatsResponse struct {
	CacheDriver  string  `json:"cache_driver"`
	CacheHits    int64   `json:"cache_hits"`
	CacheMisses  int64   `json:"cache_misses"`
	CacheErrors  int64   `json:"cache_errors"`
	CacheHitRate float64 `json:"cache_hit_rate"`
	StoreReads   int64   `json:"store_reads"`
	// DriverHitRate is the cache driver's own hit rate, including warm-up reads.
	DriverHitRate float64 `json:"driver_hit_rate"`
	LocalSize     int     `json:"local_cache_size,omitempty"`
}
