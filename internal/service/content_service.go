package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/isheraz/stroll-test/internal/apperr"
	"github.com/isheraz/stroll-test/internal/cycle"
	"github.com/isheraz/stroll-test/internal/models"
)

// ContentStore is the relational source of truth.
type ContentStore interface {
	QuestionByRegionCycle(ctx context.Context, region string, cycleNumber int) (*models.Question, error)
	ProfilesByGender(ctx context.Context, gender, excludeUserID string, profileTypes []string) ([]models.Profile, error)
	AnswersByUser(ctx context.Context, userID string) ([]models.Answer, error)
	InsertAnswer(ctx context.Context, userID string, questionID int64, answer string) (int64, error)
	InsertVideoWatch(ctx context.Context, userID, profileID string) (int64, error)
	HasWatchedVideo(ctx context.Context, userID, profileID string) (bool, error)
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Cache is the key-value capability. Errors are never fatal to a read.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error
}

// ContentService serves questions, profiles and answers through a cache-aside
// read path. There is no single-flight: concurrent misses on one key all reach
// the store.
type ContentService struct {
	store ContentStore
	cache Cache
	calc  cycle.Calculator
	log   *logrus.Entry
	now   func() time.Time

	hits        atomic.Int64
	misses      atomic.Int64
	cacheErrors atomic.Int64
	storeReads  atomic.Int64
}

type Option func(*ContentService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ContentService) { s.now = now }
}

func NewContentService(store ContentStore, cache Cache, calc cycle.Calculator, log *logrus.Entry, opts ...Option) *ContentService {
	s := &ContentService{
		store: store,
		cache: cache,
		calc:  calc,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// readThrough implements the cache-aside discipline shared by every resolver:
// a hit never touches the store, a miss loads from the store, and only
// positive results are written back.
func readThrough[T any](ctx context.Context, s *ContentService, key string, ttl time.Duration, load func(context.Context) (T, bool, error)) (T, models.CacheLevel, error) {
	var zero T
	log := s.log.WithField("key", key)

	raw, found, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.cacheErrors.Add(1)
		log.WithError(err).Warn("Cache read failed, falling back to database")
	case found:
		var v T
		decodeErr := json.Unmarshal([]byte(raw), &v)
		if decodeErr == nil {
			s.hits.Add(1)
			log.Debug("Cache hit")
			return v, models.CacheLevelHit, nil
		}
		log.WithError(decodeErr).Warn("Discarding undecodable cache entry")
	}

	s.misses.Add(1)
	s.storeReads.Add(1)
	log.Debug("Cache miss, querying database")

	v, ok, err := load(ctx)
	if err != nil {
		return zero, models.CacheLevelMiss, err
	}
	if !ok {
		return zero, models.CacheLevelMiss, apperr.NotFound("no content for %s", key)
	}

	payload, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Warn("Could not encode value for cache")
		return v, models.CacheLevelMiss, nil
	}
	if err := s.cache.SetWithExpiry(ctx, key, string(payload), ttl); err != nil {
		s.cacheErrors.Add(1)
		log.WithError(err).Warn("Cache write failed, returning database result")
	} else {
		log.WithField("ttl_seconds", int(ttl.Seconds())).Debug("Cached database result")
	}
	return v, models.CacheLevelMiss, nil
}

// ResolveQuestion returns the question assigned to region for a cycle. An empty
// type uses the legacy key and the calculator's own duration for the TTL.
func (s *ContentService) ResolveQuestion(ctx context.Context, region string, cycleNumber int, t cycle.Type) (*models.Question, models.CacheLevel, error) {
	if strings.TrimSpace(region) == "" {
		return nil, "", apperr.Validation("region is required")
	}
	if cycleNumber < 1 {
		return nil, "", apperr.Wrapf(cycle.ErrInvalidCycle, "cycle %d", cycleNumber)
	}

	key := QuestionKey(region, cycleNumber, t)
	ttl := QuestionTTL(t, s.calc.DurationDays())

	return readThrough(ctx, s, key, ttl, func(ctx context.Context) (*models.Question, bool, error) {
		q, err := s.store.QuestionByRegionCycle(ctx, region, cycleNumber)
		return q, q != nil, err
	})
}

// ResolveProfiles lists profiles of gender other than excludeUserID. An empty
// list is reported as not found and is not cached.
func (s *ContentService) ResolveProfiles(ctx context.Context, gender, excludeUserID string, profileTypes []string) ([]models.Profile, error) {
	types := NormalizeProfileTypes(profileTypes)
	key := ProfilesKey(gender, excludeUserID, types)

	profiles, _, err := readThrough(ctx, s, key, ProfilesTTL, func(ctx context.Context) ([]models.Profile, bool, error) {
		ps, err := s.store.ProfilesByGender(ctx, gender, excludeUserID, types)
		return ps, len(ps) > 0, err
	})
	return profiles, err
}

// ResolveAnswers lists a user's answers, newest first. Results may lag a new
// submission by up to AnswersTTL.
func (s *ContentService) ResolveAnswers(ctx context.Context, userID string) ([]models.Answer, error) {
	answers, _, err := readThrough(ctx, s, AnswersKey(userID), AnswersTTL, func(ctx context.Context) ([]models.Answer, bool, error) {
		as, err := s.store.AnswersByUser(ctx, userID)
		return as, len(as) > 0, err
	})
	return answers, err
}

// AssignQuestion resolves the question for the requested cycle (the current one
// when requested is 0) and reports both cycle windows. The response is filled
// in even when the question is not found.
func (s *ContentService) AssignQuestion(ctx context.Context, region, userID string, requested int) (*models.AssignQuestionResponse, error) {
	now := s.now()

	current, err := s.calc.CurrentCycle(now)
	if err != nil {
		return nil, err
	}

	target := current
	if requested != 0 {
		target, err = s.calc.Cycle(requested)
		if err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "region": region, "cycle": target.Number}).
		Info("Assigning question")

	resp := &models.AssignQuestionResponse{
		UserID:       userID,
		Region:       region,
		Cycle:        target,
		CurrentCycle: current,
	}

	q, level, err := s.ResolveQuestion(ctx, region, target.Number, "")
	if err != nil {
		return resp, err
	}
	resp.Question = q
	resp.CacheLevel = level
	return resp, nil
}

// QuestionForCycle numbers the cycle containing date (today when zero) in units
// of t and resolves its question.
func (s *ContentService) QuestionForCycle(ctx context.Context, region, gender string, date time.Time, t cycle.Type) (*models.CycleQuestionResponse, error) {
	if date.IsZero() {
		date = s.now()
	}

	c, err := s.calc.ForDateCycle(date, t)
	if err != nil {
		return nil, err
	}

	resp := &models.CycleQuestionResponse{
		Region: region,
		Gender: gender,
		Cycle:  c,
	}

	q, level, err := s.ResolveQuestion(ctx, region, c.Number, t)
	if err != nil {
		return resp, err
	}
	resp.Question = q
	resp.CacheLevel = level
	return resp, nil
}

// SubmitAnswer records an answer for a user that has a profile.
func (s *ContentService) SubmitAnswer(ctx context.Context, userID string, questionID int64, answer string) (int64, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, apperr.NotFound("user %s", userID)
	}

	id, err := s.store.InsertAnswer(ctx, userID, questionID, answer)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "question_id": questionID, "answer_id": id}).Info("Answer stored")
	return id, nil
}

func (s *ContentService) LogVideoWatch(ctx context.Context, userID, profileID string) (int64, error) {
	id, err := s.store.InsertVideoWatch(ctx, userID, profileID)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "profile_id": profileID, "watch_id": id}).Info("Video watch logged")
	return id, nil
}

func (s *ContentService) HasWatchedVideo(ctx context.Context, userID, profileID string) (bool, error) {
	return s.store.HasWatchedVideo(ctx, userID, profileID)
}

// WarmQuestions resolves the current cycle's question for each region
// concurrently so the first request of a cycle is served from cache. An empty
// type warms the assign_question entries. Regions without a question are
// skipped; other failures are joined.
func (s *ContentService) WarmQuestions(ctx context.Context, regions []string, t cycle.Type) (int, error) {
	var (
		n   int
		err error
	)
	if t == "" {
		n, err = s.calc.Current(s.now())
	} else {
		n, err = s.calc.ForDate(s.now(), t)
	}
	if err != nil {
		return 0, err
	}

	type result struct {
		region string
		err    error
	}

	var wg sync.WaitGroup
	results := make(chan result, len(regions))

	for _, region := range regions {
		wg.Add(1)
		go func(region string) {
			defer wg.Done()
			_, _, err := s.ResolveQuestion(ctx, region, n, t)
			results <- result{region: region, err: err}
		}(region)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	warmed := 0
	var errs []error
	for r := range results {
		switch {
		case r.err == nil:
			warmed++
		case errors.Is(r.err, apperr.ErrNotFound):
			s.log.WithFields(logrus.Fields{"region": r.region, "cycle": n}).Info("No question to warm")
		default:
			errs = append(errs, apperr.Wrapf(r.err, "warm region %s", r.region))
		}
	}
	return warmed, errors.Join(errs...)
}

type Stats struct {
	Hits        int64
	Misses      int64
	CacheErrors int64
	StoreReads  int64
}

func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total)
}

func (s *ContentService) Stats() Stats {
	return Stats{
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		CacheErrors: s.cacheErrors.Load(),
		StoreReads:  s.storeReads.Load(),
	}
}
