package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/isheraz/stroll-test/internal/apperr"
	"github.com/isheraz/stroll-test/internal/models"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

const (
	questionByRegionCycleQuery = `
        SELECT q.id, q.text
        FROM questions q
        JOIN cycles c ON q.id = c.question_id
        JOIN regions r ON r.id = c.region_id
        WHERE r.name = $1 AND c.cycle_number = $2
        LIMIT 1`

	profilesByGenderQuery = `
        SELECT id, user_id, name, age, gender, profile_type, video_url
        FROM profiles
        WHERE gender = $1 AND user_id != $2`

	profileTypeFilter = ` AND profile_type = ANY($3::text[])`

	profilesOrder = ` ORDER BY id`

	answersByUserQuery = `
        SELECT a.id, a.user_id, a.question_id, q.text, a.answer, a.created_at
        FROM answers a
        JOIN questions q ON a.question_id = q.id
        WHERE a.user_id = $1
        ORDER BY a.created_at DESC, a.id DESC`

	insertAnswerQuery = `
        INSERT INTO answers (user_id, question_id, answer)
        VALUES ($1, $2, $3)
        RETURNING id`

	insertVideoWatchQuery = `
        INSERT INTO video_watches (user_id, profile_id)
        VALUES ($1, $2)
        RETURNING id`

	hasWatchedVideoQuery = `
        SELECT EXISTS (SELECT 1 FROM video_watches WHERE user_id = $1 AND profile_id = $2)`

	userExistsQuery = `
        SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = $1)`
)

// PostgresClient is the content store. Every method is one parameterised round
// trip; callers get ErrStore-wrapped failures and no retries.
type PostgresClient struct {
	db *sql.DB
}

// NewPostgresClient opens a bounded pool and pings it. Pool acquisition waits
// for the first free connection for as long as the caller's context allows.
func NewPostgresClient(ctx context.Context, dataSourceName string) (*PostgresClient, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresClientFromDB(db), nil
}

// NewPostgresClientFromDB wraps an already configured handle.
func NewPostgresClientFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{db: db}
}

// QuestionByRegionCycle returns (nil, nil) when no question is assigned.
func (p *PostgresClient) QuestionByRegionCycle(ctx context.Context, region string, cycleNumber int) (*models.Question, error) {
	q := &models.Question{}
	err := p.db.QueryRowContext(ctx, questionByRegionCycleQuery, region, cycleNumber).Scan(&q.ID, &q.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(err, "query question by region and cycle")
	}
	return q, nil
}

// ProfilesByGender lists profiles of gender, excluding excludeUserID, optionally
// restricted to profileTypes.
func (p *PostgresClient) ProfilesByGender(ctx context.Context, gender, excludeUserID string, profileTypes []string) ([]models.Profile, error) {
	query := profilesByGenderQuery
	args := []any{gender, excludeUserID}
	if len(profileTypes) > 0 {
		query += profileTypeFilter
		args = append(args, pq.Array(profileTypes))
	}
	query += profilesOrder

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store(err, "query profiles by gender")
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var pr models.Profile
		var videoURL sql.NullString
		if err := rows.Scan(&pr.ID, &pr.UserID, &pr.Name, &pr.Age, &pr.Gender, &pr.ProfileType, &videoURL); err != nil {
			return nil, apperr.Store(err, "scan profile")
		}
		pr.VideoURL = videoURL.String
		profiles = append(profiles, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err, "iterate profiles")
	}
	return profiles, nil
}

// AnswersByUser returns the user's answers, newest first.
func (p *PostgresClient) AnswersByUser(ctx context.Context, userID string) ([]models.Answer, error) {
	rows, err := p.db.QueryContext(ctx, answersByUserQuery, userID)
	if err != nil {
		return nil, apperr.Store(err, "query answers by user")
	}
	defer rows.Close()

	answers := make([]models.Answer, 0)
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuestionID, &a.Question, &a.Answer, &a.CreatedAt); err != nil {
			return nil, apperr.Store(err, "scan answer")
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err, "iterate answers")
	}
	return answers, nil
}

func (p *PostgresClient) InsertAnswer(ctx context.Context, userID string, questionID int64, answer string) (int64, error) {
	var id int64
	if err := p.db.QueryRowContext(ctx, insertAnswerQuery, userID, questionID, answer).Scan(&id); err != nil {
		return 0, apperr.Store(err, "insert answer")
	}
	return id, nil
}

func (p *PostgresClient) InsertVideoWatch(ctx context.Context, userID, profileID string) (int64, error) {
	var id int64
	if err := p.db.QueryRowContext(ctx, insertVideoWatchQuery, userID, profileID).Scan(&id); err != nil {
		return 0, apperr.Store(err, "insert video watch")
	}
	return id, nil
}

func (p *PostgresClient) HasWatchedVideo(ctx context.Context, userID, profileID string) (bool, error) {
	var watched bool
	if err := p.db.QueryRowContext(ctx, hasWatchedVideoQuery, userID, profileID).Scan(&watched); err != nil {
		return false, apperr.Store(err, "check video watch")
	}
	return watched, nil
}

func (p *PostgresClient) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	if err := p.db.QueryRowContext(ctx, userExistsQuery, userID).Scan(&exists); err != nil {
		return false, apperr.Store(err, "check user exists")
	}
	return exists, nil
}

func (p *PostgresClient) Health(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresClient) Close() error {
	return p.db.Close()
}
