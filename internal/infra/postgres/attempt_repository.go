package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"lms-challenge-service/internal/domain"
)

// AttemptRepository reads published chapters and quiz progress, and records
// finished challenge attempts. Every attempt is a new user_progress row, so
// retries of a chapter are kept.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) PublishedChapterIDs(ctx context.Context, courseID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM chapters WHERE course_id=$1 AND is_published ORDER BY position, id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("query chapters: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CompletedAttempts returns completed attempts in insertion order.
func (r *AttemptRepository) CompletedAttempts(ctx context.Context, chapterIDs []string) ([]domain.QuizAttempt, error) {
	attempts := make([]domain.QuizAttempt, 0)
	if len(chapterIDs) == 0 {
		return attempts, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, course_id, chapter_id, quiz_score, time_taken, created_at,
		       is_completed, correct_answers, incorrect_answers
		FROM user_progress
		WHERE chapter_id = ANY($1) AND is_quiz_completed
		ORDER BY seq`, chapterIDs)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a := domain.QuizAttempt{IsQuizCompleted: true}
		if err := rows.Scan(&a.UserID, &a.CourseID, &a.ChapterID, &a.QuizScore, &a.TimeTaken, &a.CreatedAt,
			&a.IsCompleted, &a.CorrectAnswers, &a.IncorrectAnswers); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (r *AttemptRepository) SaveAttempt(ctx context.Context, a domain.QuizAttempt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_progress (id, user_id, course_id, chapter_id, is_completed, is_quiz_completed,
		                           quiz_score, time_taken, correct_answers, incorrect_answers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, now()))`,
		uuid.NewString(), a.UserID, a.CourseID, a.ChapterID, a.IsCompleted, a.IsQuizCompleted,
		a.QuizScore, a.TimeTaken, a.CorrectAnswers, a.IncorrectAnswers, nullTime(a))
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func nullTime(a domain.QuizAttempt) interface{} {
	if a.CreatedAt.IsZero() {
		return nil
	}
	return a.CreatedAt
}
