package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursetaker-backend/internal/models"
)

type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

// Create persists the course and all of its segments in one transaction.
// Courses are born whole or not at all.
func (r *CourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = uuid.New()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO courses (id, user_id, video_id, title)
		 VALUES ($1, $2, $3, $4) RETURNING created_at`,
		course.ID, course.UserID, course.VideoID, course.Title,
	).Scan(&course.CreatedAt)
	if err != nil {
		return err
	}

	for i, seg := range course.Segments {
		_, err := tx.Exec(ctx,
			`INSERT INTO segments (course_id, position, start_seconds, end_seconds, duration_seconds, title, completed, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			course.ID, i, seg.StartSeconds, seg.EndSeconds, seg.DurationSeconds, seg.Title, seg.Completed, seg.Notes,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *CourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	course := &models.Course{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, video_id, title, created_at FROM courses WHERE id = $1`,
		id,
	).Scan(&course.ID, &course.UserID, &course.VideoID, &course.Title, &course.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT start_seconds, end_seconds, duration_seconds, title, completed, notes
		 FROM segments WHERE course_id = $1 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seg models.Segment
		err := rows.Scan(
			&seg.StartSeconds, &seg.EndSeconds, &seg.DurationSeconds,
			&seg.Title, &seg.Completed, &seg.Notes,
		)
		if err != nil {
			return nil, err
		}
		course.Segments = append(course.Segments, seg)
	}

	return course, rows.Err()
}

func (r *CourseRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.CourseSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.video_id, c.title, c.created_at,
			COUNT(s.position) AS segment_count,
			COUNT(s.position) FILTER (WHERE s.completed) AS completed_count
		 FROM courses c
		 LEFT JOIN segments s ON s.course_id = c.id
		 WHERE c.user_id = $1
		 GROUP BY c.id
		 ORDER BY c.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*models.CourseSummary
	for rows.Next() {
		cs := &models.CourseSummary{}
		err := rows.Scan(&cs.ID, &cs.VideoID, &cs.Title, &cs.CreatedAt, &cs.SegmentCount, &cs.CompletedCount)
		if err != nil {
			return nil, err
		}
		courses = append(courses, cs)
	}

	return courses, rows.Err()
}

// UpdateSegment replaces the mutable fields of one segment. Boundaries and
// title are never rewritten here, so what the pipeline produced round-trips
// untouched.
func (r *CourseRepo) UpdateSegment(ctx context.Context, courseID uuid.UUID, position int, completed *bool, notes *string) error {
	var sets []string
	args := []interface{}{courseID, position}
	argIdx := 3

	if completed != nil {
		sets = append(sets, fmt.Sprintf("completed = $%d", argIdx))
		args = append(args, *completed)
		argIdx++
	}
	if notes != nil {
		sets = append(sets, fmt.Sprintf("notes = $%d", argIdx))
		args = append(args, *notes)
		argIdx++
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE segments SET %s WHERE course_id = $1 AND position = $2", strings.Join(sets, ", "))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CourseRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	// Segments go with the course via ON DELETE CASCADE.
	tag, err := r.pool.Exec(ctx, "DELETE FROM courses WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
