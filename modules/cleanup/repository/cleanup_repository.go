package repository

import (
	"context"
	"time"

	"github.com/lib/pq"

	"github.com/liyxianren/mmyq/core/database"
)

// ExpiredSubmission is a submission past the retention window together with
// the screenshot files its venues reference.
type ExpiredSubmission struct {
	ID          int64
	VenueCount  int
	Screenshots []string
}

type CleanupRepositoryInterface interface {
	ExpiredSubmissions(ctx context.Context, cutoff time.Time) ([]ExpiredSubmission, error)
	DeleteSubmissions(ctx context.Context, ids []int64) (int64, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (submissions int, venues int, err error)
}

type CleanupRepository struct {
	DB database.IDatabase
}

func NewCleanupRepository(db database.IDatabase) CleanupRepositoryInterface {
	return &CleanupRepository{DB: db}
}

// ExpiredSubmissions lists submissions whose booking date is strictly before
// the cutoff, regardless of status. Deleted submissions past the window are
// purged too.
func (r *CleanupRepository) ExpiredSubmissions(ctx context.Context, cutoff time.Time) ([]ExpiredSubmission, error) {
	type row struct {
		SubmissionID int64   `db:"submission_id"`
		VenueID      *int64  `db:"venue_id"`
		Screenshot   *string `db:"venue_screenshot"`
	}
	var rows []row
	err := r.DB.SelectContext(ctx, &rows, `
		SELECT vs.id AS submission_id, v.id AS venue_id, v.venue_screenshot
		FROM venue_submissions vs
		LEFT JOIN venues v ON v.submission_id = vs.id
		WHERE vs.venue_date < $1
		ORDER BY vs.id
	`, cutoff.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	var out []ExpiredSubmission
	byID := map[int64]int{}
	for _, rec := range rows {
		idx, ok := byID[rec.SubmissionID]
		if !ok {
			out = append(out, ExpiredSubmission{ID: rec.SubmissionID})
			idx = len(out) - 1
			byID[rec.SubmissionID] = idx
		}
		// a submission with no venues still yields one LEFT JOIN row
		if rec.VenueID == nil {
			continue
		}
		out[idx].VenueCount++
		if rec.Screenshot != nil && *rec.Screenshot != "" {
			out[idx].Screenshots = append(out[idx].Screenshots, *rec.Screenshot)
		}
	}
	return out, nil
}

// DeleteSubmissions removes the given submissions. Venues go with them via
// the ON DELETE CASCADE constraint.
func (r *CleanupRepository) DeleteSubmissions(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM venue_submissions WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *CleanupRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int, int, error) {
	var counts struct {
		Submissions int `db:"submissions"`
		Venues      int `db:"venues"`
	}
	err := r.DB.GetContext(ctx, &counts, `
		SELECT COUNT(DISTINCT vs.id) AS submissions, COUNT(v.id) AS venues
		FROM venue_submissions vs
		LEFT JOIN venues v ON v.submission_id = vs.id
		WHERE vs.venue_date < $1
	`, cutoff.Format("2006-01-02"))
	if err != nil {
		return 0, 0, err
	}
	return counts.Submissions, counts.Venues, nil
}
