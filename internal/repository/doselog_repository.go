package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DoseLog struct {
	ID            string
	MedicationID  string
	SeniorID      string
	ScheduledTime time.Time
	Status        string
	TakenTime     *time.Time
	SyncedAt      time.Time
}

// DoseWithMedication joins a dose log with its medication's display name for
// the today view.
type DoseWithMedication struct {
	DoseLog
	MedicationName string
}

// AdherenceStats summarizes dose outcomes over a date range.
type AdherenceStats struct {
	Total     int            `json:"total"`
	Taken     int            `json:"taken"`
	Missed    int            `json:"missed"`
	Scheduled int            `json:"scheduled"`
	PerDay    map[string]int `json:"per_day"`
}

type DoseLogRepository interface {
	InsertOccurrencesIfNone(ctx context.Context, medicationID, seniorID string, horizon time.Time, occurrences []time.Time) (int, error)
	FindByID(ctx context.Context, id string) (*DoseLog, error)
	FindBetween(ctx context.Context, seniorID string, from, to time.Time) ([]*DoseWithMedication, error)
	MarkTaken(ctx context.Context, id string, now time.Time) (bool, error)
	MarkMissedBefore(ctx context.Context, seniorID string, cutoff, now time.Time) (int, error)
	AdherenceBetween(ctx context.Context, seniorID string, from, to time.Time) (*AdherenceStats, error)
}

type pgDoseLogRepository struct {
	pool *pgxpool.Pool
}

func NewDoseLogRepository(pool *pgxpool.Pool) DoseLogRepository {
	return &pgDoseLogRepository{pool: pool}
}

// InsertOccurrencesIfNone inserts one scheduled row per occurrence unless the
// medication already has any row at or after horizon (regardless of status).
// The existence check and the inserts share one transaction, and the unique
// (medication_id, scheduled_time) index absorbs a concurrent second pass, so
// calling this from several devices at once never duplicates occurrences.
func (r *pgDoseLogRepository) InsertOccurrencesIfNone(ctx context.Context, medicationID, seniorID string, horizon time.Time, occurrences []time.Time) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM dose_logs
			WHERE medication_id = $1 AND scheduled_time >= $2
		)`,
		medicationID, horizon,
	).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, tx.Commit(ctx)
	}

	inserted := 0
	for _, at := range occurrences {
		result, err := tx.Exec(ctx,
			`INSERT INTO dose_logs (medication_id, senior_id, scheduled_time, status, synced_at)
			 VALUES ($1, $2, $3, 'scheduled', NOW())
			 ON CONFLICT (medication_id, scheduled_time) DO NOTHING`,
			medicationID, seniorID, at,
		)
		if err != nil {
			return 0, err
		}
		inserted += int(result.RowsAffected())
	}

	return inserted, tx.Commit(ctx)
}

func (r *pgDoseLogRepository) FindByID(ctx context.Context, id string) (*DoseLog, error) {
	query := `
		SELECT id, medication_id, senior_id, scheduled_time, status, taken_time, synced_at
		FROM dose_logs WHERE id = $1
	`
	dose := &DoseLog{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&dose.ID, &dose.MedicationID, &dose.SeniorID, &dose.ScheduledTime,
		&dose.Status, &dose.TakenTime, &dose.SyncedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dose, nil
}

func (r *pgDoseLogRepository) FindBetween(ctx context.Context, seniorID string, from, to time.Time) ([]*DoseWithMedication, error) {
	query := `
		SELECT d.id, d.medication_id, d.senior_id, d.scheduled_time, d.status,
		       d.taken_time, d.synced_at, m.name
		FROM dose_logs d
		JOIN medications m ON m.id = d.medication_id
		WHERE d.senior_id = $1 AND d.scheduled_time >= $2 AND d.scheduled_time <= $3
		ORDER BY d.scheduled_time ASC
	`
	rows, err := r.pool.Query(ctx, query, seniorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doses []*DoseWithMedication
	for rows.Next() {
		dose := &DoseWithMedication{}
		if err := rows.Scan(
			&dose.ID, &dose.MedicationID, &dose.SeniorID, &dose.ScheduledTime,
			&dose.Status, &dose.TakenTime, &dose.SyncedAt, &dose.MedicationName,
		); err != nil {
			return nil, err
		}
		doses = append(doses, dose)
	}
	return doses, rows.Err()
}

// MarkTaken transitions scheduled → taken. The status predicate makes the
// race against the staleness sweep deterministic: whichever transition commits
// first wins, the loser sees zero rows.
func (r *pgDoseLogRepository) MarkTaken(ctx context.Context, id string, now time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE dose_logs
		 SET status = 'taken', taken_time = $2, synced_at = $2
		 WHERE id = $1 AND status = 'scheduled'`,
		id, now,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// MarkMissedBefore transitions every scheduled dose before cutoff to missed.
func (r *pgDoseLogRepository) MarkMissedBefore(ctx context.Context, seniorID string, cutoff, now time.Time) (int, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE dose_logs
		 SET status = 'missed', synced_at = $3
		 WHERE senior_id = $1 AND status = 'scheduled' AND scheduled_time < $2`,
		seniorID, cutoff, now,
	)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func (r *pgDoseLogRepository) AdherenceBetween(ctx context.Context, seniorID string, from, to time.Time) (*AdherenceStats, error) {
	stats := &AdherenceStats{PerDay: make(map[string]int)}

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'taken'),
		        COUNT(*) FILTER (WHERE status = 'missed'),
		        COUNT(*) FILTER (WHERE status = 'scheduled')
		 FROM dose_logs
		 WHERE senior_id = $1 AND scheduled_time >= $2 AND scheduled_time <= $3`,
		seniorID, from, to,
	).Scan(&stats.Total, &stats.Taken, &stats.Missed, &stats.Scheduled)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT TO_CHAR(scheduled_time, 'YYYY-MM-DD'), COUNT(*)
		 FROM dose_logs
		 WHERE senior_id = $1 AND scheduled_time >= $2 AND scheduled_time <= $3
		 GROUP BY 1 ORDER BY 1`,
		seniorID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		stats.PerDay[day] = count
	}
	return stats, rows.Err()
}
