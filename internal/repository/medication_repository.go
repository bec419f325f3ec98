package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Medication is owned exclusively by its senior. The schedule column keeps the
// raw jsonb; decoding and validation live in the schedule package.
type Medication struct {
	ID        string
	SeniorID  string
	Name      string
	Dosage    string
	Schedule  json.RawMessage
	CreatedAt time.Time
}

type MedicationRepository interface {
	Create(ctx context.Context, med *Medication) error
	FindByID(ctx context.Context, id string) (*Medication, error)
	FindBySenior(ctx context.Context, seniorID string) ([]*Medication, error)
	Delete(ctx context.Context, id string) error
}

type pgMedicationRepository struct {
	pool *pgxpool.Pool
}

func NewMedicationRepository(pool *pgxpool.Pool) MedicationRepository {
	return &pgMedicationRepository{pool: pool}
}

func (r *pgMedicationRepository) Create(ctx context.Context, med *Medication) error {
	query := `
		INSERT INTO medications (senior_id, name, dosage, schedule)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		med.SeniorID, med.Name, med.Dosage, med.Schedule,
	).Scan(&med.ID, &med.CreatedAt)
}

func (r *pgMedicationRepository) FindByID(ctx context.Context, id string) (*Medication, error) {
	query := `
		SELECT id, senior_id, name, dosage, schedule, created_at
		FROM medications WHERE id = $1
	`
	med := &Medication{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&med.ID, &med.SeniorID, &med.Name, &med.Dosage, &med.Schedule, &med.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return med, nil
}

func (r *pgMedicationRepository) FindBySenior(ctx context.Context, seniorID string) ([]*Medication, error) {
	query := `
		SELECT id, senior_id, name, dosage, schedule, created_at
		FROM medications WHERE senior_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, seniorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []*Medication
	for rows.Next() {
		med := &Medication{}
		if err := rows.Scan(
			&med.ID, &med.SeniorID, &med.Name, &med.Dosage, &med.Schedule, &med.CreatedAt,
		); err != nil {
			return nil, err
		}
		meds = append(meds, med)
	}
	return meds, rows.Err()
}

// Delete cascades to the medication's dose logs at the store.
func (r *pgMedicationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM medications WHERE id = $1`, id)
	return err
}
