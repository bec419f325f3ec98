package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConsentSettings is the jsonb payload on a link row. RequestedBy records
// which role initiated the request; EditingApproved extends the family
// member's access from read-only to read-write.
type ConsentSettings struct {
	RequestedBy     string `json:"requested_by,omitempty"`
	EditingApproved bool   `json:"editing_approved"`
}

// Link is the single relationship row between a senior and a family member.
// LinkedAt == nil means requested but not yet accepted.
type Link struct {
	ID        string
	SeniorID  string
	FamilyID  string
	Consent   ConsentSettings
	LinkedAt  *time.Time
	CreatedAt time.Time
}

// Pending reports whether the link is awaiting acceptance.
func (l *Link) Pending() bool { return l.LinkedAt == nil }

// Active reports whether the link has been accepted.
func (l *Link) Active() bool { return l.LinkedAt != nil }

// Participant reports whether userID is either endpoint of the link.
func (l *Link) Participant(userID string) bool {
	return l.SeniorID == userID || l.FamilyID == userID
}

type LinkRepository interface {
	Create(ctx context.Context, link *Link) error
	FindByID(ctx context.Context, id string) (*Link, error)
	FindByParticipant(ctx context.Context, userID string) (*Link, error)
	FindAllByParticipant(ctx context.Context, userID string) ([]*Link, error)
	FindActiveBySeniorAndFamily(ctx context.Context, seniorID, familyID string) (*Link, error)
	FindActiveSeniorForFamily(ctx context.Context, familyID string) (string, error)
	UpdateConsent(ctx context.Context, id string, consent ConsentSettings) error
	AcceptAndDeconflict(ctx context.Context, id string, consent ConsentSettings, linkedAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByParticipant(ctx context.Context, userID string) (int, error)
}

type pgLinkRepository struct {
	pool *pgxpool.Pool
}

func NewLinkRepository(pool *pgxpool.Pool) LinkRepository {
	return &pgLinkRepository{pool: pool}
}

func (r *pgLinkRepository) Create(ctx context.Context, link *Link) error {
	query := `
		INSERT INTO links (senior_id, family_id, consent_settings, linked_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		link.SeniorID, link.FamilyID, link.Consent, link.LinkedAt,
	).Scan(&link.ID, &link.CreatedAt)
}

func (r *pgLinkRepository) FindByID(ctx context.Context, id string) (*Link, error) {
	query := `
		SELECT id, senior_id, family_id, consent_settings, linked_at, created_at
		FROM links WHERE id = $1
	`
	link := &Link{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&link.ID, &link.SeniorID, &link.FamilyID, &link.Consent,
		&link.LinkedAt, &link.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *pgLinkRepository) FindByParticipant(ctx context.Context, userID string) (*Link, error) {
	query := `
		SELECT id, senior_id, family_id, consent_settings, linked_at, created_at
		FROM links WHERE senior_id = $1 OR family_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	link := &Link{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&link.ID, &link.SeniorID, &link.FamilyID, &link.Consent,
		&link.LinkedAt, &link.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *pgLinkRepository) FindAllByParticipant(ctx context.Context, userID string) ([]*Link, error) {
	query := `
		SELECT id, senior_id, family_id, consent_settings, linked_at, created_at
		FROM links WHERE senior_id = $1 OR family_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*Link
	for rows.Next() {
		link := &Link{}
		if err := rows.Scan(
			&link.ID, &link.SeniorID, &link.FamilyID, &link.Consent,
			&link.LinkedAt, &link.CreatedAt,
		); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *pgLinkRepository) FindActiveBySeniorAndFamily(ctx context.Context, seniorID, familyID string) (*Link, error) {
	query := `
		SELECT id, senior_id, family_id, consent_settings, linked_at, created_at
		FROM links
		WHERE senior_id = $1 AND family_id = $2 AND linked_at IS NOT NULL
	`
	link := &Link{}
	err := r.pool.QueryRow(ctx, query, seniorID, familyID).Scan(
		&link.ID, &link.SeniorID, &link.FamilyID, &link.Consent,
		&link.LinkedAt, &link.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *pgLinkRepository) FindActiveSeniorForFamily(ctx context.Context, familyID string) (string, error) {
	var seniorID string
	err := r.pool.QueryRow(ctx,
		`SELECT senior_id FROM links WHERE family_id = $1 AND linked_at IS NOT NULL`,
		familyID,
	).Scan(&seniorID)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return seniorID, nil
}

func (r *pgLinkRepository) UpdateConsent(ctx context.Context, id string, consent ConsentSettings) error {
	query := `UPDATE links SET consent_settings = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, consent)
	return err
}

// AcceptAndDeconflict activates the link and, in the same transaction, deletes
// every sibling row referencing either endpoint. If validation was ever
// bypassed and a party holds several rows, acceptance restores the
// one-link-per-party invariant atomically.
func (r *pgLinkRepository) AcceptAndDeconflict(ctx context.Context, id string, consent ConsentSettings, linkedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var seniorID, familyID string
	err = tx.QueryRow(ctx,
		`UPDATE links SET linked_at = $2, consent_settings = $3 WHERE id = $1
		 RETURNING senior_id, family_id`,
		id, linkedAt, consent,
	).Scan(&seniorID, &familyID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM links
		 WHERE id <> $1
		   AND (senior_id = $2 OR family_id = $2 OR senior_id = $3 OR family_id = $3)`,
		id, seniorID, familyID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgLinkRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	return err
}

// DeleteByParticipant removes every link row in which userID is an endpoint.
// The filter is participant-scoped on purpose: a replace can only ever delete
// rows the requester belongs to.
func (r *pgLinkRepository) DeleteByParticipant(ctx context.Context, userID string) (int, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM links WHERE senior_id = $1 OR family_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
