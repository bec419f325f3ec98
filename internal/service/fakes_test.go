package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pillcare/pillcare-backend/internal/repository"
)

// In-memory repository fakes. They mirror the store's row semantics closely
// enough for lifecycle tests: conditional updates, one-link-per-party scans,
// occurrence uniqueness.

type fakeUserRepo struct {
	mu     sync.Mutex
	seq    int
	users  map[string]*repository.User
	tokens map[string]*repository.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*repository.User),
		tokens: make(map[string]*repository.RefreshToken),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *repository.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindIDsByRole(ctx context.Context, role string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, u := range f.users {
		if u.Role == role {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Name = name
	}
	return nil
}

func (f *fakeUserRepo) SaveRefreshToken(ctx context.Context, token *repository.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	f.tokens[token.Token] = &cp
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*repository.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rt, ok := f.tokens[token]; ok {
		cp := *rt
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeUserRepo) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for t, rt := range f.tokens {
		if rt.UserID == userID {
			delete(f.tokens, t)
		}
	}
	return nil
}

func (f *fakeUserRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := 0
	for t, rt := range f.tokens {
		if time.Now().After(rt.ExpiresAt) {
			delete(f.tokens, t)
			deleted++
		}
	}
	return deleted, nil
}

type fakeLinkRepo struct {
	mu    sync.Mutex
	seq   int
	links map[string]*repository.Link
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[string]*repository.Link)}
}

func (f *fakeLinkRepo) Create(ctx context.Context, link *repository.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	link.ID = fmt.Sprintf("link-%d", f.seq)
	link.CreatedAt = time.Now()
	cp := *link
	f.links[link.ID] = &cp
	return nil
}

func (f *fakeLinkRepo) FindByID(ctx context.Context, id string) (*repository.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.links[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeLinkRepo) FindByParticipant(ctx context.Context, userID string) (*repository.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.SeniorID == userID || l.FamilyID == userID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeLinkRepo) FindAllByParticipant(ctx context.Context, userID string) ([]*repository.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Link
	for _, l := range f.links {
		if l.SeniorID == userID || l.FamilyID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLinkRepo) FindActiveBySeniorAndFamily(ctx context.Context, seniorID, familyID string) (*repository.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.SeniorID == seniorID && l.FamilyID == familyID && l.LinkedAt != nil {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeLinkRepo) FindActiveSeniorForFamily(ctx context.Context, familyID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.FamilyID == familyID && l.LinkedAt != nil {
			return l.SeniorID, nil
		}
	}
	return "", nil
}

func (f *fakeLinkRepo) UpdateConsent(ctx context.Context, id string, consent repository.ConsentSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.links[id]; ok {
		l.Consent = consent
	}
	return nil
}

func (f *fakeLinkRepo) AcceptAndDeconflict(ctx context.Context, id string, consent repository.ConsentSettings, linkedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[id]
	if !ok {
		return fmt.Errorf("link %s not found", id)
	}
	at := linkedAt
	l.LinkedAt = &at
	l.Consent = consent
	for otherID, other := range f.links {
		if otherID == id {
			continue
		}
		if other.SeniorID == l.SeniorID || other.FamilyID == l.SeniorID ||
			other.SeniorID == l.FamilyID || other.FamilyID == l.FamilyID {
			delete(f.links, otherID)
		}
	}
	return nil
}

func (f *fakeLinkRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.links, id)
	return nil
}

func (f *fakeLinkRepo) DeleteByParticipant(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := 0
	for id, l := range f.links {
		if l.SeniorID == userID || l.FamilyID == userID {
			delete(f.links, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeMedicationRepo struct {
	mu   sync.Mutex
	seq  int
	meds map[string]*repository.Medication
}

func newFakeMedicationRepo() *fakeMedicationRepo {
	return &fakeMedicationRepo{meds: make(map[string]*repository.Medication)}
}

func (f *fakeMedicationRepo) Create(ctx context.Context, med *repository.Medication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	med.ID = fmt.Sprintf("med-%d", f.seq)
	med.CreatedAt = time.Now()
	cp := *med
	f.meds[med.ID] = &cp
	return nil
}

func (f *fakeMedicationRepo) FindByID(ctx context.Context, id string) (*repository.Medication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.meds[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeMedicationRepo) FindBySenior(ctx context.Context, seniorID string) ([]*repository.Medication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Medication
	for _, m := range f.meds {
		if m.SeniorID == seniorID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeMedicationRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.meds, id)
	return nil
}

type fakeDoseLogRepo struct {
	mu       sync.Mutex
	seq      int
	doses    map[string]*repository.DoseLog
	medNames map[string]string
}

func newFakeDoseLogRepo() *fakeDoseLogRepo {
	return &fakeDoseLogRepo{
		doses:    make(map[string]*repository.DoseLog),
		medNames: make(map[string]string),
	}
}

func (f *fakeDoseLogRepo) insert(medicationID, seniorID string, at time.Time, status string) *repository.DoseLog {
	f.seq++
	d := &repository.DoseLog{
		ID:            fmt.Sprintf("dose-%d", f.seq),
		MedicationID:  medicationID,
		SeniorID:      seniorID,
		ScheduledTime: at,
		Status:        status,
		SyncedAt:      time.Now(),
	}
	f.doses[d.ID] = d
	return d
}

// seedDose adds a dose row directly, bypassing generation.
func (f *fakeDoseLogRepo) seedDose(medicationID, seniorID string, at time.Time, status string) *repository.DoseLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(medicationID, seniorID, at, status)
}

func (f *fakeDoseLogRepo) InsertOccurrencesIfNone(ctx context.Context, medicationID, seniorID string, horizon time.Time, occurrences []time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, d := range f.doses {
		if d.MedicationID == medicationID && !d.ScheduledTime.Before(horizon) {
			return 0, nil
		}
	}

	inserted := 0
	for _, at := range occurrences {
		dup := false
		for _, d := range f.doses {
			if d.MedicationID == medicationID && d.ScheduledTime.Equal(at) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		f.insert(medicationID, seniorID, at, "scheduled")
		inserted++
	}
	return inserted, nil
}

func (f *fakeDoseLogRepo) FindByID(ctx context.Context, id string) (*repository.DoseLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.doses[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDoseLogRepo) FindBetween(ctx context.Context, seniorID string, from, to time.Time) ([]*repository.DoseWithMedication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.DoseWithMedication
	for _, d := range f.doses {
		if d.SeniorID != seniorID || d.ScheduledTime.Before(from) || d.ScheduledTime.After(to) {
			continue
		}
		cp := *d
		out = append(out, &repository.DoseWithMedication{
			DoseLog:        cp,
			MedicationName: f.medNames[d.MedicationID],
		})
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ScheduledTime.Before(out[i].ScheduledTime) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeDoseLogRepo) MarkTaken(ctx context.Context, id string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.doses[id]
	if !ok || d.Status != "scheduled" {
		return false, nil
	}
	at := now
	d.Status = "taken"
	d.TakenTime = &at
	d.SyncedAt = now
	return true, nil
}

func (f *fakeDoseLogRepo) MarkMissedBefore(ctx context.Context, seniorID string, cutoff, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	swept := 0
	for _, d := range f.doses {
		if d.SeniorID == seniorID && d.Status == "scheduled" && d.ScheduledTime.Before(cutoff) {
			d.Status = "missed"
			d.SyncedAt = now
			swept++
		}
	}
	return swept, nil
}

func (f *fakeDoseLogRepo) AdherenceBetween(ctx context.Context, seniorID string, from, to time.Time) (*repository.AdherenceStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &repository.AdherenceStats{PerDay: make(map[string]int)}
	for _, d := range f.doses {
		if d.SeniorID != seniorID || d.ScheduledTime.Before(from) || d.ScheduledTime.After(to) {
			continue
		}
		stats.Total++
		switch d.Status {
		case "taken":
			stats.Taken++
		case "missed":
			stats.Missed++
		case "scheduled":
			stats.Scheduled++
		}
		stats.PerDay[d.ScheduledTime.Format("2006-01-02")]++
	}
	return stats, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	seq           int
	notifications []*repository.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *repository.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	n.ID = fmt.Sprintf("notif-%d", f.seq)
	n.CreatedAt = time.Now()
	cp := *n
	f.notifications = append(f.notifications, &cp)
	return nil
}

func (f *fakeNotificationRepo) FindByUser(ctx context.Context, userID string, limit int) ([]*repository.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) DeleteOlderThan(ctx context.Context, age time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-age)
	kept := f.notifications[:0]
	deleted := 0
	for _, n := range f.notifications {
		if n.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	f.notifications = kept
	return deleted, nil
}
