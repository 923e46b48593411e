package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/abrezinsky/prizewheel/internal/models"
)

// spinTx runs spin operations against an open transaction
type spinTx struct {
	tx *sql.Tx
}

// WithSpinTx runs fn inside a single write transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func (r *Repository) WithSpinTx(ctx context.Context, fn func(tx SpinTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&spinTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *spinTx) RecentSpinTimes(ctx context.Context, projectID int64, contact string, since time.Time) ([]time.Time, error) {
	return recentSpinTimes(ctx, s.tx, projectID, contact, since)
}

// GetProject reads the project inside the transaction so status and rule
// changes committed before it are seen
func (s *spinTx) GetProject(ctx context.Context, tenantID, id int64) (*models.Project, error) {
	return getProject(ctx, s.tx, tenantID, id)
}

func (s *spinTx) ListActivePrizes(ctx context.Context, scope models.Scope) ([]models.Prize, error) {
	return listPrizes(ctx, s.tx, scope, true)
}

// ConsumePrize takes one unit of a prize if any remain. It reports false
// when the prize was depleted or deactivated by a concurrent spin.
func (s *spinTx) ConsumePrize(ctx context.Context, prizeID int64) (bool, error) {
	result, err := s.tx.ExecContext(ctx, `
		UPDATE prizes SET
			quantity = CASE WHEN is_unlimited = 1 THEN quantity ELSE quantity - 1 END,
			status = CASE
				WHEN is_unlimited = 0 AND quantity - 1 <= 0 AND exhaustion_behavior = 'mark_inactive' THEN 'inactive'
				ELSE status
			END
		WHERE id = ? AND active = 1 AND status = 'active' AND (is_unlimited = 1 OR quantity > 0)
	`, prizeID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *spinTx) InsertSpin(ctx context.Context, rec *models.SpinRecord) (int64, error) {
	result, err := s.tx.ExecContext(ctx, `
		INSERT INTO spins (tenant_id, project_id, prize_id, prize_won, contact, contact_type, token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.TenantID, nullableID(rec.ProjectID), rec.PrizeID, rec.PrizeWon, rec.Contact,
		string(rec.ContactType), rec.Token, formatTime(rec.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return result.LastInsertId()
}

// RecentSpinTimes returns the creation times of a contact's spins on a
// project after since, oldest first.
func (r *Repository) RecentSpinTimes(ctx context.Context, projectID int64, contact string, since time.Time) ([]time.Time, error) {
	return recentSpinTimes(ctx, r.db, projectID, contact, since)
}

func recentSpinTimes(ctx context.Context, q querier, projectID int64, contact string, since time.Time) ([]time.Time, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT created_at FROM spins
		WHERE project_id = ? AND contact = ? AND created_at > ?
		ORDER BY created_at, id
	`, projectID, contact, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var createdAt string
		if err := rows.Scan(&createdAt); err != nil {
			return nil, err
		}
		times = append(times, parseTime(createdAt))
	}
	return times, rows.Err()
}

// ==================== Ledger Methods ====================

const spinColumns = `id, tenant_id, project_id, prize_id, prize_won, contact, contact_type, token,
	is_redeemed, claim_contact, claim_contact_type, redeemed_at, created_at`

func scanSpin(row interface{ Scan(...any) error }, s *models.SpinRecord) error {
	var (
		projectID                           sql.NullInt64
		contactType, createdAt              string
		claimContact, claimType, redeemedAt sql.NullString
	)
	if err := row.Scan(&s.ID, &s.TenantID, &projectID, &s.PrizeID, &s.PrizeWon, &s.Contact, &contactType,
		&s.Token, &s.IsRedeemed, &claimContact, &claimType, &redeemedAt, &createdAt); err != nil {
		return err
	}
	s.ProjectID = ptrID(projectID)
	s.ContactType = models.ContactType(contactType)
	s.ClaimContact = claimContact.String
	s.ClaimContactType = models.ContactType(claimType.String)
	if redeemedAt.Valid {
		t := parseTime(redeemedAt.String)
		s.RedeemedAt = &t
	}
	s.CreatedAt = parseTime(createdAt)
	return nil
}

// GetSpinByToken retrieves a spin record by its redemption token
func (r *Repository) GetSpinByToken(ctx context.Context, token string) (*models.SpinRecord, error) {
	var s models.SpinRecord
	err := scanSpin(r.db.QueryRowContext(ctx, `SELECT `+spinColumns+` FROM spins WHERE token = ?`, token), &s)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ClaimSpin marks an unredeemed spin as redeemed. It reports false when no
// unredeemed spin has the token, leaving existing claim data untouched.
func (r *Repository) ClaimSpin(ctx context.Context, token, contact string, contactType models.ContactType, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE spins SET is_redeemed = 1, claim_contact = ?, claim_contact_type = ?, redeemed_at = ?
		WHERE token = ? AND is_redeemed = 0
	`, contact, string(contactType), formatTime(at), token)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListSpins returns the tenant's most recent spins. A nil projectID
// includes every project and the tenant-level wheel.
func (r *Repository) ListSpins(ctx context.Context, tenantID int64, projectID *int64, limit int) ([]models.SpinRecord, error) {
	query := `SELECT ` + spinColumns + ` FROM spins WHERE tenant_id = ?`
	args := []any{tenantID}
	if projectID != nil {
		query += ` AND project_id = ?`
		args = append(args, *projectID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spins := []models.SpinRecord{}
	for rows.Next() {
		var s models.SpinRecord
		if err := scanSpin(rows, &s); err != nil {
			return nil, err
		}
		spins = append(spins, s)
	}
	return spins, rows.Err()
}

// ==================== Stats Methods ====================

// GetSpinStats aggregates the tenant's ledger from since onwards
func (r *Repository) GetSpinStats(ctx context.Context, tenantID int64, projectID *int64, since time.Time) (*models.SpinStats, error) {
	where := ` WHERE tenant_id = ? AND created_at >= ?`
	args := []any{tenantID, formatTime(since)}
	if projectID != nil {
		where += ` AND project_id = ?`
		args = append(args, *projectID)
	}

	stats := &models.SpinStats{WinsByPrize: []models.PrizeCount{}, SpinsByDay: []models.DayCount{}}

	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(DISTINCT NULLIF(contact, '')),
			COALESCE(SUM(CASE WHEN is_redeemed = 1 THEN 1 ELSE 0 END), 0)
		FROM spins`+where, args...).Scan(&stats.TotalSpins, &stats.UniqueVisitors, &stats.Redeemed); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT prize_won, COUNT(*) AS wins FROM spins`+where+`
		GROUP BY prize_won ORDER BY wins DESC, prize_won`, args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var pc models.PrizeCount
		if err := rows.Scan(&pc.Prize, &pc.Count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.WinsByPrize = append(stats.WinsByPrize, pc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT substr(created_at, 1, 10) AS day, COUNT(*) FROM spins`+where+`
		GROUP BY day ORDER BY day`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var dc models.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		stats.SpinsByDay = append(stats.SpinsByDay, dc)
	}
	return stats, rows.Err()
}

// GetPlatformStats returns totals across all tenants
func (r *Repository) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	stats := &models.PlatformStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tenants),
			(SELECT COUNT(*) FROM projects WHERE active = 1),
			(SELECT COUNT(*) FROM prizes WHERE active = 1),
			(SELECT COUNT(*) FROM spins),
			(SELECT COUNT(*) FROM spins WHERE is_redeemed = 1)
	`).Scan(&stats.Tenants, &stats.Projects, &stats.Prizes, &stats.TotalSpins, &stats.Redeemed)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
