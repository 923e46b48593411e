package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/abrezinsky/prizewheel/internal/models"
)

// timeLayout is fixed width so stored timestamps compare correctly as text
const timeLayout = "2006-01-02 15:04:05.000"

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", withTxLock(dbPath))
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// withTxLock makes every transaction take the write lock up front
func withTxLock(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_txlock=immediate"
}

// DB returns the underlying database connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_owner BOOLEAN DEFAULT 0,
			primary_color TEXT DEFAULT '',
			secondary_color TEXT DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			enable_spin_limit BOOLEAN DEFAULT 0,
			spins_per_user_per_day INTEGER DEFAULT 0,
			require_contact BOOLEAN DEFAULT 0,
			created_at TEXT NOT NULL,
			active BOOLEAN DEFAULT 1,
			FOREIGN KEY (tenant_id) REFERENCES tenants(id)
		)`,
		`CREATE TABLE IF NOT EXISTS prizes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			project_id INTEGER,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '0',
			quantity INTEGER,
			is_unlimited BOOLEAN DEFAULT 0,
			exhaustion_behavior TEXT NOT NULL DEFAULT 'exclude',
			status TEXT NOT NULL DEFAULT 'active',
			display_order INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN DEFAULT 1,
			CHECK (quantity IS NULL OR quantity >= 0),
			FOREIGN KEY (tenant_id) REFERENCES tenants(id),
			FOREIGN KEY (project_id) REFERENCES projects(id)
		)`,
		`CREATE TABLE IF NOT EXISTS spins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id INTEGER NOT NULL,
			project_id INTEGER,
			prize_id INTEGER NOT NULL,
			prize_won TEXT NOT NULL,
			contact TEXT NOT NULL DEFAULT '',
			contact_type TEXT NOT NULL DEFAULT 'none',
			token TEXT NOT NULL UNIQUE,
			is_redeemed BOOLEAN DEFAULT 0,
			claim_contact TEXT,
			claim_contact_type TEXT,
			redeemed_at TEXT,
			created_at TEXT NOT NULL,
			FOREIGN KEY (tenant_id) REFERENCES tenants(id),
			FOREIGN KEY (prize_id) REFERENCES prizes(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_tenant ON projects(tenant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_prizes_scope ON prizes(tenant_id, project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_spins_contact ON spins(project_id, contact, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_spins_tenant ON spins(tenant_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := r.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func ptrID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// ==================== Tenant Methods ====================

const tenantColumns = `id, name, email, password_hash, is_owner, primary_color, secondary_color, created_at`

func scanTenant(row interface{ Scan(...any) error }, t *models.Tenant) error {
	var createdAt string
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.IsOwner,
		&t.PrimaryColor, &t.SecondaryColor, &createdAt); err != nil {
		return err
	}
	t.CreatedAt = parseTime(createdAt)
	return nil
}

// CreateTenant inserts a tenant, returning ErrDuplicate if the email is taken
func (r *Repository) CreateTenant(ctx context.Context, t *models.Tenant) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (name, email, password_hash, is_owner, primary_color, secondary_color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.Name, t.Email, t.PasswordHash, t.IsOwner, t.PrimaryColor, t.SecondaryColor, formatTime(t.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return result.LastInsertId()
}

// GetTenant retrieves a tenant by ID
func (r *Repository) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	var t models.Tenant
	err := scanTenant(r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id), &t)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenantByEmail retrieves a tenant by login email
func (r *Repository) GetTenantByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	var t models.Tenant
	err := scanTenant(r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE email = ?`, email), &t)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTenantSettings updates the tenant's display name and theme
func (r *Repository) UpdateTenantSettings(ctx context.Context, id int64, name, primaryColor, secondaryColor string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tenants SET name = ?, primary_color = ?, secondary_color = ? WHERE id = ?
	`, name, primaryColor, secondaryColor, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListTenantSummaries returns every tenant with project and spin counts
func (r *Repository) ListTenantSummaries(ctx context.Context) ([]models.TenantSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.email, t.password_hash, t.is_owner, t.primary_color, t.secondary_color, t.created_at,
			(SELECT COUNT(*) FROM projects p WHERE p.tenant_id = t.id AND p.active = 1),
			(SELECT COUNT(*) FROM spins s WHERE s.tenant_id = t.id)
		FROM tenants t
		ORDER BY t.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []models.TenantSummary{}
	for rows.Next() {
		var s models.TenantSummary
		var createdAt string
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.IsOwner,
			&s.PrimaryColor, &s.SecondaryColor, &createdAt, &s.Projects, &s.TotalSpins); err != nil {
			return nil, err
		}
		s.CreatedAt = parseTime(createdAt)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// requireRow maps a zero-row update to ErrNotFound
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Project Methods ====================

const projectColumns = `id, tenant_id, name, status, enable_spin_limit, spins_per_user_per_day, require_contact, created_at`

func scanProject(row interface{ Scan(...any) error }, p *models.Project) error {
	var createdAt, status string
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &status, &p.Rules.EnableSpinLimit,
		&p.Rules.SpinsPerUserPerDay, &p.Rules.RequireContact, &createdAt); err != nil {
		return err
	}
	p.Status = models.ProjectStatus(status)
	p.CreatedAt = parseTime(createdAt)
	return nil
}

// CreateProject inserts a project
func (r *Repository) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (tenant_id, name, status, enable_spin_limit, spins_per_user_per_day, require_contact, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.TenantID, p.Name, string(p.Status), p.Rules.EnableSpinLimit, p.Rules.SpinsPerUserPerDay,
		p.Rules.RequireContact, formatTime(p.CreatedAt))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetProject retrieves a live project owned by the tenant
func (r *Repository) GetProject(ctx context.Context, tenantID, id int64) (*models.Project, error) {
	return getProject(ctx, r.db, tenantID, id)
}

func getProject(ctx context.Context, q querier, tenantID, id int64) (*models.Project, error) {
	var p models.Project
	err := scanProject(q.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = ? AND tenant_id = ? AND active = 1
	`, id, tenantID), &p)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns the tenant's projects, newest first
func (r *Repository) ListProjects(ctx context.Context, tenantID int64) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE tenant_id = ? AND active = 1 ORDER BY id DESC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject updates a project's name and rules
func (r *Repository) UpdateProject(ctx context.Context, p *models.Project) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, enable_spin_limit = ?, spins_per_user_per_day = ?, require_contact = ?
		WHERE id = ? AND tenant_id = ? AND active = 1
	`, p.Name, p.Rules.EnableSpinLimit, p.Rules.SpinsPerUserPerDay, p.Rules.RequireContact, p.ID, p.TenantID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SetProjectStatus changes a project's lifecycle status
func (r *Repository) SetProjectStatus(ctx context.Context, tenantID, id int64, status models.ProjectStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE projects SET status = ? WHERE id = ? AND tenant_id = ? AND active = 1
	`, string(status), id, tenantID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// DeleteProject soft deletes a project along with its prizes.
// Spin records are kept so stats and redemptions stay valid.
func (r *Repository) DeleteProject(ctx context.Context, tenantID, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE projects SET active = 0 WHERE id = ? AND tenant_id = ? AND active = 1`, id, tenantID)
	if err != nil {
		return err
	}
	if err := requireRow(result); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE prizes SET active = 0 WHERE project_id = ? AND tenant_id = ?`, id, tenantID); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Prize Methods ====================

const prizeColumns = `id, tenant_id, project_id, name, type, value, quantity, is_unlimited, exhaustion_behavior, status, display_order`

func scanPrize(row interface{ Scan(...any) error }, p *models.Prize) error {
	var (
		projectID, quantity                sql.NullInt64
		prizeType, value, behavior, status string
	)
	if err := row.Scan(&p.ID, &p.TenantID, &projectID, &p.Name, &prizeType, &value, &quantity,
		&p.IsUnlimited, &behavior, &status, &p.DisplayOrder); err != nil {
		return err
	}
	p.ProjectID = ptrID(projectID)
	p.Type = models.PrizeType(prizeType)
	p.ExhaustionBehavior = models.ExhaustionBehavior(behavior)
	p.Status = models.PrizeStatus(status)
	if d, err := decimal.NewFromString(value); err == nil {
		p.Value = d
	}
	if quantity.Valid {
		q := int(quantity.Int64)
		p.Quantity = &q
	}
	return nil
}

// scopeClause matches prizes belonging exactly to the given wheel scope
func scopeClause(scope models.Scope) (string, []any) {
	if scope.ProjectID == nil {
		return `tenant_id = ? AND project_id IS NULL`, []any{scope.TenantID}
	}
	return `tenant_id = ? AND project_id = ?`, []any{scope.TenantID, *scope.ProjectID}
}

func quantityArg(p *models.Prize) any {
	if p.Quantity == nil {
		return nil
	}
	return *p.Quantity
}

// CreatePrize inserts a prize
func (r *Repository) CreatePrize(ctx context.Context, p *models.Prize) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO prizes (tenant_id, project_id, name, type, value, quantity, is_unlimited, exhaustion_behavior, status, display_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.TenantID, nullableID(p.ProjectID), p.Name, string(p.Type), p.Value.String(), quantityArg(p),
		p.IsUnlimited, string(p.ExhaustionBehavior), string(p.Status), p.DisplayOrder)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetPrize retrieves a live prize owned by the tenant
func (r *Repository) GetPrize(ctx context.Context, tenantID, id int64) (*models.Prize, error) {
	var p models.Prize
	err := scanPrize(r.db.QueryRowContext(ctx, `
		SELECT `+prizeColumns+` FROM prizes WHERE id = ? AND tenant_id = ? AND active = 1
	`, id, tenantID), &p)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPrizes returns every live prize in scope, including inactive ones
func (r *Repository) ListPrizes(ctx context.Context, scope models.Scope) ([]models.Prize, error) {
	return listPrizes(ctx, r.db, scope, false)
}

// ListActivePrizes returns the prizes in scope whose status is active
func (r *Repository) ListActivePrizes(ctx context.Context, scope models.Scope) ([]models.Prize, error) {
	return listPrizes(ctx, r.db, scope, true)
}

func listPrizes(ctx context.Context, q querier, scope models.Scope, activeOnly bool) ([]models.Prize, error) {
	where, args := scopeClause(scope)
	query := `SELECT ` + prizeColumns + ` FROM prizes WHERE ` + where + ` AND active = 1`
	if activeOnly {
		query += ` AND status = 'active'`
	}
	query += ` ORDER BY display_order, id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prizes := []models.Prize{}
	for rows.Next() {
		var p models.Prize
		if err := scanPrize(rows, &p); err != nil {
			return nil, err
		}
		prizes = append(prizes, p)
	}
	return prizes, rows.Err()
}

// UpdatePrize replaces a prize's editable fields
func (r *Repository) UpdatePrize(ctx context.Context, p *models.Prize) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE prizes SET name = ?, type = ?, value = ?, quantity = ?, is_unlimited = ?,
			exhaustion_behavior = ?, status = ?, display_order = ?
		WHERE id = ? AND tenant_id = ? AND active = 1
	`, p.Name, string(p.Type), p.Value.String(), quantityArg(p), p.IsUnlimited,
		string(p.ExhaustionBehavior), string(p.Status), p.DisplayOrder, p.ID, p.TenantID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// DeletePrize soft deletes a prize; past spins keep referencing it
func (r *Repository) DeletePrize(ctx context.Context, tenantID, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE prizes SET active = 0 WHERE id = ? AND tenant_id = ? AND active = 1`, id, tenantID)
	if err != nil {
		return err
	}
	return requireRow(result)
}
