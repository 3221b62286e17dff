package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"silverland-assistant/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrProjectNotFound is returned when a project id does not exist in the
// catalog, e.g. a stale selection at booking or detail time.
var ErrProjectNotFound = errors.New("project not found")

const projectColumns = `id, name, city, country, developer_name, no_of_bedrooms, bathrooms,
	unit_type, completion_status, price_usd, area_sqm, property_type,
	completion_date, features, facilities, description, created_at, updated_at`

// ProjectRepository handles catalog, lead and booking database operations.
type ProjectRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

// NewProjectRepository connects to PostgreSQL and returns a repository.
func NewProjectRepository(dsn string, maxConn, maxIdleConn int, log *zap.Logger) (*ProjectRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &ProjectRepository{db: db, log: log}, nil
}

// NewProjectRepositoryWithDB wraps an existing connection, used by tests.
func NewProjectRepositoryWithDB(db *sql.DB, log *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: sqlx.NewDb(db, "postgres"), log: log}
}

// Close closes the database connection.
func (r *ProjectRepository) Close() error {
	return r.db.Close()
}

// SearchByProfile runs the tiered hard/soft search and returns a ranked
// shortlist. Hard filters (city, property type, bedrooms) go to SQL; the
// soft tiers (unit size, budget with fallback) are applied in memory on the
// hard-filtered rows so the whole search costs a single catalog query.
// Results are ordered by price ascending, unknown prices last, capped at 10.
// An empty result is not an error.
func (r *ProjectRepository) SearchByProfile(ctx context.Context, profile model.BuyerProfile) ([]model.ProjectSummary, error) {
	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	if profile.City != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(city) = LOWER($%d)", argIndex))
		args = append(args, *profile.City)
		argIndex++
	}
	if profile.PropertyType != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(property_type) = LOWER($%d)", argIndex))
		args = append(args, *profile.PropertyType)
		argIndex++
	}
	if profile.Bedrooms != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("no_of_bedrooms = $%d", argIndex))
		args = append(args, *profile.Bedrooms)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT id, name, city, country, price_usd, unit_type, no_of_bedrooms, property_type
		FROM projects
		WHERE %s
		ORDER BY price_usd ASC NULLS LAST, id ASC`,
		strings.Join(whereClauses, " AND "))

	var rows []model.ProjectSummary
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search projects: %w", err)
	}

	results := FilterByPreferences(rows, profile)

	r.log.Debug("project search",
		zap.Int("hard_matches", len(rows)),
		zap.Int("shortlisted", len(results)),
	)

	return results, nil
}

// GetProjectByID fetches the full catalog record, or ErrProjectNotFound.
func (r *ProjectRepository) GetProjectByID(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	query := fmt.Sprintf("SELECT %s FROM projects WHERE id = $1", projectColumns)
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return &p, nil
}

// CreateLeadAndBooking creates a lead and a pending visit booking in one
// transaction. Returns ErrProjectNotFound if the referenced project no
// longer exists; no records are written in that case.
func (r *ProjectRepository) CreateLeadAndBooking(
	ctx context.Context,
	lead model.LeadInfo,
	profile model.BuyerProfile,
	projectID int64,
) (*model.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var project model.Project
	query := fmt.Sprintf("SELECT %s FROM projects WHERE id = $1", projectColumns)
	if err := tx.GetContext(ctx, &project, query, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project %d: %w", projectID, err)
	}

	record := model.Lead{
		FirstName:   deref(lead.FirstName),
		LastName:    deref(lead.LastName),
		Email:       deref(lead.Email),
		Preferences: profileToMap(profile),
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO leads (first_name, last_name, email, preferences)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		record.FirstName, record.LastName, record.Email, record.Preferences,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	booking := model.Booking{
		LeadID:    record.ID,
		ProjectID: project.ID,
		City:      project.City,
		Status:    model.BookingStatusPending,
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO visit_bookings (lead_id, project_id, city, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		booking.LeadID, booking.ProjectID, booking.City, booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.Lead = record
	booking.Project = project

	r.log.Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("lead_id", record.ID),
		zap.Int64("project_id", project.ID),
	)

	return &booking, nil
}

// UpsertProject inserts or updates a catalog record keyed by (name, city).
// Used by the CSV importer. Returns true when a new row was created.
func (r *ProjectRepository) UpsertProject(ctx context.Context, p *model.Project) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET
			country = $3, developer_name = $4, no_of_bedrooms = $5, bathrooms = $6,
			unit_type = $7, completion_status = $8, price_usd = $9, area_sqm = $10,
			property_type = $11, completion_date = $12, features = $13,
			facilities = $14, description = $15, updated_at = NOW()
		 WHERE name = $1 AND city = $2`,
		p.Name, p.City, p.Country, p.DeveloperName, p.Bedrooms, p.Bathrooms,
		p.UnitType, p.CompletionStatus, p.PriceUSD, p.AreaSqm,
		p.PropertyType, p.CompletionDate, p.Features, p.Facilities, p.Description,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update project %q: %w", p.Name, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO projects (name, city, country, developer_name, no_of_bedrooms,
			bathrooms, unit_type, completion_status, price_usd, area_sqm,
			property_type, completion_date, features, facilities, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.Name, p.City, p.Country, p.DeveloperName, p.Bedrooms, p.Bathrooms,
		p.UnitType, p.CompletionStatus, p.PriceUSD, p.AreaSqm,
		p.PropertyType, p.CompletionDate, p.Features, p.Facilities, p.Description,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert project %q: %w", p.Name, err)
	}
	return true, nil
}

func profileToMap(profile model.BuyerProfile) model.JSONMap {
	raw, err := json.Marshal(profile)
	if err != nil {
		return model.JSONMap{}
	}
	out := model.JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.JSONMap{}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
