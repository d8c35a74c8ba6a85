package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fixly-app/fixly-backend/internal/models"
)

// Ошибки услуг.
var (
	ErrGigNotFound     = errors.New("gig not found")
	ErrPackageNotFound = errors.New("gig package not found")
)

// GigRepository отвечает за работу с таблицами gigs и gig_packages.
type GigRepository struct {
	db *sqlx.DB
}

// NewGigRepository создаёт экземпляр репозитория.
func NewGigRepository(db *sqlx.DB) *GigRepository {
	return &GigRepository{db: db}
}

// Create создаёт услугу вместе с пакетами в одной транзакции.
func (r *GigRepository) Create(ctx context.Context, gig *models.Gig) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO gigs (fixer_id, title, description, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, created_at, updated_at
	`, gig.FixerID, gig.Title, gig.Description).
		Scan(&gig.ID, &gig.CreatedAt, &gig.UpdatedAt); err != nil {
		return fmt.Errorf("gig repository: create %w", err)
	}

	for i := range gig.Packages {
		pkg := &gig.Packages[i]
		pkg.GigID = gig.ID
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO gig_packages (gig_id, tier, title, price, delivery_days, revisions_allowed)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, pkg.GigID, pkg.Tier, pkg.Title, pkg.Price, pkg.DeliveryDays, pkg.RevisionsAllowed).
			Scan(&pkg.ID); err != nil {
			return fmt.Errorf("gig repository: create package %w", err)
		}
	}

	return tx.Commit()
}

// GetByID возвращает услугу с пакетами.
func (r *GigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	var gig models.Gig
	query := `SELECT id, fixer_id, title, description, is_active, created_at, updated_at FROM gigs WHERE id = $1`
	if err := r.db.GetContext(ctx, &gig, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGigNotFound
		}
		return nil, fmt.Errorf("gig repository: get by id %w", err)
	}

	if err := r.db.SelectContext(ctx, &gig.Packages, `
		SELECT id, gig_id, tier, title, price, delivery_days, revisions_allowed
		FROM gig_packages WHERE gig_id = $1 ORDER BY price ASC
	`, id); err != nil {
		return nil, fmt.Errorf("gig repository: get packages %w", err)
	}

	return &gig, nil
}

// GetPackage возвращает пакет услуги.
func (r *GigRepository) GetPackage(ctx context.Context, packageID uuid.UUID) (*models.GigPackage, error) {
	var pkg models.GigPackage
	query := `SELECT id, gig_id, tier, title, price, delivery_days, revisions_allowed FROM gig_packages WHERE id = $1`
	if err := r.db.GetContext(ctx, &pkg, query, packageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("gig repository: get package %w", err)
	}
	return &pkg, nil
}

// List возвращает активные услуги.
func (r *GigRepository) List(ctx context.Context, limit, offset int) ([]models.Gig, error) {
	var gigs []models.Gig
	query := `
		SELECT id, fixer_id, title, description, is_active, created_at, updated_at
		FROM gigs WHERE is_active = TRUE ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &gigs, query, limit, offset); err != nil {
		return nil, fmt.Errorf("gig repository: list %w", err)
	}
	return gigs, nil
}

// ListByFixer возвращает услуги мастера.
func (r *GigRepository) ListByFixer(ctx context.Context, fixerID uuid.UUID) ([]models.Gig, error) {
	var gigs []models.Gig
	query := `
		SELECT id, fixer_id, title, description, is_active, created_at, updated_at
		FROM gigs WHERE fixer_id = $1 ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &gigs, query, fixerID); err != nil {
		return nil, fmt.Errorf("gig repository: list by fixer %w", err)
	}
	return gigs, nil
}

// SetActive включает или выключает услугу.
func (r *GigRepository) SetActive(ctx context.Context, id uuid.UUID, fixerID uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE gigs SET is_active = $3, updated_at = NOW() WHERE id = $1 AND fixer_id = $2
	`, id, fixerID, active)
	if err != nil {
		return fmt.Errorf("gig repository: set active %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("gig repository: set active rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrGigNotFound
	}

	return nil
}
