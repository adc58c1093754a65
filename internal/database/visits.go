package database

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/Aidin1998/greeter/common/errors"
	"github.com/Aidin1998/greeter/internal/config"
)

// VisitNote is stored with every recorded visit
const VisitNote = "Hello from Flask via MySQL!"

// Visit is one row of the visits table
type Visit struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Note string `gorm:"type:varchar(255);not null" json:"note"`
}

// TableName pins the table name regardless of naming strategy
func (Visit) TableName() string {
	return "visits"
}

// Repository provides visit operations on an open connection
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository instance
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the visits table if it does not exist yet. An
// existing table is left as is. Losing a creation race to another
// connection counts as success.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	m := r.db.WithContext(ctx).Migrator()
	if m.HasTable(&Visit{}) {
		return nil
	}
	if err := m.CreateTable(&Visit{}); err != nil {
		if m.HasTable(&Visit{}) {
			return nil
		}
		return err
	}
	return nil
}

// Record inserts one visit with the given note
func (r *Repository) Record(ctx context.Context, note string) (Visit, error) {
	visit := Visit{Note: note}
	if err := r.db.WithContext(ctx).Create(&visit).Error; err != nil {
		return Visit{}, err
	}
	return visit, nil
}

// List returns every visit in insertion order
func (r *Repository) List(ctx context.Context) ([]Visit, error) {
	var visits []Visit
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

// Visits performs the page's database round-trip on a fresh connection
// per call.
type Visits struct {
	cfg    config.DatabaseConfig
	logger *zap.Logger
}

// NewVisits creates a visits recorder for the database described by cfg
func NewVisits(cfg config.DatabaseConfig, logger *zap.Logger) *Visits {
	return &Visits{cfg: cfg, logger: logger}
}

// Name returns the dependency name used in error text
func (v *Visits) Name() string {
	return DependencyName(v.cfg.Driver)
}

// Round ensures the table exists, records a visit with VisitNote and
// returns every stored visit.
func (v *Visits) Round(ctx context.Context) ([]Visit, error) {
	ctx, span := otel.Tracer("greeter/database").Start(ctx, "database.Round")
	defer span.End()
	span.SetAttributes(attribute.String("db.system", v.cfg.Driver))

	visits, err := v.round(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("visits.count", len(visits)))
	return visits, nil
}

func (v *Visits) round(ctx context.Context) ([]Visit, error) {
	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	name := v.Name()

	db, closeDB, err := Open(ctx, v.cfg, v.logger)
	if err != nil {
		return nil, apperrors.NewDependencyError(name, "connect", err)
	}
	defer func() {
		if err := closeDB(); err != nil {
			v.logger.Debug("failed to close database connection", zap.Error(err))
		}
	}()

	repo := NewRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, apperrors.NewDependencyError(name, "create table visits", err)
	}
	if _, err := repo.Record(ctx, VisitNote); err != nil {
		return nil, apperrors.NewDependencyError(name, "insert visit", err)
	}
	visits, err := repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewDependencyError(name, "select visits", err)
	}
	return visits, nil
}
