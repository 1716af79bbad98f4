package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// bookRecord is a row of the catalog's books table.
type bookRecord struct {
	ID              string                      `gorm:"column:id;type:uuid;primaryKey"`
	Title           string                      `gorm:"column:title;not null"`
	Author          string                      `gorm:"column:author;not null"`
	ISBN            string                      `gorm:"column:isbn"`
	Genre           string                      `gorm:"column:genre;index"`
	PublicationYear int                         `gorm:"column:publication_year"`
	Tags            datatypes.JSONSlice[string] `gorm:"column:tags;type:jsonb"`
	TotalCopies     int                         `gorm:"column:total_copies;not null;default:0;check:total_copies >= 0"`
	CreatedAt       time.Time                   `gorm:"column:created_at"`
}

func (bookRecord) TableName() string {
	return "books"
}

func (r bookRecord) toTitle() Title {
	return Title{
		ID:              r.ID,
		Name:            r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN,
		Genre:           r.Genre,
		Tags:            []string(r.Tags),
		PublicationYear: r.PublicationYear,
		TotalCopies:     r.TotalCopies,
	}
}

// userRecord is a row of the directory's users table, credentials live elsewhere.
type userRecord struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;uniqueIndex"`
	Role      string    `gorm:"column:role;not null;default:member"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (userRecord) TableName() string {
	return "users"
}

// GormCatalog reads titles and patrons from Postgres through gorm.
type GormCatalog struct {
	db *gorm.DB
}

// OpenGorm connects gorm to Postgres. Queries are logged through logger.
func OpenGorm(dsn string, logger *GormLogger) (*gorm.DB, error) {
	db, err := gorm.Open(
		postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}),
		&gorm.Config{Logger: logger},
	)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	return db, nil
}

// NewGormCatalog creates a GormCatalog on an open connection.
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// Migrate creates or updates the books and users tables.
func (c *GormCatalog) Migrate(ctx context.Context) error {
	return c.db.WithContext(ctx).AutoMigrate(&bookRecord{}, &userRecord{})
}

func (c *GormCatalog) TitleByID(ctx context.Context, titleID core.TitleIDString) (Title, error) {
	if _, err := uuid.Parse(titleID); err != nil {
		return Title{}, TitleNotFound(titleID)
	}

	var record bookRecord
	err := c.db.WithContext(ctx).Where("id = ?", titleID).Take(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Title{}, TitleNotFound(titleID)
	}

	if err != nil {
		return Title{}, fmt.Errorf("looking up title %s: %w", titleID, err)
	}

	return record.toTitle(), nil
}

func (c *GormCatalog) Titles(ctx context.Context) ([]Title, error) {
	var records []bookRecord
	if err := c.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing titles: %w", err)
	}

	titles := make([]Title, 0, len(records))
	for _, record := range records {
		titles = append(titles, record.toTitle())
	}

	return titles, nil
}

func (c *GormCatalog) CountTitles(ctx context.Context) (int, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&bookRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting titles: %w", err)
	}

	return int(count), nil
}

func (c *GormCatalog) PatronByID(ctx context.Context, patronID uuid.UUID) (Patron, error) {
	var record userRecord
	err := c.db.WithContext(ctx).Where("id = ?", patronID.String()).Take(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Patron{}, PatronNotFound(patronID)
	}

	if err != nil {
		return Patron{}, fmt.Errorf("looking up patron %s: %w", patronID, err)
	}

	role, err := ParseRole(record.Role)
	if err != nil {
		return Patron{}, fmt.Errorf("patron %s: %w", patronID, err)
	}

	return Patron{ID: patronID, Name: record.Name, Role: role}, nil
}

func (c *GormCatalog) CountMembers(ctx context.Context) (int, error) {
	var count int64
	err := c.db.WithContext(ctx).Model(&userRecord{}).Where("role = ?", string(RoleMember)).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting members: %w", err)
	}

	return int(count), nil
}

// SaveTitle inserts or updates a title. Catalog management owns this table, the service only
// writes to it when seeding.
func (c *GormCatalog) SaveTitle(ctx context.Context, title Title) error {
	record := bookRecord{
		ID:              title.ID,
		Title:           title.Name,
		Author:          title.Author,
		ISBN:            title.ISBN,
		Genre:           title.Genre,
		PublicationYear: title.PublicationYear,
		Tags:            datatypes.JSONSlice[string](title.Tags),
		TotalCopies:     title.TotalCopies,
	}

	return c.db.WithContext(ctx).Save(&record).Error
}

// SavePatron inserts or updates a patron.
func (c *GormCatalog) SavePatron(ctx context.Context, patron Patron, email string) error {
	record := userRecord{
		ID:    patron.ID.String(),
		Name:  patron.Name,
		Email: email,
		Role:  string(patron.Role),
	}

	return c.db.WithContext(ctx).Save(&record).Error
}
