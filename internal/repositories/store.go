package repositories

import (
	"context"
	"database/sql"
	"time"

	intdb "taxibackend/internal/db"
	"taxibackend/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

type Bookings interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id int64) (models.Booking, error)
	// LockByID reads the booking with a row lock when run inside a transaction.
	LockByID(ctx context.Context, id int64) (models.Booking, error)
	GetByTransactionID(ctx context.Context, transactionID string) (models.Booking, error)
	GetFullByID(ctx context.Context, id int64) (models.BookingFull, error)
	List(ctx context.Context, skip, limit int) ([]models.Booking, int, error)
	ListFull(ctx context.Context, skip, limit int) ([]models.BookingFull, int, error)
	ListFullByUser(ctx context.Context, userID int64) ([]models.BookingFull, error)
	ListFullByDriver(ctx context.Context, driverID int64) ([]models.BookingFull, error)
	Update(ctx context.Context, b models.Booking) error
	UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error
	Delete(ctx context.Context, id int64) error
}

type Payments interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id int64) (models.Payment, error)
	GetByBookingID(ctx context.Context, bookingID int64) (models.Payment, error)
	LockByBookingID(ctx context.Context, bookingID int64) (models.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (models.Payment, error)
	// UpdateStatus sets status and, when transactionID is non-nil, the
	// transaction id. A transaction id held by another payment, or a different
	// id already stored on this one, is a conflict.
	UpdateStatus(ctx context.Context, id int64, status models.PaymentStatus, transactionID *string) error
	DeleteByBookingID(ctx context.Context, bookingID int64) error
}

type PricingRules interface {
	Create(ctx context.Context, r *models.PricingRule) error
	GetActiveByCategory(ctx context.Context, category models.VehicleCategory) (models.PricingRule, error)
	List(ctx context.Context) ([]models.PricingRule, error)
	ListActive(ctx context.Context) ([]models.PricingRule, error)
	Update(ctx context.Context, r models.PricingRule) error
	Delete(ctx context.Context, id int64) error
}

type Users interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, skip, limit int) ([]models.User, int, error)
	Update(ctx context.Context, u models.User) error
	Delete(ctx context.Context, id int64) error
}

type Drivers interface {
	Create(ctx context.Context, d *models.Driver) error
	GetByID(ctx context.Context, id int64) (models.Driver, error)
	GetFullByID(ctx context.Context, id int64) (models.DriverFull, error)
	ListFull(ctx context.Context, skip, limit int) ([]models.DriverFull, int, error)
	Update(ctx context.Context, d models.Driver) error
	Delete(ctx context.Context, id int64) error
}

type Vehicles interface {
	Create(ctx context.Context, v *models.Vehicle) error
	GetByID(ctx context.Context, id int64) (models.Vehicle, error)
	List(ctx context.Context, skip, limit int) ([]models.Vehicle, int, error)
	ListByDriver(ctx context.Context, driverID int64) ([]models.Vehicle, error)
	ListCompanyOwned(ctx context.Context) ([]models.Vehicle, error)
	Update(ctx context.Context, v models.Vehicle) error
	Delete(ctx context.Context, id int64) error
}

// Repos groups repositories bound to the same connection or transaction.
type Repos struct {
	Bookings Bookings
	Payments Payments
	Pricing  PricingRules
	Users    Users
	Drivers  Drivers
	Vehicles Vehicles
}

// Store hands out repositories and runs units of work in one transaction.
type Store interface {
	Repos() Repos
	WithinTx(ctx context.Context, fn func(Repos) error) error
}

// SQLStore is the MySQL-backed Store. Redis is optional and only fronts
// active pricing rule reads made outside a transaction.
type SQLStore struct {
	DB       *sql.DB
	Redis    *redis.Client
	CacheTTL time.Duration
}

func (s SQLStore) Repos() Repos {
	repos := s.bind(s.DB)
	if s.Redis != nil {
		repos.Pricing = NewCachedPricingRepository(repos.Pricing, s.Redis, s.CacheTTL)
	}
	return repos
}

// WithinTx reads pricing rules from MySQL inside the transaction. The cached
// active set is dropped only once a transaction that wrote a rule commits.
func (s SQLStore) WithinTx(ctx context.Context, fn func(Repos) error) error {
	var wrote bool
	err := intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		repos := s.bind(tx)
		repos.Pricing = trackedPricing{PricingRules: repos.Pricing, wrote: &wrote}
		return fn(repos)
	})
	if err == nil && wrote && s.Redis != nil {
		NewCachedPricingRepository(nil, s.Redis, s.CacheTTL).Invalidate(ctx)
	}
	return err
}

func (s SQLStore) bind(conn intdb.DBTX) Repos {
	return Repos{
		Bookings: BookingRepository{DB: conn},
		Payments: PaymentRepository{DB: conn},
		Pricing:  PricingRepository{DB: conn},
		Users:    UserRepository{DB: conn},
		Drivers:  DriverRepository{DB: conn},
		Vehicles: VehicleRepository{DB: conn},
	}
}

// trackedPricing records whether a transaction wrote a pricing rule.
type trackedPricing struct {
	PricingRules
	wrote *bool
}

func (t trackedPricing) Create(ctx context.Context, rule *models.PricingRule) error {
	*t.wrote = true
	return t.PricingRules.Create(ctx, rule)
}

func (t trackedPricing) Update(ctx context.Context, rule models.PricingRule) error {
	*t.wrote = true
	return t.PricingRules.Update(ctx, rule)
}

func (t trackedPricing) Delete(ctx context.Context, id int64) error {
	*t.wrote = true
	return t.PricingRules.Delete(ctx, id)
}
