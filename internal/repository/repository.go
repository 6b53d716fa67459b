package repository

import (
	"database/sql"

	"github.com/andregamma/cinema-saas/internal/service"
)

var (
	_ service.Catalog        = (*CatalogRepo)(nil)
	_ service.SeatStore      = (*SeatRepo)(nil)
	_ service.ScreeningStore = (*ScreeningRepo)(nil)
	_ service.BookingStore   = (*BookingRepo)(nil)
	_ service.CustomerStore  = (*CustomerRepo)(nil)
	_ service.CatalogWriter  = (*CatalogRepo)(nil)
)

// Repositories bundles every MySQL repository over one pool.
type Repositories struct {
	Catalog    *CatalogRepo
	Seats      *SeatRepo
	Screenings *ScreeningRepo
	Bookings   *BookingRepo
	Customers  *CustomerRepo
}

// New builds all repositories on db.
func New(db *sql.DB) *Repositories {
	return &Repositories{
		Catalog:    NewCatalogRepo(db),
		Seats:      NewSeatRepo(db),
		Screenings: NewScreeningRepo(db),
		Bookings:   NewBookingRepo(db),
		Customers:  NewCustomerRepo(db),
	}
}
