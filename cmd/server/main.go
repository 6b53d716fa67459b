package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/andregamma/cinema-saas/internal/config"
	"github.com/andregamma/cinema-saas/internal/database"
	"github.com/andregamma/cinema-saas/internal/handler"
	"github.com/andregamma/cinema-saas/internal/memstore"
	"github.com/andregamma/cinema-saas/internal/middleware"
	"github.com/andregamma/cinema-saas/internal/payment"
	"github.com/andregamma/cinema-saas/internal/queue"
	"github.com/andregamma/cinema-saas/internal/repository"
	"github.com/andregamma/cinema-saas/internal/router"
	"github.com/andregamma/cinema-saas/internal/service"
	"github.com/andregamma/cinema-saas/internal/utils"
)

// stores is the storage backend selected by DB_DRIVER.
type stores struct {
	catalog    service.Catalog
	seats      service.SeatStore
	screenings service.ScreeningStore
	bookings   service.BookingStore
	customers  service.CustomerStore
	close      func() error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("could not read .env")
	}
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	st, err := openStores(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open storage")
	}
	defer func() { _ = st.close() }()

	var publisher service.Publisher
	if cfg.AMQPURL != "" {
		p := queue.NewPublisher(cfg.AMQPURL, log)
		defer func() { _ = p.Close() }()
		publisher = p
	} else {
		log.Warn("AMQP_URL not set, booking events are not published")
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithOverlapCheck(cfg.Booking.OverlapCheck),
		service.WithSweepBatch(cfg.Booking.SweepBatch),
	}
	if publisher != nil {
		opts = append(opts, service.WithPublisher(publisher))
	}

	ledger := service.NewLedger(st.bookings, opts...)
	registry := service.NewSeatRegistry(st.catalog, st.seats)
	generator := service.NewScreeningGenerator(st.catalog, st.screenings, opts...)
	checkout := service.NewCheckoutService(st.customers, ledger, newIssuer(cfg), cfg.BcryptCost, log)

	sweeper, err := service.NewSweeper(ledger, cfg.Booking.PendingTimeout, cfg.Booking.SweepInterval, log)
	if err != nil {
		log.WithError(err).Fatal("create sweeper")
	}
	sweeper.Start()
	defer func() { _ = sweeper.Stop() }()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and response cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewCatalogHandler(registry, generator, log), cache.Middleware())
	router.RegisterCustomer(e,
		handler.NewBookingHandler(ledger, checkout, log),
		handler.NewCheckoutHandler(checkout, log),
		cfg.JWTSecret, limit)
	router.RegisterPayments(e, handler.NewPaymentHandler(ledger, cfg.Payment.WebhookSecret, log))
	router.RegisterAdmin(e, handler.NewAdminHandler(generator, registry, cache, log), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "db": cfg.DB.Driver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
}

func openStores(cfg config.Config, log *logrus.Logger) (*stores, error) {
	if cfg.DB.Driver == config.DriverMemory {
		mem := memstore.New()
		st := &stores{
			catalog: mem, seats: mem, screenings: mem, bookings: mem, customers: mem,
			close: func() error { return nil },
		}
		if cfg.DB.SeedDemo {
			if err := seed(cfg, log, mem, st); err != nil {
				return nil, err
			}
		}
		return st, nil
	}

	db, err := database.Open(database.Settings{
		User:     cfg.DB.User,
		Pass:     cfg.DB.Pass,
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		Name:     cfg.DB.Name,
		MaxOpen:  cfg.DB.MaxOpen,
		LockWait: cfg.DB.LockWait,
	})
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	repos := repository.New(db)
	st := &stores{
		catalog:    repos.Catalog,
		seats:      repos.Seats,
		screenings: repos.Screenings,
		bookings:   repos.Bookings,
		customers:  repos.Customers,
		close:      db.Close,
	}
	if cfg.DB.SeedDemo {
		if err := seed(cfg, log, repos.Catalog, st); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return st, nil
}

// seed loads the demo catalog. A store that already holds it is left alone.
func seed(cfg config.Config, log *logrus.Logger, catalog service.CatalogWriter, st *stores) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	demo, err := service.SeedDemo(ctx, catalog, st.screenings, st.customers, time.Now())
	if errors.Is(err, service.ErrAlreadySeeded) {
		log.Info("demo data already present, skipping seed")
		return nil
	}
	if err != nil {
		return err
	}
	logDemo(cfg, log, demo)
	return nil
}

func newIssuer(cfg config.Config) service.PaymentIssuer {
	if cfg.Payment.Issuer == config.IssuerHTTP {
		return payment.NewHTTPIssuer(cfg.Payment.APIURL, cfg.Payment.APIKey, cfg.Payment.SiteURL, cfg.Payment.Timeout)
	}
	return payment.LocalIssuer{BaseURL: cfg.Payment.SiteURL}
}

// logDemo prints the seeded ids and, outside production, tokens for the
// demo customer and an admin so the API can be exercised with curl.
func logDemo(cfg config.Config, log *logrus.Logger, d *service.Demo) {
	entry := log.WithFields(logrus.Fields{
		"movie_id":     d.Movie.ID,
		"screen_id":    d.Screens[0].ID,
		"screening_id": d.Screening.ID,
		"customer_id":  d.Customer.ID,
	})
	if cfg.Env == "prod" {
		entry.Info("demo data seeded")
		return
	}
	cust, err := utils.NewAccessToken(cfg.JWTSecret, d.Customer.ID, utils.RoleCustomer, cfg.AccessTTL)
	if err != nil {
		entry.WithError(err).Warn("demo data seeded, token signing failed")
		return
	}
	admin, err := utils.NewAccessToken(cfg.JWTSecret, d.Exhibitor.ID, utils.RoleAdmin, cfg.AccessTTL)
	if err != nil {
		entry.WithError(err).Warn("demo data seeded, token signing failed")
		return
	}
	entry.WithFields(logrus.Fields{"customer_token": cust.Token, "admin_token": admin.Token}).Info("demo data seeded")
}
