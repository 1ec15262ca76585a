package app

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/businessplan"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/event"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/pdfexport"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/report"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/share"
	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/store"
)

// Config configures the services.
type Config struct {
	Store store.Store
	Bus   event.Publisher

	// Logger receives repository failures. Nil disables logging.
	Logger *slog.Logger

	// Clock returns the current time for time-dependent rules (share
	// expiry). Default: time.Now
	Clock func() time.Time

	// ShareBaseURL is prepended to share links.
	ShareBaseURL string
}

// Services groups one service per aggregate.
type Services struct {
	Reports       *ReportService
	Shares        *ShareService
	Exports       *ExportService
	BusinessPlans *BusinessPlanService
}

// New creates every service over one store and bus.
func New(cfg Config) *Services {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Services{
		Reports:       NewReportService(cfg.Store, cfg.Bus, cfg.Logger),
		Shares:        NewShareService(cfg.Store, cfg.Bus, cfg.Logger, cfg.Clock, cfg.ShareBaseURL),
		Exports:       NewExportService(cfg.Store, cfg.Bus, cfg.Logger),
		BusinessPlans: NewBusinessPlanService(cfg.Store, cfg.Bus, cfg.Logger),
	}
}

// NewCatalog returns a catalog holding the events of every aggregate.
func NewCatalog() (*event.Catalog, error) {
	c := event.NewCatalog()
	for _, register := range []func(*event.Catalog) error{
		report.RegisterEvents,
		share.RegisterEvents,
		pdfexport.RegisterEvents,
		businessplan.RegisterEvents,
	} {
		if err := register(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
