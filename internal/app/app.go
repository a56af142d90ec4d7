package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/attack/beaconspam"
	"github.com/lcalzada-xor/airstrike/internal/adapters/attack/deauth"
	"github.com/lcalzada-xor/airstrike/internal/adapters/attack/eviltwin"
	"github.com/lcalzada-xor/airstrike/internal/adapters/attack/probesniff"
	"github.com/lcalzada-xor/airstrike/internal/adapters/attack/rickroll"
	"github.com/lcalzada-xor/airstrike/internal/adapters/captive"
	"github.com/lcalzada-xor/airstrike/internal/adapters/health"
	"github.com/lcalzada-xor/airstrike/internal/adapters/hopping"
	"github.com/lcalzada-xor/airstrike/internal/adapters/oui"
	"github.com/lcalzada-xor/airstrike/internal/adapters/radio"
	"github.com/lcalzada-xor/airstrike/internal/adapters/reporting"
	"github.com/lcalzada-xor/airstrike/internal/adapters/storage"
	webserver "github.com/lcalzada-xor/airstrike/internal/adapters/web/server"
	"github.com/lcalzada-xor/airstrike/internal/config"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/lcalzada-xor/airstrike/internal/core/services/audit"
	"github.com/lcalzada-xor/airstrike/internal/core/services/auth"
	"github.com/lcalzada-xor/airstrike/internal/core/services/orchestrator"
	"github.com/lcalzada-xor/airstrike/internal/core/services/persistence"
	"github.com/lcalzada-xor/airstrike/internal/mock"
	"github.com/lcalzada-xor/airstrike/internal/telemetry"
)

const (
	vendorCacheSize   = 20000
	persistBufferSize = 10000
	monitorSettleTime = 2 * time.Second
)

// mockAPAddr is the access point address advertised in mock mode.
var mockAPAddr = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}

// Application wires the radio, the attack machines and the servers together.
type Application struct {
	Config             *config.Config
	Store              *storage.SQLiteAdapter
	Vendors            *oui.Resolver
	AuditService       *audit.AuditService
	AuthService        *auth.AuthService
	PersistenceManager *persistence.PersistenceManager
	Radio              ports.Radio
	Scheduler          *hopping.Scheduler
	Captive            *captive.Service
	Orchestrator       *orchestrator.Orchestrator
	WebServer          *webserver.Server
	HealthServer       *health.Server
	// Traffic is set in mock mode unless the scenario is "none".
	Traffic *mock.Traffic

	monitorMode bool
	// stopPersistence ends the record worker; cleanup calls it after the
	// last attack has handed over its records.
	stopPersistence context.CancelFunc
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		if cerr := app.closeResources(); cerr != nil {
			log.Printf("[APP] Cleanup after failed bootstrap: %v", cerr)
		}
		app.RestoreNetwork()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	if err := app.initStorage(); err != nil {
		return err
	}
	app.initVendors()

	app.AuditService = audit.NewAuditService(app.Store)
	app.PersistenceManager = persistence.NewPersistenceManager(app.Store, persistBufferSize)
	app.PersistenceManager.SetVendorLookup(app.Vendors)

	if app.Config.PasswordHash != "" {
		authSvc, err := auth.NewAuthService(app.Config.PasswordHash)
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		app.AuthService = authSvc
	} else {
		log.Println("[APP] No operator password set, control API is unauthenticated")
	}

	if err := app.initRadio(); err != nil {
		return err
	}
	app.initScheduler()

	app.Captive = captive.NewService(app.Config.DNSAddr, app.Config.PortalAddr)
	app.initOrchestrator()
	app.initServers()

	if app.Config.MockMode {
		log.Println("[APP] Mock mode active: frames are recorded, not transmitted")
	}
	return nil
}

func (app *Application) initStorage() error {
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create DB directory: %w", err)
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	app.Store = store
	return nil
}

// initVendors chains the IEEE database (when present) with the built-in table.
func (app *Application) initVendors() {
	repos := []oui.Repository{}
	db, err := oui.OpenDatabase(app.Config.OUIDBPath)
	if err != nil {
		log.Printf("[APP] OUI database unavailable (%v), using built-in vendor table", err)
	} else {
		repos = append(repos, db)
	}
	repos = append(repos, oui.Common)
	app.Vendors = oui.NewResolver(oui.NewComposite(repos...), vendorCacheSize)
}

func (app *Application) initRadio() error {
	if app.Config.MockMode {
		mr := radio.NewMockRadio(app.initialIdentity(mockAPAddr))
		app.Radio = mr
		if app.Config.MockScenario == "none" {
			return nil
		}
		traffic, err := mock.NewTraffic(mr, app.Config.MockScenario, mock.DefaultInterval)
		if err != nil {
			return err
		}
		app.Traffic = traffic
		return nil
	}

	log.Println("[APP] Stopping conflicting network services...")
	if err := radio.KillConflictingProcesses(); err != nil {
		log.Printf("[APP] Warning: failed to stop conflicting processes: %v", err)
	}

	var hwAddr net.HardwareAddr
	if ifi, err := net.InterfaceByName(app.Config.APInterface); err == nil {
		hwAddr = ifi.HardwareAddr
	} else {
		log.Printf("[APP] Warning: cannot read address of %s: %v", app.Config.APInterface, err)
	}

	if err := radio.EnableMonitorMode(app.Config.Interface); err != nil {
		return fmt.Errorf("failed to enable monitor mode on %s: %w", app.Config.Interface, err)
	}
	app.monitorMode = true
	time.Sleep(monitorSettleTime)

	ap := radio.NewHostapd(app.Config.APInterface, app.Config.HostapdDir, app.Config.PortalAddress(), app.initialIdentity(hwAddr))
	pr, err := radio.OpenPcap(app.Config.Interface, ap)
	if err != nil {
		return err
	}
	app.Radio = pr
	return nil
}

func (app *Application) initialIdentity(hw net.HardwareAddr) domain.ApIdentity {
	return domain.ApIdentity{
		SSID:    app.Config.APSSID,
		HWAddr:  hw,
		Channel: app.Config.APChannel,
	}
}

// initScheduler hops over the channels the driver reports, or the default 2.4 GHz set.
func (app *Application) initScheduler() {
	channels := hopping.Channels24GHz
	if !app.Config.MockMode {
		if supported, err := radio.SupportedChannels(app.Config.Interface); err != nil || len(supported) == 0 {
			log.Printf("[APP] Using default channel list: %v", err)
		} else {
			channels = supported
		}
	}
	app.Scheduler = hopping.NewScheduler(app.Radio, channels, app.Config.HopInterval)
}

func (app *Application) initOrchestrator() {
	gap := app.Config.FrameGap
	sniffOpts := probesniff.DefaultOptions()

	machines := orchestrator.Machines{
		Deauth:     deauth.NewEngine(app.Radio, app.Scheduler, deauth.Options{FrameGap: gap}),
		BeaconSpam: beaconspam.NewEngine(app.Radio, app.Scheduler, beaconspam.Options{FrameGap: gap}),
		ProbeSniff: probesniff.NewEngine(app.Radio, app.Scheduler, app.PersistenceManager, sniffOpts),
		Rickroll:   rickroll.NewEngine(app.Radio, app.Scheduler, rickroll.Options{FrameGap: gap}),
		EvilTwin: eviltwin.NewEngine(app.Radio, app.Scheduler, app.Captive, app.PersistenceManager, eviltwin.Options{
			PortalIP: app.Config.PortalAddress(),
			FrameGap: gap,
		}),
	}
	app.Orchestrator = orchestrator.New(machines, app.Config, orchestrator.WithAudit(app.AuditService))
}

func (app *Application) initServers() {
	deps := webserver.Deps{
		Attacks:        app.Orchestrator,
		Settings:       app.Config,
		Records:        app.Store,
		Audit:          app.AuditService,
		Reports:        reporting.NewPDFExporter(),
		AllowedOrigins: app.Config.AllowedOrigins,
	}
	// A nil *auth.AuthService must not become a non-nil interface.
	if app.AuthService != nil {
		deps.Auth = app.AuthService
	}
	app.WebServer = webserver.NewServer(app.Config.Addr, deps)
	app.HealthServer = health.NewServer(app.Orchestrator)
}

// Run starts the host loop and the servers, and blocks until ctx is done or a server fails.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting airstrike components...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	persistCtx, stopPersistence := context.WithCancel(context.Background())
	app.stopPersistence = stopPersistence
	app.PersistenceManager.Start(persistCtx)
	go app.runHostLoop(ctx)
	if app.Traffic != nil {
		go app.Traffic.Run(ctx)
	}

	errChan := make(chan error, 2)

	go func() {
		log.Printf("[APP] Control API listening on %s", app.Config.Addr)
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", app.Config.GRPCPort)
		log.Printf("[APP] Health service listening on %s", addr)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			errChan <- fmt.Errorf("grpc listen error: %w", err)
			return
		}
		if err := app.HealthServer.Serve(ctx, lis); err != nil {
			errChan <- fmt.Errorf("grpc server error: %w", err)
		}
	}()

	slog.Info("airstrike ready. Press Ctrl+C to terminate.")

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case runErr = <-errChan:
		cancel()
	}

	return errors.Join(runErr, app.cleanup())
}

// runHostLoop advances the active attack every tick.
func (app *Application) runHostLoop(ctx context.Context) {
	ticker := time.NewTicker(app.Config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.Orchestrator.Tick()
		}
	}
}

// cleanup stops the running attack, drains persistence and releases resources.
// ctx passed to Run must already be done.
func (app *Application) cleanup() error {
	slog.Info("Shutting down...")
	app.Orchestrator.StopAttack()
	if app.stopPersistence != nil {
		app.stopPersistence()
	}

	select {
	case <-app.PersistenceManager.Done():
	case <-time.After(5 * time.Second):
		log.Println("[APP] Timed out waiting for pending records")
	}

	return app.closeResources()
}

func (app *Application) closeResources() error {
	var errs []error
	if app.Captive != nil {
		errs = append(errs, app.Captive.Close())
	}
	if app.Radio != nil {
		errs = append(errs, app.Radio.Close())
	}
	if app.Vendors != nil {
		errs = append(errs, app.Vendors.Close())
	}
	if app.Store != nil {
		errs = append(errs, app.Store.Close())
	}
	return errors.Join(errs...)
}

// RestoreNetwork returns the interface to managed mode and restarts the
// services killed at startup.
func (app *Application) RestoreNetwork() {
	if !app.monitorMode {
		return
	}
	log.Println("[APP] Restoring network configuration...")
	radio.DisableMonitorMode(app.Config.Interface)
	if err := radio.RestoreNetworkServices(); err != nil {
		log.Printf("[APP] Warning: failed to restore network services: %v", err)
	}
	app.monitorMode = false
}
