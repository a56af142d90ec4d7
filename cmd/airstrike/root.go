package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/airstrike/internal/adapters/frame"
	"github.com/lcalzada-xor/airstrike/internal/adapters/storage"
	"github.com/lcalzada-xor/airstrike/internal/app"
	"github.com/lcalzada-xor/airstrike/internal/config"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/services/auth"
	"github.com/lcalzada-xor/airstrike/internal/telemetry"
)

func newRootCmd(version string) *cobra.Command {
	cfg := config.Default()

	rootCmd := &cobra.Command{
		Use:   "airstrike",
		Short: "802.11 attack station with a web control API",
		Long:  "airstrike v" + version + " - deauth, beacon spam, probe sniffing, rickroll beacons and evil twin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, version)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	pf.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Debug logging and span export to stderr")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Put the interface in monitor mode and serve the control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, version)
		},
	}
	for _, c := range []*cobra.Command{rootCmd, serve} {
		bindServeFlags(c, cfg)
	}

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(probesCmd(cfg))
	rootCmd.AddCommand(credentialsCmd(cfg))
	rootCmd.AddCommand(frameCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	return rootCmd
}

func bindServeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	f.StringVarP(&cfg.Interface, "interface", "i", cfg.Interface, "Monitor-mode interface")
	f.StringVar(&cfg.APInterface, "ap-interface", cfg.APInterface, "Interface hosting the access point (defaults to --interface)")
	f.StringVar(&cfg.APSSID, "ap-ssid", cfg.APSSID, "SSID advertised when no attack changes it")
	f.IntVar(&cfg.APChannel, "ap-channel", cfg.APChannel, "Access point channel")
	f.StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "Control API listen address")
	f.StringVar(&cfg.PortalAddr, "portal-addr", cfg.PortalAddr, "Captive portal listen address")
	f.StringVar(&cfg.PortalIP, "portal-ip", cfg.PortalIP, "IPv4 address every DNS query resolves to")
	f.StringVar(&cfg.DNSAddr, "dns-addr", cfg.DNSAddr, "Captive DNS listen address")
	f.StringVar(&cfg.OUIDBPath, "oui-db", cfg.OUIDBPath, "IEEE OUI database path")
	f.StringVar(&cfg.HostapdDir, "hostapd-dir", cfg.HostapdDir, "Directory for generated hostapd configs")
	f.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "gRPC health service port")
	f.BoolVar(&cfg.MockMode, "mock", cfg.MockMode, "Run against an in-memory radio")
	f.StringVar(&cfg.MockScenario, "mock-scenario", cfg.MockScenario, "Simulated probe traffic in mock mode: basic, crowded or none")
	f.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "Host loop period")
	f.DurationVar(&cfg.HopInterval, "hop-interval", cfg.HopInterval, "Channel dwell time while hopping")
	f.DurationVar(&cfg.FrameGap, "frame-gap", cfg.FrameGap, "Pause between injected frames")
	f.StringSliceVar(&cfg.AllowedOrigins, "allowed-origin", cfg.AllowedOrigins, "Extra websocket origins")

	// Attack settings
	f.IntVar(&cfg.Attack.DeauthPacketsPerBurst, "deauth-burst", cfg.Attack.DeauthPacketsPerBurst, "Deauth iterations per target per interval")
	f.DurationVar(&cfg.Attack.BeaconInterval, "beacon-interval", cfg.Attack.BeaconInterval, "Beacon spam period")
	f.IntVar(&cfg.Attack.MaxBeaconSSIDs, "max-beacon-ssids", cfg.Attack.MaxBeaconSSIDs, "Beacon spam list capacity")
	f.IntVar(&cfg.Attack.MaxProbes, "max-probes", cfg.Attack.MaxProbes, "Observation table capacity")
	f.IntVar(&cfg.Attack.RickrollSpeed, "rickroll-speed", cfg.Attack.RickrollSpeed, "Rickroll speed multiplier")
	f.BoolVar(&cfg.Attack.ChannelHopping, "channel-hopping", cfg.Attack.ChannelHopping, "Hop channels during attacks")
	f.BoolVar(&cfg.Attack.RandomizeMAC, "randomize-mac", cfg.Attack.RandomizeMAC, "Fresh source address per beacon")
	f.IntVar(&cfg.Attack.MinSignal, "min-signal", cfg.Attack.MinSignal, "Ignore probes weaker than this (dBm)")
	f.BoolVar(&cfg.Attack.SaveProbes, "save-probes", cfg.Attack.SaveProbes, "Persist probe observations")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func runServe(ctx context.Context, cfg *config.Config, version string) error {
	setupLogging(cfg.Debug)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !cfg.MockMode && os.Geteuid() != 0 {
		return fmt.Errorf("airstrike must be run as root (or with --mock)")
	}

	var spanOut io.Writer = io.Discard
	if cfg.Debug {
		spanOut = os.Stderr
	}
	shutdownTracer, err := telemetry.InitTracer(telemetry.TracerConfig{
		Version: version,
		Output:  spanOut,
		Pretty:  cfg.Debug,
	})
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				slog.Error("Failed to shutdown tracer", "error", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.RestoreNetwork()

	slog.Info("airstrike starting", "version", version, "interface", cfg.Interface, "mock", cfg.MockMode)
	return application.Run(ctx)
}

func openStore(cfg *config.Config) (*storage.SQLiteAdapter, error) {
	if _, err := os.Stat(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("no database at %s: %w", cfg.DBPath, err)
	}
	return storage.NewSQLiteAdapter(cfg.DBPath)
}

func probesCmd(cfg *config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "probes",
		Short: "List stored probe requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			probes, err := store.ListProbes(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tbl := table.New("CLIENT", "PWR", "VENDOR", "RANDOM", "LAST SEEN", "SSIDS").WithWriter(cmd.OutOrStdout())
			tbl.WithHeaderFormatter(color.New(color.BgHiBlue, color.FgHiWhite).SprintfFunc())
			for _, p := range probes {
				tbl.AddRow(p.Client, p.Signal, p.Vendor, p.Random, p.LastSeen.Format("2006-01-02 15:04:05"), strings.Join(p.SSIDs, ", "))
			}
			tbl.Print()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum rows")
	return cmd
}

func credentialsCmd(cfg *config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "List credentials captured by the evil twin portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			creds, err := store.ListCredentials(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tbl := table.New("SSID", "REMOTE", "CAPTURED", "FIELDS").WithWriter(cmd.OutOrStdout())
			tbl.WithHeaderFormatter(color.New(color.BgHiRed, color.FgHiWhite).SprintfFunc())
			for _, c := range creds {
				tbl.AddRow(c.SSID, c.RemoteAddr, c.CapturedAt.Format("2006-01-02 15:04:05"), formatFields(c.Fields))
			}
			tbl.Print()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum rows")
	return cmd
}

func formatFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for k, v := range fields {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// frameCmd prints the frames an attack would inject, for checking captures.
func frameCmd() *cobra.Command {
	var (
		bssid   string
		client  string
		ssid    string
		channel int
	)
	cmd := &cobra.Command{
		Use:       "frame [deauth|beacon]",
		Short:     "Hex dump the frames an attack injects",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"deauth", "beacon"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "deauth":
				t, err := domain.NewTarget(bssid, client)
				if err != nil {
					return err
				}
				for i, f := range frame.Burst(t.BSSID, t.Client) {
					fmt.Fprintf(out, "%s frame %d (%d bytes)\n", color.CyanString("deauth"), i+1, len(f))
					fmt.Fprint(out, hex.Dump(f))
				}
			case "beacon":
				src, err := net.ParseMAC(bssid)
				if err != nil {
					return fmt.Errorf("%w: %s", domain.ErrInvalidMAC, bssid)
				}
				f, err := frame.BuildBeacon(ssid, channel, src)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %q ch%d (%d bytes)\n", color.CyanString("beacon"), ssid, channel, len(f))
				fmt.Fprint(out, hex.Dump(f))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&bssid, "bssid", "02:00:00:00:00:01", "Access point (or beacon source) address")
	f.StringVar(&client, "client", "ff:ff:ff:ff:ff:ff", "Client address, broadcast by default")
	f.StringVar(&ssid, "ssid", "airstrike", "Beacon SSID")
	f.IntVar(&channel, "channel", 1, "Beacon channel")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash for AIRSTRIKE_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
