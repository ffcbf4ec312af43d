package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workbenchd/config"
	"workbenchd/ipfs"
	"workbenchd/ledger"
	"workbenchd/messenger"
	"workbenchd/passport"
	"workbenchd/recorder"
	"workbenchd/station"
	"workbenchd/store"
	"workbenchd/telemetry"
	"workbenchd/www"
)

const version = "dev"

func main() {
	configPath := flag.String("config", "workbenchd.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port > 0 {
		cfg.Web.Port = *port
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := store.Open(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	cancel()
	if err != nil {
		log.Fatalf("open document store: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Close(ctx)
	}()

	hub := messenger.NewHub()

	passports, err := passport.NewRenderer(cfg.PassportDir)
	if err != nil {
		log.Fatalf("init passport renderer: %v", err)
	}

	var anchorer station.Anchorer = noopAnchorer{}
	if cfg.Ledger.Enabled {
		outbox, err := ledger.Open(cfg.Ledger.OutboxPath)
		if err != nil {
			log.Fatalf("open anchor outbox: %v", err)
		}
		defer outbox.Close()

		client := ledger.NewClient(cfg.Ledger.GatewayURL, 30*time.Second)
		drainer := ledger.NewDrainer(outbox, client, hub, cfg.Ledger.DrainInterval, cfg.Ledger.MaxRetries)
		drainer.Start()
		defer drainer.Stop()
		anchorer = outbox
	}

	st := station.New(station.Config{
		Number:    cfg.StationNumber,
		Storage:   db,
		Recorder:  recorder.New(&cfg.Recorder),
		Publisher: ipfs.New(&cfg.Publisher),
		Passports: passports,
		Anchorer:  anchorer,
		Messenger: hub,
	})

	if cfg.Telemetry.Enabled {
		tc := telemetry.NewClient(&cfg.Telemetry)
		defer tc.Close()
		if err := tc.Connect(); err != nil {
			log.Printf("telemetry connect: %v", err)
		} else {
			exporter := telemetry.NewExporter(tc, hub, cfg.Telemetry.EventsTopic, cfg.StationNumber)
			exporter.Start()
			defer exporter.Stop()

			hb := telemetry.NewHeartbeater(tc, cfg.Telemetry.HeartbeatTopic, cfg.StationNumber, version, func() (string, string) {
				state := string(st.State())
				name := ""
				if e := st.Employee(); e != nil {
					name = e.Name
				}
				return state, name
			})
			hb.Start()
			defer hb.Stop()
		}
	}

	router := www.NewRouter(cfg.StationNumber, st, db, hub, cfg.HID)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Printf("workbenchd listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	// Wind the station back through its own validated transitions before the
	// notification feed goes away.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	st.Shutdown(shutdownCtx)
	shutdownCancel()

	ctx, cancelHTTP := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelHTTP()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}

// noopAnchorer stands in when the ledger is disabled in config.
type noopAnchorer struct{}

func (noopAnchorer) Anchor(cid, unitInternalID string) error {
	log.Printf("ledger disabled, skipping anchor of %s for unit %s", cid, unitInternalID)
	return nil
}
