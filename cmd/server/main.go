package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/catalog"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/config"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/hotel"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/items"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/persistence/itemdb"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/persistence/snapshot"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/trade"
	"github.com/Quackster/Holograph-vista4life-ShineAway-sub001/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		cfgPath    = flag.String("config", "./configs/hotel.yaml", "server settings path")
		furniPath  = flag.String("furni", "./configs/furni.json", "furni catalog path")
		dataDir    = flag.String("data", "", "runtime data directory (overrides config)")
		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("settings not found (%s); using defaults", *cfgPath)
			cfg = config.Defaults()
		} else {
			logger.Fatalf("load settings: %v", err)
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	cats, err := catalog.Load(*furniPath)
	if err != nil {
		logger.Fatalf("load furni catalog: %v", err)
	}

	snapDir := filepath.Join(cfg.DataDir, "snapshots")
	_ = os.MkdirAll(snapDir, 0o755)

	store, err := itemdb.Open(filepath.Join(cfg.DataDir, "hotel.db"), logger)
	if err != nil {
		logger.Fatalf("open item store: %v", err)
	}
	defer store.Close()
	if err := store.SeedTemplates(cats.Defs); err != nil {
		logger.Fatalf("seed furni templates: %v", err)
	}

	repo := items.NewMemoryRepository()
	var snapSeq atomic.Uint64

	// Ownership changes trail into sqlite off the settlement path. Registered
	// before restore so a snapshot restore reconciles the index as it loads.
	repo.OnChange(func(it items.Item) { store.UpsertItem(it) })

	// Restore ownership: explicit snapshot, else latest, else the sqlite rows.
	restoreFrom := *snapPath
	if restoreFrom == "" && *loadLatest {
		restoreFrom = snapshot.Latest(snapDir)
	}
	if restoreFrom != "" {
		snap, err := snapshot.Read(restoreFrom)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		for _, it := range snap.Items {
			repo.Put(items.Item{ID: it.ID, TemplateID: it.TemplateID, Owner: it.Owner})
		}
		snapSeq.Store(snap.Header.Seq)
		logger.Printf("restored %d items from %s", len(snap.Items), restoreFrom)
	} else {
		rows, err := store.Items()
		if err != nil {
			logger.Fatalf("load items: %v", err)
		}
		for _, it := range rows {
			repo.Put(it)
		}
		if len(rows) > 0 {
			logger.Printf("restored %d items from sqlite", len(rows))
		}
	}

	h := hotel.New(logger)
	tradeHandler := trade.NewHandler(trade.Config{
		Enabled:       cfg.Trading.Enabled,
		MaxOfferItems: cfg.Trading.MaxOfferItems,
	}, h, repo, cats, hotel.Notify{})
	h.OnDepart(tradeHandler.OnDisconnectOrDepart)

	wsSrv := ws.NewServer(h, tradeHandler, ws.Options{
		DefaultRoom:  cfg.DefaultRoom,
		ReadTimeout:  time.Duration(cfg.WS.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WS.WriteTimeoutSec) * time.Second,
		OutQueue:     cfg.WS.OutQueue,
		FurniDigest:  cats.PaletteDigest,
	}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})

	writeSnap := func() {
		seq := snapSeq.Add(1)
		all := repo.All()
		snap := snapshot.SnapshotV1{
			Header:      snapshot.Header{Version: 1, Seq: seq, TakenAt: time.Now().Unix()},
			FurniDigest: cats.PaletteDigest,
			Items:       make([]snapshot.ItemV1, 0, len(all)),
		}
		for _, it := range all {
			snap.Items = append(snap.Items, snapshot.ItemV1{ID: it.ID, TemplateID: it.TemplateID, Owner: it.Owner})
		}
		if err := snapshot.Write(snapshot.PathFor(snapDir, seq), snap); err != nil {
			logger.Printf("write snapshot: %v", err)
		}
	}

	stopSnaps := make(chan struct{})
	go func() {
		t := time.NewTicker(time.Duration(cfg.SnapshotEverySec) * time.Second)
		defer t.Stop()
		for {
			select {
			case <-stopSnaps:
				return
			case <-t.C:
				writeSnap()
			}
		}
	}()

	httpSrv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		logger.Printf("listening on %s (trading enabled: %v)", cfg.Addr, cfg.Trading.Enabled)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Printf("shutting down")

	close(stopSnaps)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)

	writeSnap()
	store.Sync()
}
