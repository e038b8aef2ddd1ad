package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/lensforum/lensforum/src/api/config"
	"github.com/lensforum/lensforum/src/api/data"
	"github.com/lensforum/lensforum/src/api/services"
	"github.com/lensforum/lensforum/src/api/types"
	"github.com/lensforum/lensforum/src/api/webserver"
	"github.com/lensforum/lensforum/src/chain"
	"github.com/lensforum/lensforum/src/lens"
	"github.com/lensforum/lensforum/src/storage"
)

var allModels = []interface{}{
	&types.Community{}, &types.Thread{}, &types.Reply{}, &types.Setting{},
}

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	migrate(db)
	if err := data.LoadSettings(db); err != nil {
		log.Printf("settings: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)

	lensClient := lens.NewClient(cfg.LensEndpoint)
	signer, err := lens.NewKeySignerFromHex(cfg.OperatorKey)
	if err != nil {
		log.Fatalf("operator key: %v", err)
	}
	operator := lens.NewSessionProvider(lensClient, signer)

	store := storage.NewClient(cfg.GroveEndpoint, cfg.GroveGateway, cfg.ChainID)

	reader, err := chain.NewRPCReader(cfg.LensRPCURL)
	if err != nil {
		log.Fatalf("chain rpc: %v", err)
	}
	verifier := chain.NewVerifier(reader)

	svc := services.New(db, rdb, lensClient, operator, verifier, store)

	reconciler := services.NewReconciler(svc)
	if err := reconciler.Start(cfg.ReconcileInterval); err != nil {
		log.Fatalf("reconciler: %v", err)
	}

	router := webserver.New(webserver.Deps{
		Config:   cfg,
		DB:       db,
		RDB:      rdb,
		Service:  svc,
		Lens:     lensClient,
		GateRead: reader,
	})
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("LensForum API listening on %s (operator %s)", cfg.Port, signer.Address())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	reconciler.Stop()

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
