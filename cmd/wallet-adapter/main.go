package main

import (
	"context"
	"strconv"

	"github.com/go-redis/redis/v8"
	"solwc.io/wallet-adapter/internal/adapter"
	"solwc.io/wallet-adapter/internal/config"
	"solwc.io/wallet-adapter/internal/signclient"
	"solwc.io/wallet-adapter/pkg/errors"
	"solwc.io/wallet-adapter/pkg/log"
)

func main() {
	log.Infof("Starting wallet adapter")
	startApp()
}

func startApp() {
	defer func() {
		if i := recover(); i != nil {
			log.Fatal(errors.ErrorfAndReport("%v", i))
		}
	}()
	config.Read()
	log.SetLevel(config.Global.LogLevel)
	if err := errors.NewSentryReporter(config.Global.SentryDSN); err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	var store signclient.SessionStore
	if config.Global.RedisCredential.Address != "" {
		db, _ := strconv.ParseInt(config.Global.RedisCredential.Database, 10, 64)
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.Global.RedisCredential.GetRedisAddress(),
			Password: config.Global.RedisCredential.Password,
			DB:       int(db),
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatalf("ping to redis:%v", err)
		}
		defer rdb.Close()
		store = signclient.NewRedisStore(rdb)
	}

	wallet := adapter.New(adapter.Options{
		Network:    adapter.Network(config.Global.Network),
		ProjectID:  config.Global.ProjectID,
		RelayURL:   config.Global.RelayURL,
		QRCodePath: config.Global.QRCodePath,
		Store:      store,
		Metadata: signclient.Metadata{
			Name:        config.Global.App.Name,
			Description: config.Global.App.Description,
			URL:         config.Global.App.URL,
			Icons:       config.Global.App.Icons,
		},
	})

	pubkey, err := wallet.Connect(ctx)
	if err != nil {
		log.Fatalf("connect wallet:%v", err)
	}
	log.Infof("connected, authorized public key %v", pubkey)

	signature, err := wallet.SignMessage(ctx, []byte("wallet adapter connectivity check"))
	if err != nil {
		log.Fatalf("sign message:%v", err)
	}
	log.Infof("message signed, %v signature bytes", len(signature))

	if err := wallet.Disconnect(ctx); err != nil {
		log.Fatalf("disconnect wallet:%v", err)
	}
	log.Info("disconnected.")
}
