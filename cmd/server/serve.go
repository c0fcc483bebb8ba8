package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restoran-analytics/internal/analytics"
	"restoran-analytics/internal/blocking"
	"restoran-analytics/internal/bucket"
	"restoran-analytics/internal/config"
	"restoran-analytics/internal/dashboard"
	"restoran-analytics/internal/database"
	"restoran-analytics/internal/metrics"
	"restoran-analytics/internal/orderfeed"
	"restoran-analytics/internal/orderstore"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  serve,
}

// orderSource picks the configured order store. The returned cleanup closes
// any extra connection it opened.
func orderSource(ctx context.Context, cfg *config.Config, db *gorm.DB) (orderstore.OrderSource, func(), error) {
	switch cfg.Orders.Source {
	case "mongo":
		client, err := orderstore.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		return orderstore.MongoSource{Collection: coll}, func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		return orderstore.PostgresSource{DB: db}, func() {}, nil
	}
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Init()

	db, err := database.Init(cfg.Database, log)
	if err != nil {
		return err
	}

	source, closeSource, err := orderSource(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSource()

	loc := cfg.Location()
	engine := analytics.NewEngine(log, analytics.WithClock(func() time.Time { return time.Now().In(loc) }))
	loader := &orderstore.Loader{
		Orders:       source,
		Directory:    orderstore.PostgresDirectory{DB: db},
		LookbackDays: cfg.Orders.LookbackDays,
		Limit:        cfg.Orders.Limit,
		Log:          log,
	}
	boards := dashboard.NewBoards(engine, loader.Fetcher(), log)
	defer boards.Stop()

	dash := &dashboard.Service{
		Engine: engine,
		Fetch:  loader.Fetcher(),
		Boards: boards,
		TopN:   cfg.Analytics.TopN,
		Log:    log,
	}
	if cfg.Bucket.Enabled {
		b, err := bucket.New(cfg.Bucket)
		if err != nil {
			return err
		}
		if err := b.Ensure(ctx); err != nil {
			return err
		}
		dash.Bucket = b
	}

	blocks := &blocking.Service{DB: db, Log: log}
	sweeper, err := blocks.StartSweeper(cfg.Blocking.SweepInterval, loc)
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	if cfg.Kafka.Enabled {
		consumer := &orderfeed.Consumer{
			Reader:    orderfeed.NewReader(cfg.Kafka),
			Refresher: boards,
			Log:       log.WithField("component", "orderfeed"),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.WithError(err).Error("order feed stopped")
			}
		}()
	}

	app := newApp(cfg, log, dash, blocks)
	errc := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTP.Port).Info("server listening")
		errc <- app.Listen(":" + cfg.HTTP.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigCh:
		log.WithField("signal", s.String()).Warn("signal received, shutting down")
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	log.Info("server stopped")
	return nil
}
