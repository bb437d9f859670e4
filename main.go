package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursecast/api"
	"coursecast/cache"
	"coursecast/client"
	"coursecast/config"
	"coursecast/logger"
	"coursecast/notify"
)

func main() {
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP API port")
	apiURL := flag.String("api-url", "", "Generation service URL (overrides GENERATION_API_URL)")
	flag.Parse()

	if *apiURL != "" {
		cfg.GenerationAPIURL = *apiURL
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	base := client.New(cfg.GenerationAPIURL)

	// Course cache is optional; without Redis every load hits the service.
	var courseCache *cache.CourseCache
	if cfg.RedisAddr != "" {
		courseCache, err = cache.NewCourseCache(cfg.RedisAddr, cfg.RedisPass, log)
		if err != nil {
			log.Warn("course cache disabled", "error", err)
			courseCache = nil
		} else {
			defer courseCache.Close()
		}
	}

	// Task notifications always reach the logger; Kafka is layered on top
	// when brokers are configured.
	var sink notify.Sink = &notify.LogSink{Log: log}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := notify.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Warn("kafka sink disabled", "error", err)
		} else {
			defer kafkaSink.Close()
			sink = notify.Multi{sink, kafkaSink}
		}
	}

	server := api.NewServer(base, courseCache, sink, log)

	httpServer := &http.Server{
		Addr:    ":" + *port,
		Handler: server.Router(),
	}

	go func() {
		log.Info("coursecast playback API listening",
			"addr", httpServer.Addr,
			"generationAPI", cfg.GenerationAPIURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
