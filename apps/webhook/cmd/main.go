package main

import (
	"context"
	"net/http"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/util"

	appconfig "github.com/antinvestor/reviewbot/apps/webhook/config"
	"github.com/antinvestor/reviewbot/apps/webhook/service/handlers"
	"github.com/antinvestor/reviewbot/internal/queue"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[appconfig.WebhookConfig](ctx)
	if err != nil {
		util.Log(ctx).With("err", err).Error("could not process configs")
		return
	}

	if cfg.Name() == "" {
		cfg.ServiceName = "reviewbot_webhook"
	}

	ctx, svc := frame.NewServiceWithContext(
		ctx,
		frame.WithConfig(&cfg),
	)
	defer svc.Stop(ctx)
	log := svc.Log(ctx)

	jobQueue, err := queue.New(queue.Config{
		Backend:  queue.Backend(cfg.QueueBackend),
		Name:     cfg.QueueReviewJobName,
		RedisURL: cfg.BrokerURL,
	})
	if err != nil {
		log.WithError(err).Fatal("could not initialize review job queue")
	}
	defer func() {
		if cerr := jobQueue.Close(); cerr != nil {
			log.WithError(cerr).Warn("failed to close review job queue")
		}
	}()

	ingress := handlers.NewIngress(cfg.GitHubWebhookSecret, cfg.MaxBodyBytes, cfg.RateLimitPerMin, cfg.RateLimitBurst, jobQueue)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"webhook"}`))
	})

	mux.HandleFunc("/webhook", ingress.ServeHTTP)

	svc.Init(ctx, frame.WithHTTPHandler(mux))

	log.Info("starting webhook ingress service")
	err = svc.Run(ctx, "")
	if err != nil {
		log.WithError(err).Fatal("could not run server")
	}
}
