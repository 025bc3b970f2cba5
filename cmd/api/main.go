package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	awsx "github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/aws"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/cache"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/config"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/handlers"
)

func setupRouter(cfg handlers.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.Register(r, cfg)

	return r
}

func main() {
	cfg := config.Load()

	if cfg.RunLocal {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	} else {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	clients, err := awsx.NewClients(context.Background())
	if err != nil {
		slog.Error("failed to init aws clients", "err", err)
		os.Exit(1)
	}

	handlerCfg := handlers.Config{
		DynamoDBClient:   clients.DynamoDB,
		SQSClient:        clients.SQS,
		CloudWatchClient: clients.CloudWatch,
		Revalidator:      cache.NewRevalidator(cache.New(cfg.RedisAddr)),
		InventoryTable:   cfg.InventoryTable,
		OrdersTable:      cfg.OrdersTable,
		IdempotencyTable: cfg.IdempotencyTable,
		QueueURL:         cfg.TrackingQueueURL,
		MetricsNamespace: cfg.MetricsNamespace,
		TTLWindow:        cfg.IdempotencyTTL,
	}

	r := setupRouter(handlerCfg)

	if cfg.RunLocal {
		slog.Info("running local server", "addr", cfg.HTTPAddr)
		if err := r.Run(cfg.HTTPAddr); err != nil {
			slog.Error("local server failed", "err", err)
			os.Exit(1)
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
