package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	awsx "github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/aws"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/config"
)

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

	p := NewProcessor(clients.DynamoDB, cfg.OrdersTable)

	if cfg.RunLocal {
		// simulate a single SQS event for local testing
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"order_id":"local-order-1","tracking_status":"In Transit"}`
		}
		ev := events.SQSEvent{Records: []events.SQSMessage{{Body: body}}}
		if err := p.Handle(context.Background(), ev); err != nil {
			slog.Error("local handler error", "err", err)
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}
