package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	awsx "github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/aws"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/idempotency"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/inventory"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/orders"
	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/validation"
)

// Config groups dependencies for the admin routes.
type Config struct {
	DynamoDBClient   awsx.DynamoDBAPI
	SQSClient        awsx.SQSAPI
	CloudWatchClient awsx.CloudWatchAPI
	Revalidator      orders.Revalidator
	InventoryTable   string
	OrdersTable      string
	IdempotencyTable string
	QueueURL         string
	MetricsNamespace string
	TTLWindow        time.Duration
}

// Register wires the order and inventory routes onto r.
func Register(r *gin.Engine, cfg Config) {
	v := validation.New()

	invStore := inventory.NewStore(cfg.DynamoDBClient, cfg.InventoryTable)
	orderStore := orders.NewStore(cfg.DynamoDBClient, cfg.OrdersTable)
	idempStore := idempotency.NewStore(cfg.DynamoDBClient, cfg.IdempotencyTable, cfg.TTLWindow)

	var publisher orders.TrackingPublisher
	if cfg.SQSClient != nil && cfg.QueueURL != "" {
		publisher = awsx.NewPublisher(cfg.SQSClient, cfg.QueueURL)
	}
	var metrics *awsx.MetricsRecorder
	if cfg.CloudWatchClient != nil {
		metrics = awsx.NewMetricsRecorder(cfg.CloudWatchClient, cfg.MetricsNamespace)
	}

	svc := orders.NewService(orderStore, invStore, idempStore, publisher, metrics, cfg.Revalidator)

	r.Use(Principal())

	r.POST("/orders", func(c *gin.Context) {
		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		result := svc.CreateOrder(c.Request.Context(), c.GetHeader("Idempotency-Key"), req)
		if result.Success && result.OrderID != "" {
			c.Header("Location", "/orders/"+result.OrderID)
		}
		c.JSON(result.Code, result)
	})

	r.GET("/orders/:id", func(c *gin.Context) {
		order, err := orderStore.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong. Please try again."})
			return
		}
		if order == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found."})
			return
		}
		c.JSON(http.StatusOK, order)
	})

	r.POST("/orders/:id/cancel", func(c *gin.Context) {
		result := svc.CancelOrder(c.Request.Context(), c.Param("id"))
		c.JSON(result.Code, result)
	})

	r.PATCH("/orders/:id/status", func(c *gin.Context) {
		var req validation.UpdateStatusRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		result := svc.UpdateStatus(c.Request.Context(), c.Param("id"), req)
		c.JSON(result.Code, result)
	})

	r.GET("/inventory/:id", func(c *gin.Context) {
		item, err := invStore.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong. Please try again."})
			return
		}
		if item == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Item not found."})
			return
		}
		c.JSON(http.StatusOK, item)
	})

	r.PUT("/inventory/:id", func(c *gin.Context) {
		var item inventory.Item
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body.", "errors": map[string][]string{"request": {err.Error()}}})
			return
		}
		item.ItemID = c.Param("id")
		if err := invStore.Put(c.Request.Context(), item); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong. Please try again."})
			return
		}
		if cfg.Revalidator != nil {
			cfg.Revalidator.Revalidate(c.Request.Context(), orders.ViewInventory, orders.ViewInventory+"/"+item.ItemID, orders.ViewDashboard)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Item saved."})
	})
}
