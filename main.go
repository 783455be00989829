package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"sublimarket/internal/config"
	"sublimarket/internal/database"
	"sublimarket/internal/gateway"
	"sublimarket/internal/handlers"
	"sublimarket/internal/middleware"
	"sublimarket/internal/notify"
	"sublimarket/internal/payments"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	// The duplicate-order guard depends on the unique partial index; do
	// not run without it.
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Fatalf("order indexes could not be created (MongoDB 6.0+ required): %v", err)
	}
	if err := database.EnsureDesignIndexes(db); err != nil {
		log.Printf("⚠️ design index warning: %v", err)
	}
	if err := database.EnsurePaymentMethodIndexes(db); err != nil {
		log.Printf("⚠️ payment method index warning: %v", err)
	}
	if err := database.EnsureOutboxIndexes(db); err != nil {
		log.Printf("⚠️ outbox index warning: %v", err)
	}

	gw := gateway.New(gateway.Credentials{
		BaseURL:       config.AppEnv.WompiBaseURL,
		ClientID:      config.AppEnv.WompiClientID,
		ClientSecret:  config.AppEnv.WompiClientSecret,
		WebhookSecret: config.AppEnv.WompiWebhookSecret,
	})

	outbox := notify.NewOutbox(db)
	simulator := gateway.NewSimulator(time.Now().UnixNano())
	paySvc := payments.NewService(db, gw, simulator, outbox)

	worker := notify.NewWorker(db, notify.LogDispatcher{}, gw, config.AppEnv.OutboxPollInterval)
	go worker.Run(context.Background())

	r := gin.Default()
	r.Use(cors.Default())

	secret := config.AppEnv.JWTSecret

	r.POST("/webhooks/wompi", handlers.WompiWebhook(gw, paySvc))

	orders := r.Group("/orders")
	orders.Use(middleware.UserAuth(secret))
	{
		orders.POST("", handlers.CreateOrder(db, outbox))
		orders.GET("", handlers.GetOrders(db))
		orders.GET("/:id", handlers.GetOrder(db))
		orders.POST("/:id/cancel", handlers.CancelOrder(db, paySvc, outbox))
	}

	user := r.Group("/user")
	user.Use(middleware.UserAuth(secret))
	{
		user.GET("/addresses", handlers.GetUserAddresses(db))
		user.POST("/addresses", handlers.CreateUserAddress(db))
		user.PUT("/addresses/:id", handlers.UpdateUserAddress(db))
		user.DELETE("/addresses/:id", handlers.DeleteUserAddress(db))

		user.GET("/payment-methods", handlers.GetPaymentMethods(db))
		user.POST("/payment-methods", handlers.CreatePaymentMethod(db))
		user.POST("/payment-methods/:id/activate", handlers.ActivatePaymentMethod(db))
		user.DELETE("/payment-methods/:id", handlers.DeletePaymentMethod(db))
	}

	admin := r.Group("/admin/api/orders")
	admin.Use(middleware.AdminAuth(secret))
	{
		admin.PATCH("/:id/status", handlers.UpdateOrderStatus(db, outbox))
		admin.POST("/:id/confirm-payment", handlers.ConfirmPayment(paySvc))
		admin.POST("/:id/pay/cash", handlers.RegisterCashPayment(paySvc))
		admin.POST("/:id/production", handlers.UpdateProduction(db, outbox))
		admin.POST("/:id/cancel", handlers.CancelOrder(db, paySvc, outbox))
		admin.POST("/:id/refund", handlers.RefundOrder(paySvc))
		admin.POST("/:id/delivered", handlers.MarkDelivered(db, outbox))
		admin.POST("/:id/complete", handlers.CompleteOrder(db, outbox))
	}

	if !config.AppEnv.GatewayConfigured() {
		// Development helper: exercise the payment flow without Wompi.
		sim := r.Group("/orders")
		sim.Use(middleware.UserAuth(secret))
		sim.POST("/:id/pay/simulate", handlers.SimulatePayment(paySvc))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
