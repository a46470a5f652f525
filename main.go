package main

import (
	"log"
	"time"

	"lms/config"
	courseControllers "lms/controllers/course"
	educatorControllers "lms/controllers/educator"
	userControllers "lms/controllers/user"
	webhookControllers "lms/controllers/webhooks"
	"lms/database"
	"lms/gateway"
	courseRoutes "lms/routers/courseRoutes"
	educatorRoutes "lms/routers/educatorRoutes"
	userRoutes "lms/routers/userRoutes"
	webhookRoutes "lms/routers/webhookRoutes"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	cfg := config.AppConfig
	db := database.Database.Db

	providerTimeout := time.Duration(cfg.ProviderTimeoutSeconds) * time.Second

	payments := gateway.NewStripeGateway(cfg.StripeApiURL, cfg.StripeSecretKey, providerTimeout)
	documents := gateway.NewPdfMonkeyProvider(cfg.PdfMonkeyApiURL, cfg.PdfMonkeyApiKey, cfg.PdfMonkeyTemplateID, providerTimeout)
	storage := gateway.NewCloudStorage(cfg.MediaUploadURL, cfg.MediaApiKey, providerTimeout)
	mailer := utils.NewEmailSender(cfg)

	purchaseService := services.NewPurchaseService(db, payments, mailer, cfg.Currency, providerTimeout)
	progressService := services.NewProgressService(db)
	certificateService := services.NewCertificateService(db, documents, mailer, providerTimeout)

	courseCtrl := courseControllers.New(db, purchaseService, progressService, certificateService)
	userCtrl := userControllers.New(db)
	educatorCtrl := educatorControllers.New(db, storage)
	webhookCtrl := webhookControllers.New(db, purchaseService, certificateService,
		cfg.StripeWebhookSecret, cfg.ClerkWebhookSecret, cfg.PdfMonkeyWebhookSecret,
		time.Duration(cfg.WebhookToleranceSeconds)*time.Second)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendOrigin,
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API is working")
	})

	webhookRoutes.SetupWebhookRoutes(app, webhookCtrl)
	courseRoutes.SetupCourseRoutes(app, courseCtrl)
	userRoutes.SetupUserRoutes(app, userCtrl)
	educatorRoutes.SetupEducatorRoutes(app, educatorCtrl)

	reconciler := utils.InitializeReconcileScheduler(purchaseService, time.Duration(cfg.ReconcileAfterMinutes)*time.Minute)
	defer reconciler.Stop()

	log.Printf("Server is running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
