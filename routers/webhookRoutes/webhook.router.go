package webhookRoutes

import (
	controllers "lms/controllers/webhooks"

	"github.com/gofiber/fiber/v2"
)

// SetupWebhookRoutes sets up the provider event endpoints. These are
// authenticated by signature, not by JWT.
func SetupWebhookRoutes(app *fiber.App, ctrl *controllers.Controller) {
	app.Post("/clerk", ctrl.ClerkWebhook)
	app.Post("/stripe", ctrl.StripeWebhook)
	app.Post("/certificate-webhook", ctrl.CertificateWebhook)
}
