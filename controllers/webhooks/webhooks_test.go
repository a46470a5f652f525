package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"lms/database"
	"lms/models"
	"lms/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testStripeSecret = "whsec_stripe_test"
	testPdfSecret    = "pdfmonkey_shared_secret"
)

var testClerkSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("clerk-test-key"))

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	purchases := services.NewPurchaseService(db, nil, nil, "usd", time.Second)
	certificates := services.NewCertificateService(db, nil, nil, time.Second)

	ctrl := New(db, purchases, certificates, testStripeSecret, testClerkSecret, testPdfSecret, 5*time.Minute)

	app := fiber.New()
	app.Post("/clerk", ctrl.ClerkWebhook)
	app.Post("/stripe", ctrl.StripeWebhook)
	app.Post("/certificate-webhook", ctrl.CertificateWebhook)
	return app, db
}

func stripeSign(payload []byte, secret string) string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func svixSign(msgID, ts string, payload []byte, secret string) string {
	key, _ := base64.StdEncoding.DecodeString(secret[len("whsec_"):])
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.", msgID, ts)
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func seedPendingPurchase(t *testing.T, db *gorm.DB, id, userID string, courseID uint) {
	t.Helper()
	user := models.User{ID: userID, Email: userID + "@example.com", Name: "User"}
	require.NoError(t, db.Create(&user).Error)
	course := models.Course{Title: "Course", EducatorID: "edu_1", PriceCents: 10000, IsPublished: true}
	course.ID = courseID
	require.NoError(t, db.Create(&course).Error)
	purchase := models.Purchase{
		ID: id, CourseID: courseID, UserID: userID,
		AmountCents: 10000, Currency: "usd", Status: models.PurchasePending,
	}
	require.NoError(t, db.Create(&purchase).Error)
}

func TestStripeWebhookCompletesPurchase(t *testing.T) {
	app, db := newTestApp(t)
	seedPendingPurchase(t, db, "p1", "user_1", 1)

	payload := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","metadata":{"purchaseId":"p1"}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSign(payload, testStripeSecret))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var purchase models.Purchase
	require.NoError(t, db.First(&purchase, "id = ?", "p1").Error)
	assert.Equal(t, models.PurchaseCompleted, purchase.Status)

	var enrollments int64
	require.NoError(t, db.Model(&models.Enrollment{}).Count(&enrollments).Error)
	assert.Equal(t, int64(1), enrollments)

	var event models.GatewayEvent
	require.NoError(t, db.First(&event, "provider = ?", "stripe").Error)
	assert.Equal(t, models.EventProcessed, event.Status)
	assert.Equal(t, "p1", event.ExternalID)
}

func TestStripeWebhookFailsPurchase(t *testing.T) {
	app, db := newTestApp(t)
	seedPendingPurchase(t, db, "p1", "user_1", 1)

	payload := []byte(`{"type":"checkout.session.async_payment_failed","data":{"object":{"id":"cs_1","metadata":{"purchaseId":"p1"}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSign(payload, testStripeSecret))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var purchase models.Purchase
	require.NoError(t, db.First(&purchase, "id = ?", "p1").Error)
	assert.Equal(t, models.PurchaseFailed, purchase.Status)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	app, db := newTestApp(t)
	seedPendingPurchase(t, db, "p1", "user_1", 1)

	payload := []byte(`{"type":"checkout.session.completed","data":{"object":{"metadata":{"purchaseId":"p1"}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSign(payload, "wrong_secret"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// an unverified event is never applied or recorded
	var purchase models.Purchase
	require.NoError(t, db.First(&purchase, "id = ?", "p1").Error)
	assert.Equal(t, models.PurchasePending, purchase.Status)

	var events int64
	require.NoError(t, db.Model(&models.GatewayEvent{}).Count(&events).Error)
	assert.Equal(t, int64(0), events)
}

func TestStripeWebhookAcksUnknownPurchase(t *testing.T) {
	app, db := newTestApp(t)

	payload := []byte(`{"type":"checkout.session.completed","data":{"object":{"id":"cs_1","metadata":{"purchaseId":"ghost"}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSign(payload, testStripeSecret))

	// acknowledged so the gateway stops redelivering an unfixable event
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var event models.GatewayEvent
	require.NoError(t, db.First(&event, "provider = ?", "stripe").Error)
	assert.Equal(t, models.EventFailed, event.Status)
	assert.NotEmpty(t, event.Note)
}

func TestStripeWebhookIgnoresUnknownEventType(t *testing.T) {
	app, db := newTestApp(t)

	payload := []byte(`{"type":"invoice.created","data":{"object":{}}}`)
	req := httptest.NewRequest(http.MethodPost, "/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripeSign(payload, testStripeSecret))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var event models.GatewayEvent
	require.NoError(t, db.First(&event, "provider = ?", "stripe").Error)
	assert.Equal(t, models.EventProcessed, event.Status)
}

func TestClerkWebhookCreatesAndUpdatesUser(t *testing.T) {
	app, db := newTestApp(t)

	payload := []byte(`{"type":"user.created","data":{"id":"user_1","first_name":"Jane","last_name":"Doe","image_url":"https://img.example.com/1.png","email_addresses":[{"email_address":"jane@example.com"}]}}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/clerk", bytes.NewReader(payload))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", svixSign("msg_1", ts, payload, testClerkSecret))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "user_1").Error)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "Jane Doe", user.Name)

	// update replays through the same path
	payload = []byte(`{"type":"user.updated","data":{"id":"user_1","first_name":"Janet","last_name":"Doe","email_addresses":[{"email_address":"janet@example.com"}]}}`)
	req = httptest.NewRequest(http.MethodPost, "/clerk", bytes.NewReader(payload))
	req.Header.Set("svix-id", "msg_2")
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", svixSign("msg_2", ts, payload, testClerkSecret))

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&user, "id = ?", "user_1").Error)
	assert.Equal(t, "janet@example.com", user.Email)
	assert.Equal(t, "Janet Doe", user.Name)
}

func TestClerkWebhookDeletesUser(t *testing.T) {
	app, db := newTestApp(t)
	require.NoError(t, db.Create(&models.User{ID: "user_1", Email: "jane@example.com", Name: "Jane"}).Error)

	payload := []byte(`{"type":"user.deleted","data":{"id":"user_1"}}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/clerk", bytes.NewReader(payload))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", svixSign("msg_1", ts, payload, testClerkSecret))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", "user_1").Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestClerkWebhookRejectsBadSignature(t *testing.T) {
	app, db := newTestApp(t)

	payload := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/clerk", bytes.NewReader(payload))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set("svix-signature", "v1,bm90LXZhbGlk")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCertificateWebhookFinalizesURL(t *testing.T) {
	app, db := newTestApp(t)

	now := time.Now()
	progress := models.CourseProgress{
		UserID: "user_1", CourseID: 7,
		IsCompleted: true, CompletedAt: &now,
		CertificateURL:   "https://pdf.example.com/preview.pdf",
		CertificateState: models.CertificateProvisional,
	}
	require.NoError(t, db.Create(&progress).Error)

	payload := []byte(`{"document":{"metadata":{"userId":"user_1","courseId":7},"attributes":{"download_url":"https://pdf.example.com/final.pdf"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/certificate-webhook", bytes.NewReader(payload))
	req.Header.Set("x-pdfmonkey-signature", testPdfSecret)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&progress, "user_id = ? AND course_id = ?", "user_1", 7).Error)
	assert.Equal(t, "https://pdf.example.com/final.pdf", progress.CertificateURL)
	assert.Equal(t, models.CertificateFinal, progress.CertificateState)
}

func TestCertificateWebhookRejectsBadSecret(t *testing.T) {
	app, _ := newTestApp(t)

	payload := []byte(`{"document":{"metadata":{"userId":"user_1","courseId":7},"attributes":{"download_url":"https://pdf.example.com/final.pdf"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/certificate-webhook", bytes.NewReader(payload))
	req.Header.Set("x-pdfmonkey-signature", "wrong")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCertificateWebhookRejectsIncompleteData(t *testing.T) {
	app, _ := newTestApp(t)

	payload := []byte(`{"document":{"metadata":{"userId":"user_1"},"attributes":{}}}`)
	req := httptest.NewRequest(http.MethodPost, "/certificate-webhook", bytes.NewReader(payload))
	req.Header.Set("x-pdfmonkey-signature", testPdfSecret)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCertificateWebhookAcksUnknownProgress(t *testing.T) {
	app, db := newTestApp(t)

	payload := []byte(`{"document":{"metadata":{"userId":"ghost","courseId":7},"attributes":{"download_url":"https://pdf.example.com/final.pdf"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/certificate-webhook", bytes.NewReader(payload))
	req.Header.Set("x-pdfmonkey-signature", testPdfSecret)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var event models.GatewayEvent
	require.NoError(t, db.First(&event, "provider = ?", "pdfmonkey").Error)
	assert.Equal(t, models.EventFailed, event.Status)
}
