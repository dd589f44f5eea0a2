package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/assetshare/backend/internal/config"
	"github.com/assetshare/backend/internal/database"
	"github.com/assetshare/backend/internal/middleware"
	"github.com/assetshare/backend/internal/services"
	"github.com/assetshare/backend/internal/storage"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/assetshare/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	store   *storage.LocalStorage
	uploads *services.UploadService
}

type testUser struct {
	ID          string
	SharingCode string
	Token       string
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.SetOutput(io.Discard)
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed creating local storage: %v", err)
	}

	authService := services.NewAuthService(db)
	accessService := services.NewAccessService(db)
	assetService := services.NewAssetService(db, store, accessService, authService)
	uploadService := services.NewUploadService(db, store, services.UploadLimits{
		LargeFileThreshold: 10 * config.GiB,
		MaxFileSize:        15 * config.GiB,
	})
	paymentService := services.NewPaymentService(db, config.PaymentConfig{
		SessionTTL:  time.Minute,
		MaxSessions: 100,
		GatewayURL:  "https://pay.example.com/",
	})

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS([]string{"http://localhost:5173"}))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	router := &Router{
		Auth:    middleware.NewAuthMiddleware(authService),
		Users:   NewUsersHandler(authService),
		Assets:  NewAssetsHandler(assetService, uploadService),
		Payment: NewPaymentHandler(paymentService),
	}
	router.Register(app)

	return &testEnv{app: app, db: db, store: store, uploads: uploadService}
}

func registerTestUser(t *testing.T, env *testEnv, name, email string) testUser {
	t.Helper()

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/users", map[string]any{
		"name":     name,
		"email":    email,
		"password": "password123",
	}, nil)
	assertStatus(t, resp, http.StatusCreated)
	data := decodeData(t, resp)

	return testUser{
		ID:          data["id"].(string),
		SharingCode: data["sharingCode"].(string),
		Token:       data["token"].(string),
	}
}

func multipartBody(t *testing.T, field, fileName, contentType string, content []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, fileName))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed creating multipart part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed writing multipart content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	return &buf, writer.FormDataContentType()
}

func uploadAsset(t *testing.T, env *testEnv, token, fileName, contentType string, content []byte) *http.Response {
	t.Helper()

	body, formType := multipartBody(t, "file", fileName, contentType, content)
	headers := authHeaders(token)
	headers["Content-Type"] = formType
	return performRequest(t, env.app, http.MethodPost, "/api/assets", body, headers)
}

func uploadTestAsset(t *testing.T, env *testEnv, token, fileName, contentType string, content []byte) map[string]any {
	t.Helper()

	resp := uploadAsset(t, env, token, fileName, contentType, content)
	assertStatus(t, resp, http.StatusCreated)
	return decodeData(t, resp)
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

// decodeData unwraps the success envelope and returns its data object.
func decodeData(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	body := decodeJSONMap(t, resp)
	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success=true, got %+v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", body["data"])
	}
	return data
}

func decodeDataList(t *testing.T, resp *http.Response) []any {
	t.Helper()

	body := decodeJSONMap(t, resp)
	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success=true, got %+v", body)
	}
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %T", body["data"])
	}
	return data
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
