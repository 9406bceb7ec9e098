package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalytics "github.com/jhoicas/facturador-api/internal/application/analytics"
	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/internal/application/dto"
	"github.com/jhoicas/facturador-api/internal/application/usecase"
	"github.com/jhoicas/facturador-api/internal/infrastructure/memory"
	"github.com/jhoicas/facturador-api/internal/infrastructure/pdf"
	"github.com/jhoicas/facturador-api/internal/infrastructure/ubl"
	"github.com/jhoicas/facturador-api/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/facturador-api/internal/interfaces/http"
)

var fixedNow = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

type testServer struct {
	app   *fiber.App
	store *memory.Store
}

// newTestServer arma la API completa sobre el store en memoria.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	clock := func() time.Time { return fixedNow }
	defaults := billing.DefaultDefaults()

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(apphttp.RequestContext())
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(store.Users(), auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
		}, defaults.Currency),
		SettingsUC: usecase.NewSettingsUseCase(store.Users(), defaults.Currency),
		ClientUC:   billing.NewClientUseCase(store.Clients(), defaults.PaymentTerms),
		ItemUC:     usecase.NewItemUseCase(store.Items(), defaults.UnitLabel),
		InvoiceUC: billing.NewInvoiceUseCase(
			store, store.Invoices(), store.Clients(), store.Items(), store.Users(), defaults,
		).WithClock(clock),
		DocumentUC: billing.NewDocumentUseCase(
			store.Invoices(), store.Clients(), store.Users(), pdf.NewMarotoPDFGenerator(), ubl.NewXMLBuilder(),
		),
		ExportUC: billing.NewExportUseCase(store.Invoices(), store.Clients(), xlsx.NewRegisterExporter(), clock),
		DashboardUC: appanalytics.NewDashboardUseCase(
			store.Analytics(), store.Invoices(), store.Clients(), store.Items(),
		).WithClock(clock),
		JWTSecret: testJWTSecret,
	})
	return &testServer{app: app, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

// signup registra y hace login; devuelve el token.
func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	resp, _ := s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: email, Password: "supersecret", Name: "Ana",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: "supersecret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (s *testServer) createClient(t *testing.T, token, name string) dto.ClientResponse {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/clients", token, dto.ClientRequest{Name: name})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.ClientResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func scenarioBody(clientID string) map[string]any {
	return map[string]any{
		"client_id":  clientID,
		"issue_date": "2024-03-10",
		"due_date":   "2024-03-24",
		"lines": []map[string]any{
			{"description": "Design", "quantity": 2, "unit_price": 50, "tax_rate": 21},
			{"description": "Hosting", "quantity": 1, "unit_price": 100, "tax_rate": 0},
		},
	}
}

func (s *testServer) createInvoice(t *testing.T, token, clientID string) dto.InvoiceResponse {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/invoices", token, scenarioBody(clientID))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "esperado %s, obtenido %s", want, got)
}

// ──────────────────────────────────────────────────────────────────────────────

func TestCreateInvoice_Scenario(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")
	client := s.createClient(t, token, "Acme Ltd")

	inv := s.createInvoice(t, token, client.ID)

	assert.Equal(t, "2024-0001", inv.InvoiceNumber)
	assertDecimal(t, "200", inv.Subtotal)
	assertDecimal(t, "21", inv.TaxTotal)
	assertDecimal(t, "221", inv.Total)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, "DRAFT", inv.Status)
	require.NotNil(t, inv.Client)
	assert.Equal(t, "Acme Ltd", inv.Client.Name)
	require.Len(t, inv.Lines, 2)
	assertDecimal(t, "121", inv.Lines[0].LineTotal)

	second := s.createInvoice(t, token, client.ID)
	assert.Equal(t, "2024-0002", second.InvoiceNumber)
}

func TestCreateInvoice_Validation(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")
	client := s.createClient(t, token, "Acme Ltd")

	body := scenarioBody(client.ID)
	body["lines"] = []map[string]any{}
	resp, raw := s.do(t, http.MethodPost, "/api/invoices", token, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, raw).Code)

	body = scenarioBody(client.ID)
	body["due_date"] = "2024-03-01"
	resp, _ = s.do(t, http.MethodPost, "/api/invoices", token, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body = scenarioBody(client.ID)
	body["currency"] = "XYZ1"
	resp, _ = s.do(t, http.MethodPost, "/api/invoices", token, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body = scenarioBody(client.ID)
	body["lines"] = []map[string]any{
		{"description": "Design", "quantity": "0.0000001", "unit_price": 50, "tax_rate": 21},
	}
	resp, raw = s.do(t, http.MethodPost, "/api/invoices", token, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, raw).Code)

	resp, raw = s.do(t, http.MethodPost, "/api/invoices", token, "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decodeError(t, raw).Code)

	assert.Equal(t, 0, s.store.InvoiceCount())
}

func TestCreateInvoice_UnknownClientIsNotFound(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")

	resp, raw := s.do(t, http.MethodPost, "/api/invoices", token, scenarioBody("00000000-0000-0000-0000-00000000abcd"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, raw).Code)
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")

	for _, path := range []string{
		"/api/invoices/not-a-uuid",
		"/api/invoices/not-a-uuid/pdf",
		"/api/clients/not-a-uuid",
		"/api/items/not-a-uuid",
	} {
		resp, raw := s.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "NOT_FOUND", decodeError(t, raw).Code, path)
	}

	resp, _ := s.do(t, http.MethodPut, "/api/invoices/not-a-uuid/sent", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, raw := s.do(t, http.MethodPost, "/api/invoices", token, scenarioBody("not-a-uuid"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, raw).Code)
}

func TestCreateInvoice_NumberingConflictsExhaustedIsInternal(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")
	client := s.createClient(t, token, "Acme Ltd")
	s.store.FailNextCreates(billing.DefaultDefaults().NumberRetries)

	resp, raw := s.do(t, http.MethodPost, "/api/invoices", token, scenarioBody(client.ID))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, "INTERNAL", e.Code)
	assert.Equal(t, "error interno", e.Message)
}

func TestOwnershipIsolation(t *testing.T) {
	s := newTestServer(t)
	ana := s.signup(t, "ana@example.com")
	bob := s.signup(t, "bob@example.com")
	client := s.createClient(t, ana, "Acme Ltd")
	inv := s.createInvoice(t, ana, client.ID)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/invoices/" + inv.ID},
		{http.MethodGet, "/api/invoices/" + inv.ID + "/pdf"},
		{http.MethodGet, "/api/invoices/" + inv.ID + "/ubl"},
		{http.MethodPut, "/api/invoices/" + inv.ID + "/sent"},
		{http.MethodGet, "/api/clients/" + client.ID},
	}
	for _, p := range paths {
		resp, raw := s.do(t, p.method, p.path, bob, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p.path)
		assert.Equal(t, "NOT_FOUND", decodeError(t, raw).Code, p.path)
	}

	resp, _ := s.do(t, http.MethodPost, "/api/invoices", bob, scenarioBody(client.ID))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := s.do(t, http.MethodGet, "/api/invoices", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.InvoiceListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Empty(t, list.Items)
}

func TestStatusTransitions(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")
	client := s.createClient(t, token, "Acme Ltd")
	inv := s.createInvoice(t, token, client.ID)

	resp, body := s.do(t, http.MethodPut, "/api/invoices/"+inv.ID+"/sent", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sent dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, "SENT", sent.Status)
	assertDecimal(t, "221", sent.Total)
	assert.Len(t, sent.Lines, 2)

	resp, _ = s.do(t, http.MethodPut, "/api/invoices/"+inv.ID+"/paid", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := s.do(t, http.MethodPut, "/api/invoices/"+inv.ID+"/sent", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, raw).Code)

	resp, body = s.do(t, http.MethodGet, "/api/invoices?status=PAID", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.InvoiceListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Items, 1)

	resp, _ = s.do(t, http.MethodGet, "/api/invoices?status=LOST", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvoiceDocuments(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")
	client := s.createClient(t, token, "Acme Ltd")
	inv := s.createInvoice(t, token, client.ID)

	resp, body := s.do(t, http.MethodGet, "/api/invoices/"+inv.ID+"/pdf", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice-2024-0001.pdf"`, resp.Header.Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, body = s.do(t, http.MethodGet, "/api/invoices/"+inv.ID+"/ubl", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	assert.Contains(t, string(body), "2024-0001")

	resp, _ = s.do(t, http.MethodGet, "/api/invoices/"+inv.ID+"/ubl", token, nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/api/invoices/export.xlsx?year=2024", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="invoices-2024.xlsx"`, resp.Header.Get("Content-Disposition"))
	assert.NotEmpty(t, body)
}

func TestInvoiceDefaults(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")
	client := s.createClient(t, token, "Acme Ltd")

	resp, body := s.do(t, http.MethodGet, "/api/invoices/defaults?client_id="+client.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.InvoiceDefaultsResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "2024-03-10", out.IssueDate)
	assert.Equal(t, "2024-03-24", out.DueDate)
	assert.Equal(t, "EUR", out.Currency)
}

func TestDashboardSummary(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")
	client := s.createClient(t, token, "Acme Ltd")
	s.createInvoice(t, token, client.ID)

	resp, body := s.do(t, http.MethodGet, "/api/dashboard/summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.DashboardSummaryDTO
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 1, out.InvoiceCount)
	assert.Equal(t, 1, out.DraftCount)
	assert.Equal(t, 1, out.ClientCount)
	require.Len(t, out.Revenue, 1)
	assert.Equal(t, "EUR", out.Revenue[0].Currency)
	assertDecimal(t, "221", out.Revenue[0].Total)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "ana@example.com")

	resp, raw := s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Email: "ANA@example.com", Password: "supersecret"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "EMAIL_EXISTS", decodeError(t, raw).Code)

	resp, _ = s.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Email: "eva@example.com", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "ana@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ana@example.com")

	resp, body := s.do(t, http.MethodPut, "/api/settings", token, dto.SettingsRequest{
		CompanyName: "Studio Ana", DefaultCurrency: "usd", BankDetails: "IBAN ES00",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.do(t, http.MethodGet, "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.SettingsResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Studio Ana", out.CompanyName)
	assert.Equal(t, "USD", out.DefaultCurrency)

	client := s.createClient(t, token, "Acme Ltd")
	inv := s.createInvoice(t, token, client.ID)
	assert.Equal(t, "USD", inv.Currency)
}
