package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finapi/models"
	"finapi/pkg/ledger"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	initDB()
	svc = ledger.NewService(ledger.NewGormStore(db), nil, nil)
	r := gin.Default()
	setupRoutes(r)
	return r
}

func registerAndLogin(t *testing.T, r *gin.Engine, name, email string) (userID, token string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"name": name, "email": email, "password": "password"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(body), "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var reg struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	body, _ = json.Marshal(map[string]string{"email": email, "password": "password"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(body), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return reg.ID, login.Token
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	suffix := time.Now().UnixNano()
	aliceID, aliceToken := registerAndLogin(t, r, "Alice", fmt.Sprintf("alice%d@example.com", suffix))
	bobID, bobToken := registerAndLogin(t, r, "Bob", fmt.Sprintf("bob%d@example.com", suffix))

	// deposit 900
	body, _ := json.Marshal(map[string]any{"amount": "900", "description": "payday"})
	resp := performRequest(r, http.MethodPost, "/deposit", bytes.NewBuffer(body), aliceToken)
	if resp.Code != http.StatusCreated {
		t.Fatalf("deposit failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var depositStmt models.Statement
	if err := json.Unmarshal(resp.Body.Bytes(), &depositStmt); err != nil {
		t.Fatalf("decode deposit response: %v", err)
	}
	if depositStmt.UserID != aliceID {
		t.Fatalf("deposit attributed to %s, want %s", depositStmt.UserID, aliceID)
	}

	// withdraw 100
	body, _ = json.Marshal(map[string]any{"amount": "100", "description": "groceries"})
	resp = performRequest(r, http.MethodPost, "/withdraw", bytes.NewBuffer(body), aliceToken)
	if resp.Code != http.StatusCreated {
		t.Fatalf("withdraw failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// withdrawing more than the balance must be rejected
	body, _ = json.Marshal(map[string]any{"amount": "901", "description": "too much"})
	resp = performRequest(r, http.MethodPost, "/withdraw", bytes.NewBuffer(body), aliceToken)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("overdraft expected 400 got %d body=%s", resp.Code, resp.Body.String())
	}

	// transfer 300 to bob
	body, _ = json.Marshal(map[string]any{"amount": "300", "description": "rent split"})
	resp = performRequest(r, http.MethodPost, "/transfers/"+bobID, bytes.NewBuffer(body), aliceToken)
	if resp.Code != http.StatusCreated {
		t.Fatalf("transfer failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var transferStmts []models.Statement
	if err := json.Unmarshal(resp.Body.Bytes(), &transferStmts); err != nil {
		t.Fatalf("decode transfer response: %v", err)
	}
	if len(transferStmts) != 2 {
		t.Fatalf("expected 2 transfer statements got %d", len(transferStmts))
	}
	if !transferStmts[0].Amount.Equal(decimal.RequireFromString("300")) {
		t.Fatalf("sender record amount %s, want 300", transferStmts[0].Amount)
	}

	// alice: 900 - 100 - 300 = 500
	resp = performRequest(r, http.MethodGet, "/balance", nil, aliceToken)
	if resp.Code != http.StatusOK {
		t.Fatalf("balance failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var balResp struct {
		Balance   decimal.Decimal    `json:"balance"`
		Statement []models.Statement `json:"statement"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &balResp); err != nil {
		t.Fatalf("decode balance response: %v", err)
	}
	if !balResp.Balance.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("alice balance %s, want 500", balResp.Balance)
	}
	if len(balResp.Statement) != 3 {
		t.Fatalf("alice expected 3 statements got %d", len(balResp.Statement))
	}

	// bob received 300
	resp = performRequest(r, http.MethodGet, "/balance", nil, bobToken)
	if resp.Code != http.StatusOK {
		t.Fatalf("bob balance failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &balResp); err != nil {
		t.Fatalf("decode bob balance response: %v", err)
	}
	if !balResp.Balance.Equal(decimal.RequireFromString("300")) {
		t.Fatalf("bob balance %s, want 300", balResp.Balance)
	}

	// a fresh account serializes an empty history, not null
	_, carolToken := registerAndLogin(t, r, "Carol", fmt.Sprintf("carol%d@example.com", suffix))
	resp = performRequest(r, http.MethodGet, "/balance", nil, carolToken)
	if resp.Code != http.StatusOK {
		t.Fatalf("carol balance failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"statement":[]`) {
		t.Fatalf("expected empty statement array, got %s", resp.Body.String())
	}

	// statement lookup is scoped to the owner
	resp = performRequest(r, http.MethodGet, "/statements/"+depositStmt.ID, nil, aliceToken)
	if resp.Code != http.StatusOK {
		t.Fatalf("statement lookup failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/statements/"+depositStmt.ID, nil, bobToken)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("cross-account lookup expected 404 got %d", resp.Code)
	}
}
