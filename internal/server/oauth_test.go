package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

func testOAuthConfig(t *testing.T) *oauth2.Config {
	t.Helper()
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test_access","refresh_token":"test_refresh","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(tokenServer.Close)

	return &oauth2.Config{
		ClientID:     "test_id",
		ClientSecret: "test_secret",
		RedirectURL:  "http://localhost:3000/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  tokenServer.URL + "/authorize",
			TokenURL: tokenServer.URL + "/token",
		},
	}
}

func TestOAuthHandlerSuccess(t *testing.T) {
	handler := NewOAuthHandler(testOAuthConfig(t), "expected_state")

	req := httptest.NewRequest(http.MethodGet, "/callback?code=auth_code&state=expected_state", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	result := <-handler.Result()
	if result.Error() != nil {
		t.Fatalf("unexpected error: %v", result.Error())
	}
	if result.Token.RefreshToken != "test_refresh" {
		t.Errorf("unexpected token %+v", result.Token)
	}
}

func TestOAuthHandlerInvalidState(t *testing.T) {
	handler := NewOAuthHandler(testOAuthConfig(t), "expected_state")

	req := httptest.NewRequest(http.MethodGet, "/callback?code=auth_code&state=wrong", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	result := <-handler.Result()
	if result.Error() == nil {
		t.Error("state mismatch should produce an error")
	}
}

func TestOAuthHandlerDeniedAuthorization(t *testing.T) {
	handler := NewOAuthHandler(testOAuthConfig(t), "expected_state")

	req := httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&error_description=denied&state=expected_state", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	result := <-handler.Result()
	if result.Error() == nil {
		t.Error("denied authorization should produce an error")
	}
}

func TestOAuthHandlerRejectsReplay(t *testing.T) {
	handler := NewOAuthHandler(testOAuthConfig(t), "expected_state")

	first := httptest.NewRequest(http.MethodGet, "/callback?code=auth_code&state=expected_state", nil)
	handler.ServeHTTP(httptest.NewRecorder(), first)
	<-handler.Result()

	replay := httptest.NewRequest(http.MethodGet, "/callback?code=other_code&state=expected_state", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, replay)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("replayed callback should be rejected, got %d", rec.Code)
	}
}
