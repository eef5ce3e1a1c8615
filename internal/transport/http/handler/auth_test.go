package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/deafauth/deafauth/internal/domain"
	"github.com/deafauth/deafauth/internal/token"
	"github.com/deafauth/deafauth/internal/transport/http/handler"
	"github.com/deafauth/deafauth/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuthUsecase implements the unexported authUsecaser interface via method matching.
type fakeAuthUsecase struct {
	register func(ctx context.Context, email, password string) (*domain.Account, string, error)
	verify   func(ctx context.Context, rawToken string) (*domain.Account, bool, error)
	login    func(ctx context.Context, email, password string) (string, *domain.Account, error)
	account  func(ctx context.Context, id string) (*domain.Account, error)
}

func (f *fakeAuthUsecase) Register(ctx context.Context, email, password string) (*domain.Account, string, error) {
	return f.register(ctx, email, password)
}

func (f *fakeAuthUsecase) Verify(ctx context.Context, rawToken string) (*domain.Account, bool, error) {
	return f.verify(ctx, rawToken)
}

func (f *fakeAuthUsecase) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	return f.login(ctx, email, password)
}

func (f *fakeAuthUsecase) Account(ctx context.Context, id string) (*domain.Account, error) {
	return f.account(ctx, id)
}

var testAccount = &domain.Account{
	ID:       "acc-1",
	Email:    "a@x.com",
	Verified: true,
}

const testGateSecret = "handler-test-token-secret-32-ch!"

func newTestEngine(t *testing.T, uc *fakeAuthUsecase, devMode bool) *gin.Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	h := handler.NewAuthHandler(uc, logger, devMode)

	codec, err := token.NewCodec(token.StrategySigned, testGateSecret, time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.GET("/auth/verify/:token", h.Verify)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", middleware.Auth(token.NewGate(codec)), h.Me)
	r.GET("/auth/health", h.Health)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// ---- Signup ----

func TestSignup_InvalidJSON_Returns400(t *testing.T) {
	r := newTestEngine(t, &fakeAuthUsecase{}, false)
	if w := doJSON(t, r, http.MethodPost, "/auth/signup", `{bad json}`); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSignup_InvalidEmail_Returns400(t *testing.T) {
	r := newTestEngine(t, &fakeAuthUsecase{}, false)
	w := doJSON(t, r, http.MethodPost, "/auth/signup", `{"email":"not-an-email","password":"pw123456"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSignup_ShortPassword_Returns400(t *testing.T) {
	r := newTestEngine(t, &fakeAuthUsecase{}, false)
	w := doJSON(t, r, http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"short"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSignup_Conflict_Returns409(t *testing.T) {
	uc := &fakeAuthUsecase{
		register: func(_ context.Context, _, _ string) (*domain.Account, string, error) {
			return nil, "", domain.ErrEmailTaken
		},
	}
	r := newTestEngine(t, uc, false)
	w := doJSON(t, r, http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"pw123456"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestSignup_DevMode_ExposesVerificationToken(t *testing.T) {
	uc := &fakeAuthUsecase{
		register: func(_ context.Context, _, _ string) (*domain.Account, string, error) {
			return testAccount, "raw-verification-token", nil
		},
	}

	r := newTestEngine(t, uc, true)
	w := doJSON(t, r, http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"pw123456"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if !strings.Contains(w.Body.String(), "raw-verification-token") {
		t.Error("dev-mode response does not contain the verification token")
	}

	r = newTestEngine(t, uc, false)
	w = doJSON(t, r, http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"pw123456"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if strings.Contains(w.Body.String(), "raw-verification-token") {
		t.Error("non-dev response leaks the verification token")
	}
}

func TestSignup_InternalError_Returns500(t *testing.T) {
	uc := &fakeAuthUsecase{
		register: func(_ context.Context, _, _ string) (*domain.Account, string, error) {
			return nil, "", errors.New("db down")
		},
	}
	r := newTestEngine(t, uc, false)
	w := doJSON(t, r, http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"pw123456"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "db down") {
		t.Error("internal error details leaked to the client")
	}
}

// ---- Verify ----

func TestVerify_UnknownToken_Returns404(t *testing.T) {
	uc := &fakeAuthUsecase{
		verify: func(_ context.Context, _ string) (*domain.Account, bool, error) {
			return nil, false, domain.ErrVerificationTokenNotFound
		},
	}
	r := newTestEngine(t, uc, false)
	w := doJSON(t, r, http.MethodGet, "/auth/verify/bogus", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestVerify_Success_Returns200(t *testing.T) {
	uc := &fakeAuthUsecase{
		verify: func(_ context.Context, rawToken string) (*domain.Account, bool, error) {
			if rawToken != "good-token" {
				t.Errorf("token = %q, want good-token", rawToken)
			}
			return testAccount, false, nil
		},
	}
	r := newTestEngine(t, uc, false)
	w := doJSON(t, r, http.MethodGet, "/auth/verify/good-token", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestVerify_AlreadyVerified_Returns200(t *testing.T) {
	uc := &fakeAuthUsecase{
		verify: func(_ context.Context, _ string) (*domain.Account, bool, error) {
			return testAccount, true, nil
		},
	}
	r := newTestEngine(t, uc, false)
	w := doJSON(t, r, http.MethodGet, "/auth/verify/good-token", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already") {
		t.Errorf("body %q does not indicate idempotent success", w.Body.String())
	}
}

// ---- Login ----

func TestLogin_InvalidCredentials_IdenticalResponses(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (string, *domain.Account, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	r := newTestEngine(t, uc, false)

	wrongPw := doJSON(t, r, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"wrongpw1"}`)
	unknown := doJSON(t, r, http.MethodPost, "/auth/login", `{"email":"nobody@x.com","password":"anything1"}`)

	if wrongPw.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401, 401", wrongPw.Code, unknown.Code)
	}
	if wrongPw.Body.String() != unknown.Body.String() {
		t.Errorf("responses differ: %q vs %q", wrongPw.Body.String(), unknown.Body.String())
	}
}

func TestLogin_Unverified_Returns403(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (string, *domain.Account, error) {
			return "", nil, domain.ErrAccountNotVerified
		},
	}
	r := newTestEngine(t, uc, false)
	w := doJSON(t, r, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"pw123456"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestLogin_Success_ReturnsToken(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (string, *domain.Account, error) {
			return "session-token", testAccount, nil
		},
	}
	r := newTestEngine(t, uc, false)
	w := doJSON(t, r, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"pw123456"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Token   string             `json:"token"`
		Account domain.AccountView `json:"account"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "session-token" {
		t.Errorf("token = %q, want session-token", resp.Token)
	}
	if resp.Account.Email != testAccount.Email {
		t.Errorf("account email = %q, want %q", resp.Account.Email, testAccount.Email)
	}
}

// ---- Me ----

func TestMe_NoToken_Returns401(t *testing.T) {
	r := newTestEngine(t, &fakeAuthUsecase{}, false)
	w := doJSON(t, r, http.MethodGet, "/auth/me", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestMe_ValidToken_ReturnsAccountView(t *testing.T) {
	uc := &fakeAuthUsecase{
		account: func(_ context.Context, id string) (*domain.Account, error) {
			if id != testAccount.ID {
				t.Errorf("subject = %q, want %q", id, testAccount.ID)
			}
			return testAccount, nil
		},
	}
	r := newTestEngine(t, uc, false)

	codec, err := token.NewCodec(token.StrategySigned, testGateSecret, time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	minted, err := codec.Mint(testAccount.ID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+minted)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), testAccount.Email) {
		t.Errorf("body %q does not contain account email", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("account view leaks password material")
	}
}

func TestMe_DeletedAccount_Returns404(t *testing.T) {
	uc := &fakeAuthUsecase{
		account: func(_ context.Context, _ string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	}
	r := newTestEngine(t, uc, false)

	codec, err := token.NewCodec(token.StrategySigned, testGateSecret, time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	minted, err := codec.Mint("gone-account")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+minted)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---- Health ----

func TestHealth_Returns200(t *testing.T) {
	r := newTestEngine(t, &fakeAuthUsecase{}, false)
	w := doJSON(t, r, http.MethodGet, "/auth/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
