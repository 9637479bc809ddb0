package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kointos-backend/internal/ai"
	delivery "kointos-backend/internal/api/delivery/http"
	_ "kointos-backend/internal/api/docs"
	"kointos-backend/internal/api/repository"
	"kointos-backend/internal/api/service"
	"kointos-backend/internal/auth"
	"kointos-backend/internal/entity"
	"kointos-backend/internal/schema"
	"kointos-backend/internal/storage"
	"kointos-backend/internal/testutil"
	"kointos-backend/pkg/config"
	"kointos-backend/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	e      *echo.Echo
	tokens *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewNop()
	db := testutil.NewDB(t)

	tokens, err := auth.NewTokenIssuer("kointos-auth", "test-secret", time.Hour)
	require.NoError(t, err)
	authCfg := config.Auth{Name: "kointos-auth", LoginWith: config.LoginWith{Email: true}, Groups: []string{"Admins"}}

	aiSvc, err := ai.NewService(ai.NewCannedInvoker(), config.AI{}, log)
	require.NoError(t, err)

	e := delivery.NewRouter(delivery.RouterDeps{
		Models: delivery.ModelDeps{
			DB:        db,
			Registry:  schema.Default(),
			Validator: schema.NewValidator(),
			Logger:    log,
		},
		Tokens:      tokens,
		AuthConfig:  authCfg,
		AuthService: service.NewAuthService(authCfg, repository.NewIdentityRepository(db), tokens, log),
		AIService:   aiSvc,
		Store:       storage.NewStore("kointosStorage", afero.NewMemMapFs(), 1024),
		Policy:      storage.DefaultPolicy("kointosStorage"),
	})
	return &testServer{t: t, e: e, tokens: tokens}
}

func (s *testServer) token(subject string) string {
	s.t.Helper()
	tok, _, err := s.tokens.Issue(&entity.Identity{ID: subject, Email: subject + "@example.com"})
	require.NoError(s.t, err)
	return tok
}

// do sends a request as subject ("" for a guest) and returns the recorder.
func (s *testServer) do(method, target, subject string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if subject != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token(subject))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(method, target, subject string, body interface{}) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	require.NoError(s.t, err)
	return s.do(method, target, subject, bytes.NewReader(raw))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestOwnerOnlyModel(t *testing.T) {
	s := newTestServer(t)

	rec := s.doJSON(http.MethodPost, "/api/v1/portfolios", "alice", map[string]interface{}{"name": "Main", "userId": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[entity.Portfolio](t, rec)
	assert.Equal(t, "alice", created.Owner)
	assert.NotEmpty(t, created.ID)

	path := "/api/v1/portfolios/" + created.ID
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, "alice", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, "bob", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.doJSON(http.MethodPatch, path, "bob", map[string]string{"name": "x"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, path, "bob", nil).Code)

	list := decode[struct{ Items []entity.Portfolio }](t, s.do(http.MethodGet, "/api/v1/portfolios", "bob", nil))
	assert.Empty(t, list.Items)
	list = decode[struct{ Items []entity.Portfolio }](t, s.do(http.MethodGet, "/api/v1/portfolios", "alice", nil))
	assert.Len(t, list.Items, 1)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path, "alice", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, "alice", nil).Code)
}

func TestPartialUpdate(t *testing.T) {
	s := newTestServer(t)

	rec := s.doJSON(http.MethodPost, "/api/v1/watchlists", "alice", map[string]interface{}{
		"name": "Majors", "userId": "alice", "cryptoSymbols": []string{"BTC", "ETH"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[entity.Watchlist](t, rec)

	rec = s.doJSON(http.MethodPatch, "/api/v1/watchlists/"+created.ID, "alice", map[string]interface{}{"isPublic": true, "owner": "bob"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[entity.Watchlist](t, rec)
	assert.Equal(t, "Majors", updated.Name)
	assert.Equal(t, []string{"BTC", "ETH"}, []string(updated.CryptoSymbols))
	require.NotNil(t, updated.IsPublic)
	assert.True(t, *updated.IsPublic)
	assert.Equal(t, "alice", updated.Owner)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.doJSON(http.MethodPost, "/api/v1/transactions", "alice", map[string]interface{}{
		"portfolioId": "p1", "cryptoSymbol": "BTC", "type": "STEAL",
		"amount": 1, "price": 2, "totalValue": 2, "transactionDate": "2024-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Error  string
		Fields []schema.FieldError
	}](t, rec)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "type", body.Fields[0].Field)
	assert.Equal(t, "oneof", body.Fields[0].Rule)

	rec = s.doJSON(http.MethodPost, "/api/v1/posts", "alice", map[string]interface{}{"content": "gm", "userId": "alice", "bogus": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/posts?nope=1", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/posts?limit=-1", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthenticatedReadModels(t *testing.T) {
	s := newTestServer(t)

	rec := s.doJSON(http.MethodPost, "/api/v1/posts", "alice", map[string]interface{}{"content": "gm", "userId": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[entity.Post](t, rec)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/posts/"+post.ID, "bob", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.doJSON(http.MethodPut, "/api/v1/posts/"+post.ID, "bob", map[string]string{"content": "x"}).Code)

	assert.Equal(t, http.StatusForbidden, s.doJSON(http.MethodPost, "/api/v1/faqs", "alice", map[string]string{"question": "q", "answer": "a"}).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/faqs", "alice", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/faqs", "", nil).Code)
}

func TestInvalidTokenRejected(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStorageRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/v1/storage/profile-pictures/alice/avatar.png", "alice", strings.NewReader("img"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/storage/profile-pictures/alice/avatar.png", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "img", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/storage/profile-pictures/alice/avatar.png", "bob", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/storage/profile-pictures/alice/avatar.png", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, "/api/v1/storage/public-assets/logo.svg", "alice", strings.NewReader("x")).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPut, "/api/v1/storage/public-assets/logo.svg", "", strings.NewReader("x")).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/storage/public-assets/logo.svg", "", nil).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge,
		s.do(http.MethodPut, "/api/v1/storage/post-images/alice/big.jpg", "alice", strings.NewReader(strings.Repeat("x", 2048))).Code)

	list := decode[struct {
		Bucket  string
		Objects []struct{ Key string }
	}](t, s.do(http.MethodGet, "/api/v1/storage?prefix=profile-pictures/alice/", "alice", nil))
	assert.Equal(t, "kointosStorage", list.Bucket)
	require.Len(t, list.Objects, 1)
	assert.Equal(t, "profile-pictures/alice/avatar.png", list.Objects[0].Key)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/storage?prefix=profile-pictures/", "alice", nil).Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/v1/storage/profile-pictures/alice/avatar.png", "bob", nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/storage/profile-pictures/alice/avatar.png", "alice", nil).Code)
}

func TestStorageListStaysInsideOwnFolder(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/v1/storage/profile-pictures/u10/secret.png", "u10", strings.NewReader("x")).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/v1/storage/profile-pictures/u1/avatar.png", "u1", strings.NewReader("x")).Code)

	rec := s.do(http.MethodGet, "/api/v1/storage?prefix=profile-pictures/u1", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[struct {
		Objects []struct{ Key string }
	}](t, rec)
	require.Len(t, list.Objects, 1)
	assert.Equal(t, "profile-pictures/u1/avatar.png", list.Objects[0].Key)

	assert.Equal(t, http.StatusConflict,
		s.do(http.MethodPut, "/api/v1/storage/profile-pictures/u1/avatar.png/x.png", "u1", strings.NewReader("x")).Code)
}

func TestSwaggerDocument(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}](t, rec)
	assert.Equal(t, "/api/v1", doc.BasePath)
	for _, path := range []string{"/auth/signin", "/storage/{key}", "/{model}/{id}", "/ai/invoke", "/schema"} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestAIInvoke(t *testing.T) {
	s := newTestServer(t)

	rec := s.doJSON(http.MethodPost, "/api/v1/ai/invoke", "alice", map[string]string{"prompt": "ETH outlook"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[struct {
		Response string
		Usage    struct{ InputTokens, OutputTokens int }
	}](t, rec)
	assert.Contains(t, resp.Response, "ETH outlook")
	assert.Equal(t, len("ETH outlook"), resp.Usage.InputTokens)
	assert.Equal(t, 150, resp.Usage.OutputTokens)

	assert.Equal(t, http.StatusBadRequest, s.doJSON(http.MethodPost, "/api/v1/ai/invoke", "alice", map[string]string{}).Code)
	assert.Equal(t, http.StatusUnauthorized, s.doJSON(http.MethodPost, "/api/v1/ai/invoke", "", map[string]string{"prompt": "x"}).Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	creds := map[string]string{"email": "carol@example.com", "password": "long-enough-pw"}

	rec := s.doJSON(http.MethodPost, "/api/v1/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusConflict, s.doJSON(http.MethodPost, "/api/v1/auth/signup", "", creds).Code)
	assert.Equal(t, http.StatusBadRequest,
		s.doJSON(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"email": "not-an-email", "password": "long-enough-pw"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		s.doJSON(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{"email": "d@example.com", "password": "short"}).Code)

	rec = s.doJSON(http.MethodPost, "/api/v1/auth/signin", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[struct{ AccessToken string }](t, rec)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.AccessToken)
	me := httptest.NewRecorder()
	s.e.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "carol@example.com", decode[struct{ Email string }](t, me).Email)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		s.doJSON(http.MethodPost, "/api/v1/auth/signin", "", map[string]string{"email": "carol@example.com", "password": "wrong-password"}).Code)
}

func TestSchemaDocument(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/schema", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[delivery.SchemaDocument](t, rec)
	assert.Len(t, doc.Models, 18)
	assert.Equal(t, "kointos-auth", doc.Auth.Name)
	assert.True(t, doc.Auth.LoginWith["email"])
	assert.Equal(t, "kointosStorage", doc.Storage.Bucket)
	assert.Len(t, doc.Storage.Rules, 3)
	require.Len(t, doc.Functions, 1)
	assert.Equal(t, 300, doc.Functions[0].TimeoutSeconds)
}
