package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/vivahsetu/vivahsetu-backend/pkg/jwt"
)

func authRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handler)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUserID(c), "role": GetUserRole(c)})
	})
	return r
}

func TestJWTAuth_ValidBearer(t *testing.T) {
	manager := jwt.NewManager("secret", 5)
	token, err := manager.GenerateAccessToken("u1", "Asha", "member")
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authRouter(JWTAuth(manager)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"role":"member","user":"u1"}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestJWTAuth_Rejections(t *testing.T) {
	manager := jwt.NewManager("secret", 5)
	foreign, _ := jwt.NewManager("other", 5).GenerateAccessToken("u1", "Asha", "member")
	joined, _ := manager.GenerateAccessToken("a_b", "Asha", "member")

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"wrong secret", "Bearer " + foreign},
		{"separator in subject", "Bearer " + joined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			authRouter(JWTAuth(manager)).ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestJWTAuthWithQuery(t *testing.T) {
	manager := jwt.NewManager("secret", 5)
	token, _ := manager.GenerateAccessToken("u2", "Ravi", "member")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test?token="+token, nil)
	authRouter(JWTAuthWithQuery(manager)).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with query token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	authRouter(JWTAuth(manager)).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("header-only auth must ignore query token, got %d", w.Code)
	}
}
