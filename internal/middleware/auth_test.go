package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret-test-secret-test-secret"

func newRouter(roles ...model.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded", AuthMiddleware(testSecret), RoleMiddleware(roles...), func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		util.Success(c, gin.H{"userId": claims.UserID})
	})
	return r
}

func token(t *testing.T, role model.UserRole, secret string, ttl time.Duration) string {
	t.Helper()
	tok, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: 7}, Role: role}, secret, ttl)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return tok
}

func TestAuthAndRole(t *testing.T) {
	cases := []struct {
		name   string
		header string
		roles  []model.UserRole
		want   int
	}{
		{"no header", "", []model.UserRole{model.Learner}, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", []model.UserRole{model.Learner}, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + token(t, model.Learner, "other-secret", time.Hour), []model.UserRole{model.Learner}, http.StatusUnauthorized},
		{"expired", "Bearer " + token(t, model.Learner, testSecret, -time.Minute), []model.UserRole{model.Learner}, http.StatusUnauthorized},
		{"learner allowed", "Bearer " + token(t, model.Learner, testSecret, time.Hour), []model.UserRole{model.Learner}, http.StatusOK},
		{"learner on instructor route", "Bearer " + token(t, model.Learner, testSecret, time.Hour), []model.UserRole{model.Instructor}, http.StatusForbidden},
		{"admin passes every guard", "Bearer " + token(t, model.Admin, testSecret, time.Hour), []model.UserRole{model.Instructor}, http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			w := httptest.NewRecorder()
			newRouter(c.roles...).ServeHTTP(w, req)
			if w.Code != c.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, c.want, w.Body.String())
			}
		})
	}
}
