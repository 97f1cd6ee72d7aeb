package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"furniture-service/internal/capability"
	"furniture-service/internal/model"
	"furniture-service/pkg/config"
	"furniture-service/pkg/jwtutil"
	"furniture-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "middleware_test"}})
	os.Exit(m.Run())
}

func authedRequest(t *testing.T, token string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	c, rec := authedRequest(t, "")
	require.NoError(t, AuthMiddleware(okHandler)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	c, rec := authedRequest(t, "not-a-real-token")
	require.NoError(t, AuthMiddleware(okHandler)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareAttachesActor(t *testing.T) {
	branchID := uint(2)
	token, err := jwtutil.GenerateToken(7, "staff@example.com", model.RoleInventoryStaff, &branchID)
	require.NoError(t, err)

	c, rec := authedRequest(t, token)
	require.NoError(t, AuthMiddleware(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	actor, ok := ActorFromContext(c)
	require.True(t, ok)
	assert.Equal(t, uint(7), actor.UserID)
	assert.Equal(t, model.RoleInventoryStaff, actor.Role)
	require.NotNil(t, actor.BranchID)
	assert.Equal(t, branchID, *actor.BranchID)
}

func TestRequireCapability(t *testing.T) {
	token, err := jwtutil.GenerateToken(9, "buyer@example.com", model.RoleCustomer, nil)
	require.NoError(t, err)

	c, rec := authedRequest(t, token)
	handler := AuthMiddleware(RequireCapability(capability.ManageInventory)(okHandler))
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token, err = jwtutil.GenerateToken(10, "stock@example.com", model.RoleInventoryStaff, nil)
	require.NoError(t, err)
	c, rec = authedRequest(t, token)
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireCapabilityWithoutAuth(t *testing.T) {
	c, rec := authedRequest(t, "")
	require.NoError(t, RequireCapability(capability.ViewInventory)(okHandler)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
