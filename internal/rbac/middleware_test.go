package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"civic-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveWithRole(role string, allowed ...string) int {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serveWithRole(RoleAdmin, RoleAuthority); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_AllowedRolePasses(t *testing.T) {
	if code := serveWithRole(RoleAuthority, RoleAuthority); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DisallowedRoleForbidden(t *testing.T) {
	if code := serveWithRole(RoleCitizen, RoleAuthority); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_MissingRoleUnauthorized(t *testing.T) {
	if code := serveWithRole("", RoleAuthority); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRoleHelpers(t *testing.T) {
	if !CanManageComplaints(RoleAuthority) || !CanManageComplaints(RoleAdmin) {
		t.Fatalf("authority and admin must manage complaints")
	}
	if CanManageComplaints(RoleCitizen) {
		t.Fatalf("citizen must not manage complaints")
	}
	if !IsAssignable(RoleAuthority) {
		t.Fatalf("authority must be assignable")
	}
	if IsAssignable(RoleAdmin) {
		t.Fatalf("admin must not be assignable")
	}
	if !ValidRole(RoleCitizen) || ValidRole("owner") {
		t.Fatalf("ValidRole misbehaves")
	}
}
