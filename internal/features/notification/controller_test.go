package notification

import (
	"testing"

	common_models "go-lpm/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeConn stands in for an upgraded connection; the websocket wrapper
// exposes request Locals under string keys.
type fakeConn struct {
	locals map[string]interface{}
}

func (c *fakeConn) Locals(key string, value ...interface{}) interface{} {
	return c.locals[key]
}

func TestStreamPrincipal(t *testing.T) {
	authed := common_models.Principal{
		UserID:         primitive.NewObjectID(),
		OrganizationID: primitive.NewObjectID(),
		Authenticated:  true,
	}

	tests := []struct {
		name   string
		locals map[string]interface{}
		want   bool
	}{
		{"authenticated principal", map[string]interface{}{
			string(common_models.PrincipalKey): authed,
		}, true},
		{"unauthenticated principal", map[string]interface{}{
			string(common_models.PrincipalKey): common_models.Principal{},
		}, false},
		{"missing principal", map[string]interface{}{}, false},
		{"wrong type under the key", map[string]interface{}{
			string(common_models.PrincipalKey): "not a principal",
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, ok := streamPrincipal(&fakeConn{locals: tt.locals})
			if ok != tt.want {
				t.Fatalf("streamPrincipal() ok = %v, want %v", ok, tt.want)
			}
			if ok && principal.UserID != authed.UserID {
				t.Errorf("principal = %+v, want the stored identity", principal)
			}
		})
	}
}
