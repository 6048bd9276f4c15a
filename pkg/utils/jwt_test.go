package utils

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenRoundTripPreservesClaims(t *testing.T) {
	defer SetSecret("secret")
	SetSecret("round-trip-secret")

	userID := primitive.NewObjectID()
	orgID := primitive.NewObjectID()
	clientID := primitive.NewObjectID().Hex()

	token, err := GenerateToken(userID, orgID, []string{"Lawyer", "Paralegal"}, clientID)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != userID.Hex() {
		t.Errorf("user id = %q, want %q", claims.UserID, userID.Hex())
	}
	if claims.OrganizationID != orgID.Hex() {
		t.Errorf("organization id = %q, want %q", claims.OrganizationID, orgID.Hex())
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "Lawyer" {
		t.Errorf("roles = %v", claims.Roles)
	}
	if claims.ClientID != clientID {
		t.Errorf("client id = %q, want %q", claims.ClientID, clientID)
	}
}

func TestRotatedSecretInvalidatesOldTokens(t *testing.T) {
	defer SetSecret("secret")

	SetSecret("first-secret")
	token, err := GenerateToken(primitive.NewObjectID(), primitive.NewObjectID(), []string{"Lawyer"}, "")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := ValidateToken(token); err != nil {
		t.Fatalf("token should validate under the signing secret: %v", err)
	}

	SetSecret("second-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("token signed under the old secret should fail validation")
	}
}
