package addon

import (
	"testing"
)

func TestCanonicalRequestHash(t *testing.T) {
	tests := []struct {
		method   string
		url      string
		expected string
	}{
		{"GET", "/tracker-test-generator", "GET&/tracker-test-generator&"},
		{"get", "/installed?x=1", "GET&/installed&x=1"},
		{"GET", "/api/issue?key=PROJ-1&clientKey=abc", "GET&/api/issue&clientKey=abc&key=PROJ-1"},
		{"POST", "/api/add-comment?note=a b", "POST&/api/add-comment&note=a+b"},
		{"GET", "", "GET&/&"},
	}
	for _, tt := range tests {
		qsh, err := CanonicalRequestHash(tt.method, tt.url)
		if err != nil {
			t.Fatal(err)
		}
		if qsh != tt.expected {
			t.Errorf("Expected qsh: %s but have: %s", tt.expected, qsh)
		}
	}
}

func TestCreateAndVerifyToken(t *testing.T) {
	inst := Installation{ClientKey: "tenant-1", SharedSecret: "s3cret"}

	token, err := CreateToken("casegen-test-generator", inst, "GET", "/api/issue?key=PROJ-1")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := VerifyToken(token, inst)
	if err != nil {
		t.Fatal(err)
	}
	if claims["iss"] != "casegen-test-generator" {
		t.Errorf("Expected issuer casegen-test-generator but have: %v", claims["iss"])
	}
	if claims["sub"] != "tenant-1" {
		t.Errorf("Expected subject tenant-1 but have: %v", claims["sub"])
	}
	if claims["qsh"] != "GET&/api/issue&key=PROJ-1" {
		t.Errorf("Expected qsh GET&/api/issue&key=PROJ-1 but have: %v", claims["qsh"])
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	inst := Installation{ClientKey: "tenant-1", SharedSecret: "s3cret"}
	token, err := CreateToken("casegen-test-generator", inst, "GET", "/healthz")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := VerifyToken(token, Installation{ClientKey: "tenant-1", SharedSecret: "other"}); err == nil {
		t.Error("Expected verification with the wrong secret to fail")
	}
}
