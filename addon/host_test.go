package addon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testIssueJSON = `{
	"key": "PROJ-42",
	"fields": {
		"summary": "Checkout fails for guests",
		"description": {
			"type": "doc",
			"version": 1,
			"content": [
				{"type": "paragraph", "content": [
					{"type": "text", "text": "As a guest"},
					{"type": "text", "text": " I cannot pay."}
				]},
				{"type": "codeBlock", "content": [{"type": "text", "text": "skipped"}]},
				{"type": "paragraph", "content": [{"type": "text", "text": "Steps below."}]}
			]
		}
	}
}`

func testInstallation(baseURL string) Installation {
	return Installation{ClientKey: "tenant-1", SharedSecret: "s", BaseURL: baseURL}
}

func TestIssueDetails_FetchHostData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue/PROJ-42" {
			t.Errorf("Expected issue path but have: %s", r.URL.Path)
		}
		if _, _, ok := r.BasicAuth(); !ok {
			t.Error("Expected basic auth on host API request")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testIssueJSON))
	}))
	defer server.Close()

	var details IssueDetails
	err := details.FetchHostData(FetchHostDataParams{
		Context:        context.Background(),
		EntityID:       "PROJ-42",
		HostAPIBuilder: HostAPIBuilder(testInstallation(server.URL), "bot@example.com", "token"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if details.Summary != "Checkout fails for guests" {
		t.Errorf("Expected summary but have: %q", details.Summary)
	}
	expected := "As a guest\n I cannot pay.\nSteps below.\n"
	if details.Description != expected {
		t.Errorf("Expected description %q but have: %q", expected, details.Description)
	}
}

func TestIssueDetails_NullFieldsFallBackToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"fields":{"summary":"S","description":null}}`))
	}))
	defer server.Close()

	var details IssueDetails
	err := details.FetchHostData(FetchHostDataParams{
		Context:        context.Background(),
		EntityID:       "PROJ-1",
		HostAPIBuilder: HostAPIBuilder(testInstallation(server.URL), "bot@example.com", "token"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if details.Summary != "S" {
		t.Errorf("Expected summary S but have: %q", details.Summary)
	}
	if details.Description != "" {
		t.Errorf("Expected empty description but have: %q", details.Description)
	}
}

func TestIssueDetails_HostFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages":["Issue does not exist"]}`))
	}))
	defer server.Close()

	var details IssueDetails
	err := details.FetchHostData(FetchHostDataParams{
		Context:        context.Background(),
		EntityID:       "PROJ-404",
		HostAPIBuilder: HostAPIBuilder(testInstallation(server.URL), "bot@example.com", "token"),
	})
	if !errors.Is(err, ErrContentFetch) {
		t.Errorf("Expected ErrContentFetch but have: %v", err)
	}
}

func TestPageDetails_FetchHostData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/content/9001" {
			t.Errorf("Expected content path but have: %s", r.URL.Path)
		}
		if r.URL.Query().Get("expand") != "body.storage" {
			t.Errorf("Expected expand=body.storage but have: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"9001","title":"Release checklist","body":{"storage":{"value":"<p>steps</p>"}}}`))
	}))
	defer server.Close()

	var details PageDetails
	err := details.FetchHostData(FetchHostDataParams{
		Context:        context.Background(),
		EntityID:       "9001",
		HostAPIBuilder: HostAPIBuilder(testInstallation(server.URL), "bot@example.com", "token"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if details.Title != "Release checklist" {
		t.Errorf("Expected title Release checklist but have: %q", details.Title)
	}
	if details.Body != "<p>steps</p>" {
		t.Errorf("Expected storage body but have: %q", details.Body)
	}
}

func TestPageDetails_MissingBodyFallsBackToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"9001","title":"Bare page"}`))
	}))
	defer server.Close()

	var details PageDetails
	err := details.FetchHostData(FetchHostDataParams{
		Context:        context.Background(),
		EntityID:       "9001",
		HostAPIBuilder: HostAPIBuilder(testInstallation(server.URL), "bot@example.com", "token"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if details.Body != "" {
		t.Errorf("Expected empty body but have: %q", details.Body)
	}
}
