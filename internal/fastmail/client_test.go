package fastmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateMaskedEmail(t *testing.T) {
	var sawCreate map[string]any

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/jmap/session", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"apiUrl": server.URL + "/jmap/api",
			"primaryAccounts": map[string]string{
				"https://www.fastmail.com/dev/maskedemail": "acc-123",
			},
		})
	})
	mux.HandleFunc("/jmap/api", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MethodCalls [][]json.RawMessage `json:"methodCalls"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		var args struct {
			AccountID string                    `json:"accountId"`
			Create    map[string]map[string]any `json:"create"`
		}
		if err := json.Unmarshal(body.MethodCalls[0][1], &args); err != nil {
			t.Fatalf("decode method args: %v", err)
		}
		if args.AccountID != "acc-123" {
			t.Errorf("expected primary account, got %q", args.AccountID)
		}
		sawCreate = args.Create["new"]
		json.NewEncoder(w).Encode(map[string]any{
			"methodResponses": []any{
				[]any{"MaskedEmail/set", map[string]any{
					"created": map[string]any{
						"new": map[string]any{
							"id":        "me-1",
							"email":     "shop.abc123@fastmail.com",
							"forDomain": "example.com",
							"state":     "enabled",
						},
					},
				}, "0"},
			},
		})
	})

	client, err := NewClient("test-token", "", WithSessionURL(server.URL+"/jmap/session"))
	if err != nil {
		t.Fatal(err)
	}

	masked, err := client.CreateMaskedEmail(context.Background(), CreateRequest{
		ForDomain:   "example.com",
		Description: "shop account",
	})
	if err != nil {
		t.Fatalf("CreateMaskedEmail failed: %v", err)
	}
	if masked.Email != "shop.abc123@fastmail.com" {
		t.Fatalf("unexpected email %q", masked.Email)
	}
	if sawCreate["state"] != "enabled" {
		t.Errorf("create payload must request enabled state, got %v", sawCreate["state"])
	}
	if sawCreate["forDomain"] != "example.com" {
		t.Errorf("forDomain not forwarded: %v", sawCreate["forDomain"])
	}
	if sawCreate["createdBy"] != "pykit" {
		t.Errorf("createdBy not stamped: %v", sawCreate["createdBy"])
	}
}

func TestCreateMaskedEmailUsesExplicitAccount(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/jmap/session", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"apiUrl": server.URL + "/jmap/api"})
	})
	mux.HandleFunc("/jmap/api", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MethodCalls [][]json.RawMessage `json:"methodCalls"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		var args struct {
			AccountID string `json:"accountId"`
		}
		json.Unmarshal(body.MethodCalls[0][1], &args)
		if args.AccountID != "acc-explicit" {
			t.Errorf("explicit account ignored, got %q", args.AccountID)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"methodResponses": []any{
				[]any{"MaskedEmail/set", map[string]any{
					"created": map[string]any{
						"new": map[string]any{"id": "me-2", "email": "x@fastmail.com"},
					},
				}, "0"},
			},
		})
	})

	client, err := NewClient("test-token", "acc-explicit", WithSessionURL(server.URL+"/jmap/session"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.CreateMaskedEmail(context.Background(), CreateRequest{}); err != nil {
		t.Fatalf("CreateMaskedEmail failed: %v", err)
	}
}

func TestCreateMaskedEmailRejection(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/jmap/session", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"apiUrl": server.URL + "/jmap/api",
			"primaryAccounts": map[string]string{
				"https://www.fastmail.com/dev/maskedemail": "acc-123",
			},
		})
	})
	mux.HandleFunc("/jmap/api", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"methodResponses": []any{
				[]any{"MaskedEmail/set", map[string]any{
					"notCreated": map[string]any{
						"new": map[string]any{"type": "overQuota"},
					},
				}, "0"},
			},
		})
	})

	client, err := NewClient("test-token", "", WithSessionURL(server.URL+"/jmap/session"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.CreateMaskedEmail(context.Background(), CreateRequest{})
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if !strings.Contains(err.Error(), "overQuota") {
		t.Fatalf("rejection detail missing: %v", err)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("", ""); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := NewClient("", "", WithDryRun(true)); err != nil {
		t.Fatalf("dry run must not require a token: %v", err)
	}
}

func TestDryRunSynthesizesAddress(t *testing.T) {
	client, err := NewClient("", "", WithDryRun(true))
	if err != nil {
		t.Fatal(err)
	}
	masked, err := client.CreateMaskedEmail(context.Background(), CreateRequest{
		ForDomain:   "example.com",
		EmailPrefix: "shop",
	})
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if masked.Email != "shop@example.com" {
		t.Fatalf("unexpected dry-run address %q", masked.Email)
	}
	if masked.State != "enabled" {
		t.Fatalf("dry-run state must be enabled, got %q", masked.State)
	}
}
