package mcp_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperengineering/loginsync/internal/logins"
	"github.com/hyperengineering/loginsync/internal/store"
	loginsmcp "github.com/hyperengineering/loginsync/mcp"
)

func newTestServer(t *testing.T) (*loginsmcp.Server, *store.LoginDB) {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open() returned error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return loginsmcp.NewServer(db), db
}

func TestTool_Add_CreatesLogin(t *testing.T) {
	server, db := newTestServer(t)

	result, err := server.CallTool(context.Background(), "logins_add", map[string]any{
		"hostname":        "https://example.com",
		"username":        "alice",
		"password":        "hunter2",
		"form_submit_url": "https://example.com/login",
	})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("CallTool() returned error result: %s", result.Content)
	}

	all, err := db.GetAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one login after add, got %d", len(all))
	}
}

func TestTool_Add_RejectsInvalidLogin(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.CallTool(context.Background(), "logins_add", map[string]any{
		"hostname": "https://example.com",
		"username": "alice",
		// no password, no http_realm/form_submit_url
	})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for invalid login")
	}
}

func TestTool_Get_RoundTrips(t *testing.T) {
	server, db := newTestServer(t)
	added, err := db.Add(logins.Login{
		Hostname: "https://example.com", Username: "alice", Password: "p",
		FormSubmitURL: "https://example.com/login",
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := server.CallTool(context.Background(), "logins_get", map[string]any{"id": added.ID})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("CallTool() returned error result: %s", result.Content)
	}

	var got logins.Login
	if err := json.Unmarshal([]byte(result.Content), &got); err != nil {
		t.Fatalf("failed to unmarshal tool result: %v", err)
	}
	if got.ID != added.ID || got.Username != "alice" {
		t.Errorf("expected round-trip of added login, got %+v", got)
	}
}

func TestTool_Get_MissingID(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.CallTool(context.Background(), "logins_get", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result when id is missing")
	}
}

func TestTool_Delete_ReportsExisted(t *testing.T) {
	server, db := newTestServer(t)
	added, err := db.Add(logins.Login{
		Hostname: "https://example.com", Username: "alice", Password: "p",
		FormSubmitURL: "https://example.com/login",
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := server.CallTool(context.Background(), "logins_delete", map[string]any{"id": added.ID})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !strings.Contains(result.Content, "existed: true") {
		t.Errorf("expected first delete to report existed: true, got %s", result.Content)
	}

	result, err = server.CallTool(context.Background(), "logins_delete", map[string]any{"id": added.ID})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !strings.Contains(result.Content, "existed: false") {
		t.Errorf("expected second delete to report existed: false, got %s", result.Content)
	}
}

func TestTool_Touch_Succeeds(t *testing.T) {
	server, db := newTestServer(t)
	added, err := db.Add(logins.Login{
		Hostname: "https://example.com", Username: "alice", Password: "p",
		FormSubmitURL: "https://example.com/login",
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := server.CallTool(context.Background(), "logins_touch", map[string]any{"id": added.ID})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("CallTool() returned error result: %s", result.Content)
	}
}

func TestTool_List_ReturnsAllVisibleLogins(t *testing.T) {
	server, db := newTestServer(t)
	for _, u := range []string{"a", "b"} {
		if _, err := db.Add(logins.Login{
			Hostname: "https://example.com", Username: u, Password: "p",
			FormSubmitURL: "https://example.com/login",
		}); err != nil {
			t.Fatal(err)
		}
	}

	result, err := server.CallTool(context.Background(), "logins_list", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("CallTool() returned error result: %s", result.Content)
	}

	var got []logins.Login
	if err := json.Unmarshal([]byte(result.Content), &got); err != nil {
		t.Fatalf("failed to unmarshal tool result: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 logins, got %d", len(got))
	}
}

func TestTool_UnknownName(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.CallTool(context.Background(), "logins_nonexistent", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool() returned error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for unknown tool")
	}
}

func TestListTools_IncludesAllRegisteredTools(t *testing.T) {
	server, _ := newTestServer(t)
	tools := server.ListTools()

	want := []string{"logins_add", "logins_update", "logins_touch", "logins_delete", "logins_get", "logins_list"}
	for _, name := range want {
		found := false
		for _, tool := range tools {
			if tool.Name == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s not found in registered tools", name)
		}
	}
}
