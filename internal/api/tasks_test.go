package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func doTaskReq(t *testing.T, srv *httptest.Server, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rdr *strings.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	} else {
		rdr = strings.NewReader("")
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestTasks_CreateAndGet(t *testing.T) {
	srv, _ := setupTestServer(t, &stubAgent{})

	resp, body := doTaskReq(t, srv, http.MethodPost, "/api/alice/tasks", "tnk_alice_token", `{"title": "write report"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if body["title"] != "write report" || body["completed"] != false {
		t.Errorf("created = %v", body)
	}
	id := body["id"].(float64)

	resp, body = doTaskReq(t, srv, http.MethodGet, "/api/alice/tasks/1", "tnk_alice_token", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if body["id"].(float64) != id {
		t.Errorf("got id %v, want %v", body["id"], id)
	}
}

func TestTasks_CreateEmptyTitle(t *testing.T) {
	srv, _ := setupTestServer(t, &stubAgent{})

	resp, _ := doTaskReq(t, srv, http.MethodPost, "/api/alice/tasks", "tnk_alice_token", `{"title": "  "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTasks_List(t *testing.T) {
	srv, store := setupTestServer(t, &stubAgent{})
	ctx := context.Background()
	for _, title := range []string{"first", "second"} {
		if _, err := store.Create(ctx, "alice", title); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.Create(ctx, "bob", "theirs"); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/alice/tasks", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer tnk_alice_token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var tasks []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("listed %d tasks, want 2", len(tasks))
	}
	if tasks[0]["title"] != "first" {
		t.Errorf("first task = %v", tasks[0])
	}
}

func TestTasks_UpdateTitleAndCompleted(t *testing.T) {
	srv, store := setupTestServer(t, &stubAgent{})
	if _, err := store.Create(context.Background(), "alice", "draft"); err != nil {
		t.Fatal(err)
	}

	resp, body := doTaskReq(t, srv, http.MethodPut, "/api/alice/tasks/1", "tnk_alice_token", `{"title": "final", "completed": true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["title"] != "final" || body["completed"] != true {
		t.Errorf("updated = %v", body)
	}
}

func TestTasks_UpdateNothing(t *testing.T) {
	srv, store := setupTestServer(t, &stubAgent{})
	if _, err := store.Create(context.Background(), "alice", "draft"); err != nil {
		t.Fatal(err)
	}

	resp, _ := doTaskReq(t, srv, http.MethodPut, "/api/alice/tasks/1", "tnk_alice_token", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTasks_Delete(t *testing.T) {
	srv, store := setupTestServer(t, &stubAgent{})
	if _, err := store.Create(context.Background(), "alice", "gone soon"); err != nil {
		t.Fatal(err)
	}

	resp, _ := doTaskReq(t, srv, http.MethodDelete, "/api/alice/tasks/1", "tnk_alice_token", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp, _ = doTaskReq(t, srv, http.MethodDelete, "/api/alice/tasks/1", "tnk_alice_token", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestTasks_Toggle(t *testing.T) {
	srv, store := setupTestServer(t, &stubAgent{})
	if _, err := store.Create(context.Background(), "alice", "flip me"); err != nil {
		t.Fatal(err)
	}

	resp, body := doTaskReq(t, srv, http.MethodPatch, "/api/alice/tasks/1/complete", "tnk_alice_token", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["completed"] != true {
		t.Errorf("completed = %v, want true", body["completed"])
	}

	resp, body = doTaskReq(t, srv, http.MethodPatch, "/api/alice/tasks/1/complete", "tnk_alice_token", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["completed"] != false {
		t.Errorf("completed = %v, want false after second toggle", body["completed"])
	}
}

func TestTasks_NotFound(t *testing.T) {
	srv, _ := setupTestServer(t, &stubAgent{})

	resp, _ := doTaskReq(t, srv, http.MethodGet, "/api/alice/tasks/42", "tnk_alice_token", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTasks_OwnerIsolation(t *testing.T) {
	srv, store := setupTestServer(t, &stubAgent{})
	if _, err := store.Create(context.Background(), "alice", "private"); err != nil {
		t.Fatal(err)
	}

	// bob cannot read alice's task through his own scope
	resp, _ := doTaskReq(t, srv, http.MethodGet, "/api/bob/tasks/1", "tnk_bob_token00", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-owner get status = %d, want 404", resp.StatusCode)
	}

	// and bob's token cannot open alice's scope at all
	resp, _ = doTaskReq(t, srv, http.MethodGet, "/api/alice/tasks/1", "tnk_bob_token00", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("mismatched scope status = %d, want 401", resp.StatusCode)
	}
}

func TestTasks_BadTaskID(t *testing.T) {
	srv, _ := setupTestServer(t, &stubAgent{})

	for _, path := range []string{"/api/alice/tasks/abc", "/api/alice/tasks/0", "/api/alice/tasks/-3"} {
		resp, _ := doTaskReq(t, srv, http.MethodGet, path, "tnk_alice_token", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, resp.StatusCode)
		}
	}
}
