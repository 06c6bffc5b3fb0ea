package assignments_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/dalemusser/giftmatch/internal/app/features/assignments"
	"github.com/dalemusser/giftmatch/internal/app/pairing"
	auditstore "github.com/dalemusser/giftmatch/internal/app/store/audit"
	participantstore "github.com/dalemusser/giftmatch/internal/app/store/participants"
	"github.com/dalemusser/giftmatch/internal/testutil"
)

func newTestHandler(t *testing.T) (*assignments.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	participants := participantstore.New(db)
	audit := auditstore.New(db)
	engine := pairing.NewEngine(participants, audit, logger)
	return assignments.NewHandler(engine, participants, audit, logger), testutil.NewFixtures(t, db)
}

func TestHandleRun_Success(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreatePool(ctx, 4)
	admin := fixtures.CreateAdmin(ctx, "Organizer", "5735550140")

	req := testutil.NewAuthenticatedRequest("POST", "/api/admin/assignments/run", testutil.AsUser(admin))
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp["run_id"] == "" {
		t.Error("expected a run id")
	}
	if resp["assigned"] != float64(5) {
		t.Errorf("expected 5 assigned, got %v", resp["assigned"])
	}
}

func TestHandleRun_TooFewParticipants(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "Organizer", "5735550141")

	req := testutil.NewAuthenticatedRequest("POST", "/api/admin/assignments/run", testutil.AsUser(admin))
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServeRoster(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreatePool(ctx, 3)
	admin := fixtures.CreateAdmin(ctx, "Organizer", "5735550142")

	req := testutil.NewAuthenticatedRequest("GET", "/api/admin/participants", testutil.AsUser(admin))
	rec := httptest.NewRecorder()
	h.ServeRoster(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Count        int `json:"count"`
		Participants []struct {
			ID       string `json:"id"`
			FullName string `json:"full_name"`
			Assigned bool   `json:"assigned"`
		} `json:"participants"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Count != 4 {
		t.Errorf("expected 4 participants, got %d", resp.Count)
	}
	for _, p := range resp.Participants {
		if p.Assigned {
			t.Errorf("expected no assignments before a run: %+v", p)
		}
	}
}

func TestServeActivity_AfterRun(t *testing.T) {
	h, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreatePool(ctx, 3)
	admin := fixtures.CreateAdmin(ctx, "Organizer", "5735550143")

	req := testutil.NewAuthenticatedRequest("POST", "/api/admin/assignments/run", testutil.AsUser(admin))
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = testutil.NewAuthenticatedRequest("GET", "/api/admin/activity", testutil.AsUser(admin))
	rec = httptest.NewRecorder()
	h.ServeActivity(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Events []struct {
			Kind  string `json:"kind"`
			RunID string `json:"run_id"`
		} `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(resp.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(resp.Events))
	}
	if resp.Events[0].Kind != "assignment_run" || resp.Events[0].RunID == "" {
		t.Errorf("expected an assignment_run event, got %+v", resp.Events[0])
	}
}
