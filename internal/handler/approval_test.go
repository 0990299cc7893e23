package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/tbnobed/obview/internal/model"
	"github.com/tbnobed/obview/internal/testsupport"
)

func TestApprovalSubmitAndStanding(t *testing.T) {
	e := newEnv(t)
	owner, member, project := e.seedProject(t)
	file := testsupport.CreateFile(t, e.db, project.ID, owner.ID, "cut01.mp4")

	submit := func(u *model.User, status, feedback string) model.Approval {
		rec := e.call(e.approvals.Submit, jsonReq(http.MethodPost, map[string]any{
			"status":   status,
			"feedback": feedback,
		}), u, "id", fmt.Sprint(file.ID))
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit %q failed: %d (%s)", status, rec.Code, rec.Body.String())
		}
		var a model.Approval
		decodeJSON(t, rec, &a)
		return a
	}

	submit(&member, "requested_changes", "logo is cropped")
	submit(&owner, "approved", "")
	// A changed mind appends; it does not rewrite history.
	submit(&member, "Approved", "fixed, thanks")

	rec := e.call(e.approvals.List, jsonReq(http.MethodGet, nil), &owner, "id", fmt.Sprint(file.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: %d", rec.Code)
	}
	var log struct {
		Items []model.Approval `json:"items"`
	}
	decodeJSON(t, rec, &log)
	if len(log.Items) != 3 {
		t.Fatalf("expected full log of 3, got %d", len(log.Items))
	}
	if log.Items[0].Status != model.ApprovalRequestedChanges || log.Items[2].Feedback != "fixed, thanks" {
		t.Fatalf("log out of order: %+v", log.Items)
	}

	rec = e.call(e.approvals.Latest, jsonReq(http.MethodGet, nil), &owner, "id", fmt.Sprint(file.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("latest failed: %d", rec.Code)
	}
	var standing struct {
		Items []model.Approval `json:"items"`
	}
	decodeJSON(t, rec, &standing)
	if len(standing.Items) != 2 {
		t.Fatalf("expected one standing per reviewer, got %d", len(standing.Items))
	}
	for _, a := range standing.Items {
		if a.Status != model.ApprovalApproved {
			t.Fatalf("expected both standings approved, got %+v", a)
		}
	}

	if n := testsupport.Count(t, e.db, "SELECT COUNT(*) FROM activity_log WHERE action='request_changes'"); n != 1 {
		t.Fatalf("expected 1 request_changes entry, got %d", n)
	}
	if n := testsupport.Count(t, e.db, "SELECT COUNT(*) FROM activity_log WHERE action='approve'"); n != 2 {
		t.Fatalf("expected 2 approve entries, got %d", n)
	}
}

func TestApprovalSubmitValidation(t *testing.T) {
	e := newEnv(t)
	owner, member, project := e.seedProject(t)
	file := testsupport.CreateFile(t, e.db, project.ID, owner.ID, "cut01.mp4")

	for _, status := range []string{"", "maybe", "rejected"} {
		rec := e.call(e.approvals.Submit, jsonReq(http.MethodPost, map[string]any{"status": status}), &member, "id", fmt.Sprint(file.ID))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %q: expected 400, got %d", status, rec.Code)
		}
	}
}

func TestApprovalOutsiderForbidden(t *testing.T) {
	e := newEnv(t)
	owner, _, project := e.seedProject(t)
	stranger := testsupport.CreateUser(t, e.db, "stranger", "editor")
	file := testsupport.CreateFile(t, e.db, project.ID, owner.ID, "cut01.mp4")

	rec := e.call(e.approvals.Submit, jsonReq(http.MethodPost, map[string]any{"status": "approved"}), &stranger, "id", fmt.Sprint(file.ID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 submitting, got %d", rec.Code)
	}
	rec = e.call(e.approvals.Latest, jsonReq(http.MethodGet, nil), &stranger, "id", fmt.Sprint(file.ID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 reading, got %d", rec.Code)
	}
}
