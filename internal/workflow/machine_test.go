package workflow

import (
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func validPayload(f Family) Payload {
	switch f {
	case FamilySubject:
		return Payload{"title": "AI Chatbot", "company": "Acme"}
	case FamilyReport:
		return Payload{"fileUrl": "https://github.com/x/y"}
	default:
		return Payload{"subjectId": "sub-1", "preferredDate": "2026-06-20"}
	}
}

func mustNew(t *testing.T, f Family) Entity {
	t.Helper()
	e, err := New("e-1", f, "student-1", validPayload(f), testNow)
	if err != nil {
		t.Fatalf("new %s: %v", f, err)
	}
	return e
}

func TestNewStartsInInitialStatus(t *testing.T) {
	want := map[Family]Status{
		FamilySubject: StatusSuggested,
		FamilyReport:  StatusPending,
		FamilyDefense: StatusCreated,
	}
	for f, status := range want {
		e := mustNew(t, f)
		if e.Status != status {
			t.Fatalf("%s initial status = %s, want %s", f, e.Status, status)
		}
		if !f.HasStatus(e.Status) {
			t.Fatalf("%s status %s not in family enum", f, e.Status)
		}
	}
}

func TestNewRejectsMissingFields(t *testing.T) {
	_, err := New("e-1", FamilySubject, "student-1", Payload{"title": "  "}, testNow)
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	wfErr := err.(*Error)
	if wfErr.Fields["title"] == "" || wfErr.Fields["company"] == "" {
		t.Fatalf("expected title and company listed, got %v", wfErr.Fields)
	}
}

func TestNewDoesNotAliasPayload(t *testing.T) {
	p := validPayload(FamilySubject)
	e, err := New("e-1", FamilySubject, "student-1", p, testNow)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	p["title"] = "changed"
	if e.Payload.String("title") != "AI Chatbot" {
		t.Fatalf("payload aliased caller map")
	}
}

func TestReviewApproveMovesForward(t *testing.T) {
	want := map[Family]Status{
		FamilySubject: StatusApproved,
		FamilyReport:  StatusValidated,
		FamilyDefense: StatusScheduled,
	}
	for f, status := range want {
		next, err := Review(mustNew(t, f), DecisionApprove, "", testNow)
		if err != nil {
			t.Fatalf("%s approve: %v", f, err)
		}
		if next.Status != status {
			t.Fatalf("%s approve = %s, want %s", f, next.Status, status)
		}
	}
}

func TestReviewRejectRequiresReason(t *testing.T) {
	e := mustNew(t, FamilyReport)
	_, err := Review(e, DecisionReject, "   ", testNow)
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if e.Status != StatusPending || e.Feedback != "" {
		t.Fatalf("input entity changed: %+v", e)
	}
}

func TestReviewRejectWithoutReasonFailsEvenFromLockedStatus(t *testing.T) {
	e := mustNew(t, FamilyReport)
	e.Status = StatusValidated
	_, err := Review(e, DecisionReject, "", testNow)
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReviewFromNonReviewableStatus(t *testing.T) {
	e := mustNew(t, FamilySubject)
	e.Status = StatusAssigned
	if _, err := Review(e, DecisionApprove, "", testNow); !IsKind(err, KindInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	e.Status = StatusRejected
	if _, err := Review(e, DecisionReject, "again", testNow); !IsKind(err, KindInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestReviewUnknownDecision(t *testing.T) {
	if _, err := Review(mustNew(t, FamilySubject), Decision("maybe"), "", testNow); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAcknowledgeThenReview(t *testing.T) {
	e := mustNew(t, FamilyDefense)
	pending, err := Acknowledge(e, testNow)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if pending.Status != StatusPending {
		t.Fatalf("status = %s, want pending", pending.Status)
	}
	if _, err := Acknowledge(pending, testNow); !IsKind(err, KindInvalidState) {
		t.Fatalf("second acknowledge should fail, got %v", err)
	}
	scheduled, err := Review(pending, DecisionApprove, "", testNow)
	if err != nil || scheduled.Status != StatusScheduled {
		t.Fatalf("approve from pending: %v %s", err, scheduled.Status)
	}
}

func TestAcknowledgeReportHasNoReviewStage(t *testing.T) {
	if _, err := Acknowledge(mustNew(t, FamilyReport), testNow); !IsKind(err, KindInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestRejectResubmitRoundTrip(t *testing.T) {
	for _, f := range Families {
		e := mustNew(t, f)
		rejected, err := Review(e, DecisionReject, "missing introduction", testNow)
		if err != nil {
			t.Fatalf("%s reject: %v", f, err)
		}
		if rejected.Status != StatusRejected || rejected.Feedback != "missing introduction" {
			t.Fatalf("%s rejected = %+v", f, rejected)
		}
		back, err := Resubmit(rejected, validPayload(f), testNow.Add(time.Hour))
		if err != nil {
			t.Fatalf("%s resubmit: %v", f, err)
		}
		if back.Status != f.Initial() {
			t.Fatalf("%s resubmit status = %s, want %s", f, back.Status, f.Initial())
		}
		if back.Feedback != "" {
			t.Fatalf("%s feedback not cleared", f)
		}
	}
}

func TestResubmitOnlyFromRejected(t *testing.T) {
	if _, err := Resubmit(mustNew(t, FamilySubject), validPayload(FamilySubject), testNow); !IsKind(err, KindInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestApproveClearsFeedback(t *testing.T) {
	e := mustNew(t, FamilySubject)
	e.Feedback = "stale"
	next, err := Review(e, DecisionApprove, "", testNow)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if next.Feedback != "" {
		t.Fatalf("feedback = %q, want empty", next.Feedback)
	}
}

func TestAssignSubject(t *testing.T) {
	approved, err := Review(mustNew(t, FamilySubject), DecisionApprove, "", testNow)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	once, changed, err := Assign(approved, "prof-1", testNow)
	if err != nil || !changed {
		t.Fatalf("assign: changed=%v err=%v", changed, err)
	}
	if once.Status != StatusAssigned || once.AssigneeID != "prof-1" {
		t.Fatalf("assign result = %+v", once)
	}

	twice, changed, err := Assign(once, "prof-1", testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if changed {
		t.Fatalf("same assignee reported as a change")
	}
	if !reflect.DeepEqual(twice, once) {
		t.Fatalf("second assign changed entity: %+v vs %+v", twice, once)
	}

	other, changed, err := Assign(once, "prof-2", testNow)
	if err != nil || !changed || other.AssigneeID != "prof-2" || other.Status != StatusAssigned {
		t.Fatalf("reassign: %+v changed=%v err=%v", other, changed, err)
	}
}

func TestAssignRequiresApproval(t *testing.T) {
	if _, _, err := Assign(mustNew(t, FamilySubject), "prof-1", testNow); !IsKind(err, KindInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if _, _, err := Assign(mustNew(t, FamilyReport), "prof-1", testNow); !IsKind(err, KindInvalidState) {
		t.Fatalf("reports are never assigned, got %v", err)
	}
}

func TestAssignDefenseJuryKeepsStatus(t *testing.T) {
	scheduled, err := Review(mustNew(t, FamilyDefense), DecisionApprove, "", testNow)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	next, changed, err := Assign(scheduled, "jury-1", testNow)
	if err != nil || !changed {
		t.Fatalf("assign jury: %v", err)
	}
	if next.Status != StatusScheduled {
		t.Fatalf("status = %s, want scheduled", next.Status)
	}
}

func TestAssignDefenseBeforeSchedulingFails(t *testing.T) {
	pending, err := Acknowledge(mustNew(t, FamilyDefense), testNow)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	for _, e := range []Entity{mustNew(t, FamilyDefense), pending} {
		if _, _, err := Assign(e, "jury-1", testNow); !IsKind(err, KindInvalidState) {
			t.Fatalf("assign in %s: expected invalid state, got %v", e.Status, err)
		}
	}
}

func TestResubmitStatusCheckedBeforePayload(t *testing.T) {
	_, err := Resubmit(mustNew(t, FamilySubject), Payload{"title": ""}, testNow)
	if !IsKind(err, KindInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}

	rejected, _ := Review(mustNew(t, FamilySubject), DecisionReject, "vague", testNow)
	if _, err := Resubmit(rejected, Payload{"title": ""}, testNow); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCompleteDefense(t *testing.T) {
	e := mustNew(t, FamilyDefense)
	if _, err := Complete(e, testNow); !IsKind(err, KindInvalidState) {
		t.Fatalf("complete before scheduling should fail, got %v", err)
	}
	scheduled, _ := Review(e, DecisionApprove, "", testNow)
	done, err := Complete(scheduled, testNow)
	if err != nil || done.Status != StatusCompleted {
		t.Fatalf("complete: %v %s", err, done.Status)
	}
	if _, err := Complete(mustNew(t, FamilySubject), testNow); !IsKind(err, KindInvalidState) {
		t.Fatalf("subjects cannot be completed, got %v", err)
	}
}

func TestCheckRemovable(t *testing.T) {
	locked := map[Family][]Status{
		FamilySubject: {StatusAssigned},
		FamilyReport:  {StatusValidated},
		FamilyDefense: {StatusScheduled, StatusCompleted},
	}
	for f, lockedStatuses := range locked {
		for _, s := range f.Statuses() {
			e := mustNew(t, f)
			e.Status = s
			err := CheckRemovable(e)
			if containsStatus(lockedStatuses, s) {
				if !IsKind(err, KindInvalidState) {
					t.Fatalf("%s/%s: expected invalid state, got %v", f, s, err)
				}
			} else if err != nil {
				t.Fatalf("%s/%s: unexpected error %v", f, s, err)
			}
		}
	}
}

func TestParseStatusRejectsOutOfSet(t *testing.T) {
	if _, err := FamilyReport.ParseStatus("assigned"); !IsKind(err, KindValidation) {
		t.Fatalf("assigned is not a report status, got %v", err)
	}
	s, err := FamilySubject.ParseStatus(" Approved ")
	if err != nil || s != StatusApproved {
		t.Fatalf("parse approved: %v %s", err, s)
	}
}

func TestParseFamily(t *testing.T) {
	if f, err := ParseFamily("Defense"); err != nil || f != FamilyDefense {
		t.Fatalf("parse defense: %v %s", err, f)
	}
	if _, err := ParseFamily("thesis"); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
