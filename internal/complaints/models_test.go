package complaints

import "testing"

func TestValidStatus(t *testing.T) {
	for _, st := range []Status{StatusCreated, StatusValidated, StatusInReview, StatusInExecution, StatusResolved, StatusRejected, StatusArchived} {
		if !ValidStatus(st) {
			t.Errorf("ValidStatus(%q) = false", st)
		}
	}
	for _, st := range []Status{"", "open", "CREATED", "done"} {
		if ValidStatus(st) {
			t.Errorf("ValidStatus(%q) = true", st)
		}
	}
}

func TestValidPriority(t *testing.T) {
	for _, p := range []Priority{"", PriorityLow, PriorityMedium, PriorityHigh} {
		if !ValidPriority(p) {
			t.Errorf("ValidPriority(%q) = false", p)
		}
	}
	if ValidPriority("urgent") {
		t.Error(`ValidPriority("urgent") = true`)
	}
}

func TestValidEvidenceType(t *testing.T) {
	for _, e := range []EvidenceType{EvidenceImage, EvidenceVideo, EvidenceDocument} {
		if !ValidEvidenceType(e) {
			t.Errorf("ValidEvidenceType(%q) = false", e)
		}
	}
	if ValidEvidenceType("audio") {
		t.Error(`ValidEvidenceType("audio") = true`)
	}
}
