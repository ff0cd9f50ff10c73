package services

import (
	"fmt"
	"strings"

	"github.com/acadhub/committees/internal/models"
)

// Panel composition rules. A titular member counts whether or not the
// invitation was confirmed; confirmation is tracked but never gates
// composition.
const (
	minTitularMembers  = 3
	maxTitularMembers  = 5
	minExternalMembers = 1
)

type CompositionViolation string

const (
	TooFewTitularMembers  CompositionViolation = "TOO_FEW_TITULAR_MEMBERS"
	TooManyTitularMembers CompositionViolation = "TOO_MANY_TITULAR_MEMBERS"
	NoExternalMember      CompositionViolation = "NO_EXTERNAL_MEMBER"
)

// CompositionReport is the outcome of evaluating a session's member set
// against the panel rules.
type CompositionReport struct {
	TitularCount  int                    `json:"titular_count"`
	ExternalCount int                    `json:"external_count"`
	Violations    []CompositionViolation `json:"violations,omitempty"`
}

func (r CompositionReport) Valid() bool { return len(r.Violations) == 0 }

// EvaluateComposition checks the member set: titular count must sit in
// [minTitularMembers, maxTitularMembers] and at least one member must be
// external.
func EvaluateComposition(members []models.CommitteeMember) CompositionReport {
	var report CompositionReport
	for i := range members {
		if members[i].IsTitular() {
			report.TitularCount++
		}
		if members[i].IsExternal() {
			report.ExternalCount++
		}
	}

	if report.TitularCount < minTitularMembers {
		report.Violations = append(report.Violations, TooFewTitularMembers)
	}
	if report.TitularCount > maxTitularMembers {
		report.Violations = append(report.Violations, TooManyTitularMembers)
	}
	if report.ExternalCount < minExternalMembers {
		report.Violations = append(report.Violations, NoExternalMember)
	}
	return report
}

// CompositionError carries the violated rules so callers can surface them.
type CompositionError struct {
	Report CompositionReport
}

func (e *CompositionError) Error() string {
	parts := make([]string, 0, len(e.Report.Violations))
	for _, v := range e.Report.Violations {
		parts = append(parts, string(v))
	}
	return fmt.Sprintf("invalid panel composition: %s (%d titular, %d external)",
		strings.Join(parts, ", "), e.Report.TitularCount, e.Report.ExternalCount)
}
