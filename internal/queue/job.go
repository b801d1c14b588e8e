package queue

import (
	"github.com/google/uuid"

	"github.com/casapulse/pulse-core/internal/rules"
)

// Job is a delayed result-execution unit. It carries everything the
// handler needs to re-run the rule's results without a database round trip
// for the home association.
type Job struct {
	// ID makes each submission a distinct sorted-set member, so two
	// otherwise identical resends scheduled for different times both fire.
	ID string `json:"id"`

	RuleID       string         `json:"ruleId"`
	RuleName     string         `json:"ruleName"`
	HomeUniqueID string         `json:"homeUniqueId"`
	Results      []rules.Result `json:"results"`
	UserID       string         `json:"userId"`
	HomeID       string         `json:"homeId"`
}

// NewJob builds a Job with a fresh identity for the given rule and results.
func NewJob(rule *rules.Rule, homeUID string, results []rules.Result) Job {
	return Job{
		ID:           uuid.NewString(),
		RuleID:       rule.ID,
		RuleName:     rule.Name,
		HomeUniqueID: homeUID,
		Results:      results,
		UserID:       rule.UserID,
		HomeID:       rule.HomeID,
	}
}
