package statecache

import "fmt"

// Cache key builders. The key schema is shared with the delayed queue
// package, which owns queue:delayed.
func keyHomeDevices(homeUID string) string {
	return fmt.Sprintf("home:%s:devices", homeUID)
}

func keyHomeOrg(homeUID string) string {
	return fmt.Sprintf("home:%s:org", homeUID)
}

func keyHomeID(homeUID string) string {
	return fmt.Sprintf("home:%s:id", homeUID)
}

func keyDeviceLast(deviceID string) string {
	return fmt.Sprintf("device:%s:last", deviceID)
}

func keyRuleExecuted(ruleID string) string {
	return fmt.Sprintf("rule:%s:executed", ruleID)
}

func keyRuleLastExecution(ruleID string) string {
	return fmt.Sprintf("rule:%s:last_execution", ruleID)
}
