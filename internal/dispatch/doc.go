// Package dispatch executes the results of a fired rule.
//
// COMMAND results resolve the target device's home association and publish
// a device-command event onto the bus for the field gateway to act on.
// NOTIFICATION results emit a rule-notification event for a downstream
// renderer; a positive resend_after additionally schedules a delayed
// repeat through the durable queue. Results are isolated from each other:
// one failing result never stops its siblings, though the rule's dispatch
// as a whole reports failure so the execution is not recorded and a later
// reading can retry.
//
// The dispatcher is also the delayed-queue handler. When a scheduled
// resend fires it reloads the rule and re-checks the active flag, so jobs
// for since-deactivated rules complete as no-ops.
package dispatch
