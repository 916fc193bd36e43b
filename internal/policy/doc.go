// Package policy decides who may mutate organizations, teams, projects and
// attachments, and who hears about the result.
//
// Everything here is pure: callers load the resource and the caller's own
// membership row, ask CanPerform, perform the mutation, then hand the
// resulting event to Fanout and persist the drafts themselves.
package policy
