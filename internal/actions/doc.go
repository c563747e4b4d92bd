// Package actions provides the git operations behind each gitkey command.
//
// Each action validates its options, then runs its git commands inside the
// credential guard of the runtime.Context:
//   - parameters are checked before any key is written or config touched
//   - every git command of one action shares a single guarded region, so a
//     push that follows a commit reuses the same key and agent
//   - multi-step actions report the steps that completed when a later one fails
package actions
