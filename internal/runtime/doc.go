// Package runtime provides the execution context for gitkey commands.
//
// It bundles the logger, the command runner and the credential guard that
// actions need, so they are built once per invocation.
package runtime
