// Package giterror provides error inspection capabilities for GitHub API errors.
// It centralizes the logic for deciding whether a failed request is worth
// retrying, so the fetch layer never has to probe error strings itself.
package giterror
