// Package diagnostic collects structured errors, warnings and notes produced
// while translating a saved schema batch against the running program.
package diagnostic
