// Package match ranks candidate names by edit distance. It backs the
// "did you mean" suggestions reported when a saved member or schema name
// cannot be resolved against the running program.
package match
