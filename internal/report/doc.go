// Package report turns a loaded results.ResultSet into the reporter's artifacts.
//
// Build projects the result set once per sink (ConsoleLimits, JSONLimits) so the
// console summary, summary.json and summary.xlsx share the same rankings, clean
// rate and peak hour logic.
package report
