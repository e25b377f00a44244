// Package charts renders the reporter's PNG charts with gonum/plot.
//
// Each chart is optional: RenderAll only draws charts whose input was loaded
// and turns any rendering failure, including a panic inside the plotting
// library, into a logged warning so the remaining artifacts are still written.
package charts
