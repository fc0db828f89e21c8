// Package errors provides coded, actionable error messages for the waypoint
// CLI.
//
// Every error raised while loading a route-tree config, parsing or running
// a navigation script, or handling command-line input carries a code that
// maps to a short message, a longer explanation and a documentation URL.
// Errors tied to an input file carry its location and the lines around it.
//
// # Error Categories
//
//   - config: route-tree configuration errors
//   - pattern: pattern parse and compile errors from the match command
//   - script: navigation script errors and failed expectations
//   - serve: HTTP/WebSocket server errors
//   - cli: argument and file errors
//
// # Usage
//
//	err := errors.New(errors.CodeScriptExpectation).
//	    WithLocation("flows/tabs.nav", 4, 0).
//	    WithDetailf("route %q is hidden, expected visible", "settings")
//
//	fmt.Println(err.Format())
//	// ERROR W124: Expectation failed
//	//
//	//   flows/tabs.nav:4
//	//
//	//        2 │ on tabs navigate /settings
//	//        3 │ print
//	//   →    4 │ expect settings visible
//	//
//	//   route "settings" is hidden, expected visible
//	//
//	//   Learn more: https://waypoint.dev/docs/errors/W124
package errors
