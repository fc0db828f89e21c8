// Package router is a reactive navigation engine.
//
// A Router keeps one authoritative location, read from a history.History
// backend, and exposes it and its fields (path, search, query, hash, state,
// key, href) as reactive cells. Routes declared with Add derive from the
// path whether they match and which params they extract. Merge and None
// combine routes into visibility aggregates, and HasMatches/NoMatches
// report whether any registered route matches.
//
// # Navigation
//
// Navigate and Redirect never write the location directly. They ask the
// backend to Push or Replace, and the backend's listener feeds the result
// back through the graph before the call returns. A target that matches the
// current location is dropped:
//
//	r := router.New(router.WithInitialEntry("/users/42"))
//	user := r.MustAdd("/users/:id")
//
//	user.Visible().Current()      // true
//	user.Params().Current()["id"] // "42"
//
//	r.Navigate(router.To("/users/42")) // no-op
//	user.Navigate(pathmatch.Params{"id": "7"})
//	r.Path().Current() // "/users/7"
//
// # Binding
//
// Bind links a route param to a child router's path, so a tab in the URL
// drives a nested router and the nested router's navigation updates the URL:
//
//	tabs := r.Child()
//	page := r.MustAdd("/users/:id/:tab").MustBind("tab", router.BindConfig{Router: tabs})
//
//	tabs.Navigate(router.To("/settings"))
//	r.Path().Current() // "/users/7/settings"
//
// Both directions settle in one propagation pass. The no-op rule above is
// what stops the echo.
//
// # Concurrency
//
// A Router, its routes and every router bound to it share one
// reactive.Graph and must be used from one goroutine. Backends that receive
// input from elsewhere, such as pkg/wshistory, serialize it onto that
// goroutine.
package router
