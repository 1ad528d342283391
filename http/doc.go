// Package http provides the REST binding for the shelfd book catalog.
//
// This package implements JSON handlers over chi with HTTP Basic
// authentication for protected route groups.
//
// # Features
//
//   - Book CRUD with equality filters on list
//   - Author operations including the explicit author-with-books join
//   - HTTP Basic authentication with a WWW-Authenticate challenge on failure
//   - Separate read and write route groups, each independently public or private
//   - Request-ID tagging and structured request logging
//   - JSON error responses with a stable error-kind vocabulary
//   - Configurable CORS support
//
// # Authentication
//
// Protected groups run the BasicAuth middleware in front of every handler:
// the credentials are verified against the user directory before the handler
// executes, and a failure stops the request with a 401 challenge so the
// protected operation never runs partially.
//
//	gate := shelfd.NewAuthenticator(users)
//	handlerCfg := http.HandlerConfig{
//	    Read:  http.AccessPrivate,
//	    Write: http.AccessPrivate,
//	    Realm: "shelfd",
//	}
//	handler := http.NewHandler(&handlerCfg, service, gate)
//	http.ListenAndServe(":8008", handler.Router())
//
// The service parameter must implement the Service interface; the database
// package backends combined with shelfd.NewCatalogService satisfy it.
package http
