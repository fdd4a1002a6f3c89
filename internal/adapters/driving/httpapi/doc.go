// Package httpapi exposes the answering service over HTTP.
//
// Routes:
//   - POST /hackrx/run: answer questions about one document (bearer auth)
//   - GET /health: liveness and the models in use
//
// Errors are returned as {"detail": "..."} with 401, 422 or 500.
package httpapi
