// Package server exposes the engine over HTTP with gin.
//
// Routes:
//
//	GET  /          health check
//	POST /analyze   {"product_description": "..."} -> core.Report
//
// Errors are returned as {"detail": "..."}: 400 for a missing or empty
// description, 500 when the analysis fails.
package server
