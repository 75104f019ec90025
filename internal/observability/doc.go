// Package observability builds the structured logger and the Prometheus
// collectors shared by the gate, the webhook endpoints and the role
// assignment endpoint.
package observability
