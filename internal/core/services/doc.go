// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters): the ingestion pipeline and its
// scheduler, the read-only tool registry and the conversational agent.
package services
