// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentSource: Fetches raw records from the upstream API
//   - DocumentStore: Document and agency persistence (split into
//     DocumentReader for the serving path and DocumentWriter for ingestion)
//   - WatermarkStore: Ingestion cursor persistence
//   - RunHistoryStore: Pipeline run reports
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - InferenceProvider: Conversational model. Without it, only the
//     ingestion pipeline and the MCP tool server are available.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
