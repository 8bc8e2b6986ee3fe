// Package integration contains the External Sync bounded context.
// This context mirrors local financial facts into external accounting platforms.
//
// Key concepts:
//   - AccountingPlatform: Port interface for pushing customers, invoices and expenses
//   - PlatformRegistry: The set of platform adapters available to the bridge
//   - SyncRecord: Side-table entity mapping a local entity to its external counterpart
//   - PushResult: Outcome of a single push (Ok, Skipped or Failed)
//
// The local store is always authoritative. Nothing in this context is allowed
// to fail a local write.
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
