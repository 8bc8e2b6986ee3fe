// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: AggregateModel (id, timestamps, version) and the AutoMigrate list
// - finance.go: sale facts, expenses, customers, invoices and invoice items
// - identity.go: read-only tenant profiles
// - integration.go: the sync_records side table
//
// The PostgreSQL schema is owned by the SQL files in /migrations; AutoMigrate over
// All() is only used for SQLite (local runs and tests).
package models
