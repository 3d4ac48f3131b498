// Package postgres provides PostgreSQL implementations of the store
// interfaces. Each store accepts a store.DBTX, so the same
// implementation runs against a connection pool or a transaction.
package postgres
