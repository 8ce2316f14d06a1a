package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements create the ABI tables. Each statement is idempotent. The
// schema placeholder is substituted with a quoted identifier.
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS {{schema}}`,
	`CREATE TABLE IF NOT EXISTS {{schema}}.contract_abis (
		id             UUID PRIMARY KEY,
		source_name    TEXT NOT NULL,
		digest         TEXT NOT NULL DEFAULT '',
		functions      JSONB NOT NULL DEFAULT '[]'::jsonb,
		private_names  TEXT[] NOT NULL DEFAULT '{}',
		failures       JSONB NOT NULL DEFAULT '[]'::jsonb,
		function_count INTEGER NOT NULL DEFAULT 0 CHECK (function_count >= 0),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contract_abis_digest ON {{schema}}.contract_abis (digest)`,
	`CREATE INDEX IF NOT EXISTS idx_contract_abis_source_name ON {{schema}}.contract_abis (source_name, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS {{schema}}.abi_functions (
		abi_id      UUID NOT NULL REFERENCES {{schema}}.contract_abis (id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		name        TEXT NOT NULL,
		fn_type     TEXT NOT NULL CHECK (fn_type IN ('INIT', 'READ', 'WRITE', 'PAYABLE', 'PRIVATE', 'UNKNOWN')),
		return_type TEXT NOT NULL DEFAULT '',
		params      JSONB NOT NULL DEFAULT '[]'::jsonb,
		selector    TEXT,
		PRIMARY KEY (abi_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_abi_functions_name ON {{schema}}.abi_functions (name)`,
	`CREATE INDEX IF NOT EXISTS idx_abi_functions_selector ON {{schema}}.abi_functions (selector) WHERE selector IS NOT NULL`,
}

// SchemaStatements renders the DDL for the given schema.
func SchemaStatements(schema string) []string {
	quoted := pgx.Identifier{schema}.Sanitize()
	statements := make([]string, len(schemaStatements))
	for i, stmt := range schemaStatements {
		statements[i] = strings.ReplaceAll(stmt, "{{schema}}", quoted)
	}
	return statements
}

// Migrate creates the schema and tables inside one transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if schema == "" {
		return fmt.Errorf("migrate: %w", ErrInvalidArgument)
	}

	return NewTransactionManager(pool).WithTransaction(ctx, func(txCtx context.Context) error {
		qi := GetQueryInterface(txCtx, pool)
		for _, stmt := range SchemaStatements(schema) {
			if _, err := qi.Exec(txCtx, stmt); err != nil {
				return WrapError(err, "migrate schema "+schema)
			}
		}
		return nil
	})
}
