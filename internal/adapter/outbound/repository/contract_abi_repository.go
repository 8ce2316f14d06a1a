package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"contractabi/internal/domain/entity"
	domain "contractabi/internal/domain/errors/domain"
	"contractabi/internal/domain/valueobject"
	"contractabi/internal/port/outbound"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultListLimit applies when a query leaves the limit unset.
const defaultListLimit = 50

const abiSelectColumns = `SELECT id, source_name, digest, functions, private_names, failures, created_at`

// PostgreSQLABIRepository implements outbound.ContractABIRepository.
//
// The document row in contract_abis holds the full ABI as JSONB so a restore
// reproduces the exact function order. abi_functions holds one row per
// exported function and is written in the same transaction, for lookups by
// name or selector from SQL.
type PostgreSQLABIRepository struct {
	pool   *pgxpool.Pool
	tx     *TransactionManager
	hasher selectorFunc
}

type selectorFunc func(signature string) string

// NewPostgreSQLABIRepository creates a new PostgreSQL ABI repository. The
// hasher is optional; without it abi_functions.selector stays NULL.
func NewPostgreSQLABIRepository(pool *pgxpool.Pool, hasher outbound.SignatureHasher) *PostgreSQLABIRepository {
	repo := &PostgreSQLABIRepository{
		pool: pool,
		tx:   NewTransactionManager(pool),
	}
	if hasher != nil {
		repo.hasher = hasher.Selector
	}
	return repo
}

// abiRecord is the column form of a ContractABI.
type abiRecord struct {
	id           uuid.UUID
	sourceName   string
	digest       string
	functions    []byte
	privateNames []string
	failures     []byte
	createdAt    time.Time
}

func toRecord(abi *entity.ContractABI) (abiRecord, error) {
	functions, err := abi.CanonicalJSON()
	if err != nil {
		return abiRecord{}, fmt.Errorf("encode functions: %w", err)
	}

	failures := abi.Failures()
	if failures == nil {
		failures = []*domain.DeclarationError{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return abiRecord{}, fmt.Errorf("encode failures: %w", err)
	}

	privateNames := abi.PrivateNames()
	if privateNames == nil {
		privateNames = []string{}
	}

	return abiRecord{
		id:           abi.ID(),
		sourceName:   abi.SourceName(),
		digest:       abi.Digest(),
		functions:    functions,
		privateNames: privateNames,
		failures:     failuresJSON,
		createdAt:    abi.CreatedAt(),
	}, nil
}

func (rec abiRecord) toEntity() (*entity.ContractABI, error) {
	var functions []valueobject.ContractFunction
	if err := json.Unmarshal(rec.functions, &functions); err != nil {
		return nil, fmt.Errorf("decode functions of ABI %s: %w", rec.id, err)
	}

	var failures []*domain.DeclarationError
	if len(rec.failures) > 0 {
		if err := json.Unmarshal(rec.failures, &failures); err != nil {
			return nil, fmt.Errorf("decode failures of ABI %s: %w", rec.id, err)
		}
	}

	return entity.RestoreContractABI(
		rec.id,
		rec.sourceName,
		functions,
		rec.privateNames,
		failures,
		rec.digest,
		rec.createdAt,
	), nil
}

// Save stores the ABI document and its function rows atomically.
func (r *PostgreSQLABIRepository) Save(ctx context.Context, abi *entity.ContractABI) error {
	if abi == nil {
		return ErrInvalidArgument
	}

	rec, err := toRecord(abi)
	if err != nil {
		return err
	}

	return r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		qi := GetQueryInterface(txCtx, r.pool)

		_, err := qi.Exec(txCtx, `
			INSERT INTO contract_abis (
				id, source_name, digest, functions, private_names, failures,
				function_count, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.id,
			rec.sourceName,
			rec.digest,
			rec.functions,
			rec.privateNames,
			rec.failures,
			abi.FunctionCount(),
			rec.createdAt,
		)
		if err != nil {
			return WrapError(err, "save contract ABI")
		}

		for position, fn := range abi.Functions() {
			params, err := json.Marshal(fn.Params())
			if err != nil {
				return fmt.Errorf("encode params of %s: %w", fn.Name(), err)
			}

			var selector *string
			if r.hasher != nil {
				s := r.hasher(fn.CanonicalSignature())
				selector = &s
			}

			_, err = qi.Exec(txCtx, `
				INSERT INTO abi_functions (
					abi_id, position, name, fn_type, return_type, params, selector
				) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				rec.id,
				position,
				fn.Name(),
				fn.FnType().String(),
				fn.ReturnType(),
				params,
				selector,
			)
			if err != nil {
				return WrapError(err, "save ABI function "+fn.Name())
			}
		}

		return nil
	})
}

// FindByID finds an ABI by its ID.
func (r *PostgreSQLABIRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ContractABI, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidArgument
	}

	query := abiSelectColumns + ` FROM contract_abis WHERE id = $1`
	return r.findOne(ctx, "find contract ABI by ID", query, id)
}

// FindByDigest returns the most recently stored ABI with the given digest.
func (r *PostgreSQLABIRepository) FindByDigest(ctx context.Context, digest string) (*entity.ContractABI, error) {
	if digest == "" {
		return nil, ErrInvalidArgument
	}

	query := abiSelectColumns + ` FROM contract_abis WHERE digest = $1 ORDER BY created_at DESC LIMIT 1`
	return r.findOne(ctx, "find contract ABI by digest", query, digest)
}

func (r *PostgreSQLABIRepository) findOne(
	ctx context.Context,
	operation string,
	query string,
	arg any,
) (*entity.ContractABI, error) {
	qi := GetQueryInterface(ctx, r.pool)

	var rec abiRecord
	err := qi.QueryRow(ctx, query, arg).Scan(
		&rec.id, &rec.sourceName, &rec.digest, &rec.functions,
		&rec.privateNames, &rec.failures, &rec.createdAt,
	)
	if err != nil {
		return nil, WrapError(err, operation)
	}

	return rec.toEntity()
}

func validateABIFilters(filters outbound.ContractABIFilters) error {
	if filters.Limit < 0 || filters.Offset < 0 {
		return ErrInvalidArgument
	}
	return nil
}

func buildABIWhereClause(filters outbound.ContractABIFilters) (string, []any) {
	if filters.SourceName == "" {
		return "", nil
	}
	return " WHERE source_name = $1", []any{filters.SourceName}
}

// FindAll lists stored ABIs, newest first, with the total matching count.
func (r *PostgreSQLABIRepository) FindAll(
	ctx context.Context,
	filters outbound.ContractABIFilters,
) ([]*entity.ContractABI, int, error) {
	if err := validateABIFilters(filters); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	whereClause, args := buildABIWhereClause(filters)
	qi := GetQueryInterface(ctx, r.pool)

	totalCount, rows, err := executeCountAndDataQuery(
		ctx, qi, "FROM contract_abis", abiSelectColumns, whereClause,
		"ORDER BY created_at DESC, id", args, limit, filters.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	if rows == nil {
		return []*entity.ContractABI{}, totalCount, nil
	}
	defer rows.Close()

	abis := []*entity.ContractABI{}
	for rows.Next() {
		var rec abiRecord
		if scanErr := rows.Scan(
			&rec.id, &rec.sourceName, &rec.digest, &rec.functions,
			&rec.privateNames, &rec.failures, &rec.createdAt,
		); scanErr != nil {
			return nil, 0, WrapError(scanErr, "scan contract ABI row")
		}

		abi, decodeErr := rec.toEntity()
		if decodeErr != nil {
			return nil, 0, decodeErr
		}
		abis = append(abis, abi)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, WrapError(rowsErr, "iterate contract ABI rows")
	}

	return abis, totalCount, nil
}

// Delete removes an ABI and, through the foreign key, its function rows.
func (r *PostgreSQLABIRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrInvalidArgument
	}

	qi := GetQueryInterface(ctx, r.pool)
	tag, err := qi.Exec(ctx, `DELETE FROM contract_abis WHERE id = $1`, id)
	if err != nil {
		return WrapError(err, "delete contract ABI")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete contract ABI %s: %w", id, ErrNotFound)
	}

	return nil
}
