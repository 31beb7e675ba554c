package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	pgutil "github.com/code-payments/nft-minter/pkg/database/postgres"
	"github.com/code-payments/nft-minter/pkg/nft/record"
)

const (
	tableName = "nftminter__core_mint"

	allColumns = `id, flow_id, mint, signature, strategy, metadata_address, holder, name, symbol, uri, created_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	FlowId uuid.UUID `db:"flow_id"`

	Mint            string `db:"mint"`
	Signature       string `db:"signature"`
	Strategy        string `db:"strategy"`
	MetadataAddress string `db:"metadata_address"`
	Holder          string `db:"holder"`

	Name   string `db:"name"`
	Symbol string `db:"symbol"`
	URI    string `db:"uri"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *record.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = time.Now().UTC()
	}

	return &model{
		FlowId:          obj.FlowId,
		Mint:            obj.Mint,
		Signature:       obj.Signature,
		Strategy:        obj.Strategy,
		MetadataAddress: obj.MetadataAddress,
		Holder:          obj.Holder,
		Name:            obj.Name,
		Symbol:          obj.Symbol,
		URI:             obj.URI,
		CreatedAt:       obj.CreatedAt,
	}, nil
}

func fromModel(obj *model) *record.Record {
	return &record.Record{
		Id:              uint64(obj.Id.Int64),
		FlowId:          obj.FlowId,
		Mint:            obj.Mint,
		Signature:       obj.Signature,
		Strategy:        obj.Strategy,
		MetadataAddress: obj.MetadataAddress,
		Holder:          obj.Holder,
		Name:            obj.Name,
		Symbol:          obj.Symbol,
		URI:             obj.URI,
		CreatedAt:       obj.CreatedAt,
	}
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(flow_id, mint, signature, strategy, metadata_address, holder, name, symbol, uri, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.FlowId,
			m.Mint,
			m.Signature,
			m.Strategy,
			m.MetadataAddress,
			m.Holder,
			m.Name,
			m.Symbol,
			m.URI,
			m.CreatedAt,
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, record.ErrExists)
	})
}

func dbGetByMint(ctx context.Context, db *sqlx.DB, mint string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE mint = $1`

	err := pgutil.ExecuteRetryable(func() error {
		return db.GetContext(ctx, res, query, mint)
	})
	if err != nil {
		return nil, pgutil.CheckNoRows(err, record.ErrNotFound)
	}
	return res, nil
}

func dbGetAllByHolder(ctx context.Context, db *sqlx.DB, holder string) ([]*model, error) {
	var res []*model

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE holder = $1
		ORDER BY id ASC`

	err := pgutil.ExecuteRetryable(func() error {
		return db.SelectContext(ctx, &res, query, holder)
	})
	if err != nil {
		return nil, pgutil.CheckNoRows(err, record.ErrNotFound)
	}
	if len(res) == 0 {
		return nil, record.ErrNotFound
	}
	return res, nil
}
