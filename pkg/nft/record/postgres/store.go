package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/nft-minter/pkg/nft/record"
)

type store struct {
	db *sqlx.DB
}

func New(db *sql.DB) record.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements record.Store.Save
func (s *store) Save(ctx context.Context, r *record.Record) error {
	m, err := toModel(r)
	if err != nil {
		return err
	}

	err = m.dbSave(ctx, s.db)
	if err != nil {
		return err
	}

	res := fromModel(m)
	res.CopyTo(r)

	return nil
}

// GetByMint implements record.Store.GetByMint
func (s *store) GetByMint(ctx context.Context, mint string) (*record.Record, error) {
	m, err := dbGetByMint(ctx, s.db, mint)
	if err != nil {
		return nil, err
	}
	return fromModel(m), nil
}

// GetAllByHolder implements record.Store.GetAllByHolder
func (s *store) GetAllByHolder(ctx context.Context, holder string) ([]*record.Record, error) {
	models, err := dbGetAllByHolder(ctx, s.db, holder)
	if err != nil {
		return nil, err
	}

	res := make([]*record.Record, len(models))
	for i, m := range models {
		res[i] = fromModel(m)
	}
	return res, nil
}
