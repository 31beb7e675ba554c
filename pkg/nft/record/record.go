package record

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Record struct {
	Id uint64

	FlowId uuid.UUID

	Mint            string
	Signature       string
	Strategy        string
	MetadataAddress string
	Holder          string

	Name   string
	Symbol string
	URI    string

	CreatedAt time.Time
}

func (r *Record) Validate() error {
	if r.FlowId == uuid.Nil {
		return errors.New("flow id is required")
	}

	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if len(r.Signature) == 0 {
		return errors.New("signature is required")
	}

	if len(r.Strategy) == 0 {
		return errors.New("strategy is required")
	}

	if len(r.MetadataAddress) == 0 {
		return errors.New("metadata address is required")
	}

	if len(r.Holder) == 0 {
		return errors.New("holder is required")
	}

	if len(r.Name) == 0 {
		return errors.New("name is required")
	}

	if len(r.Symbol) == 0 {
		return errors.New("symbol is required")
	}

	if len(r.URI) == 0 {
		return errors.New("uri is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		FlowId: r.FlowId,

		Mint:            r.Mint,
		Signature:       r.Signature,
		Strategy:        r.Strategy,
		MetadataAddress: r.MetadataAddress,
		Holder:          r.Holder,

		Name:   r.Name,
		Symbol: r.Symbol,
		URI:    r.URI,

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.FlowId = r.FlowId

	dst.Mint = r.Mint
	dst.Signature = r.Signature
	dst.Strategy = r.Strategy
	dst.MetadataAddress = r.MetadataAddress
	dst.Holder = r.Holder

	dst.Name = r.Name
	dst.Symbol = r.Symbol
	dst.URI = r.URI

	dst.CreatedAt = r.CreatedAt
}
