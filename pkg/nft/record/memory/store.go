package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/nft-minter/pkg/nft/record"
)

type store struct {
	mu      sync.Mutex
	records []*record.Record
	last    uint64
}

func New() record.Store {
	return &store{
		records: make([]*record.Record, 0),
		last:    0,
	}
}

func (s *store) reset() {
	s.mu.Lock()
	s.records = make([]*record.Record, 0)
	s.last = 0
	s.mu.Unlock()
}

// Save implements record.Store.Save
func (s *store) Save(_ context.Context, data *record.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByMint(data.Mint); item != nil {
		return record.ErrExists
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	c := data.Clone()
	s.records = append(s.records, &c)

	return nil
}

// GetByMint implements record.Store.GetByMint
func (s *store) GetByMint(_ context.Context, mint string) (*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByMint(mint)
	if item == nil {
		return nil, record.ErrNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllByHolder implements record.Store.GetAllByHolder
func (s *store) GetAllByHolder(_ context.Context, holder string) ([]*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*record.Record
	for _, item := range s.records {
		if item.Holder == holder {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}

	if len(res) == 0 {
		return nil, record.ErrNotFound
	}
	return res, nil
}

func (s *store) findByMint(mint string) *record.Record {
	for _, item := range s.records {
		if item.Mint == mint {
			return item
		}
	}
	return nil
}
