package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/nft/record"
)

func RunTests(t *testing.T, s record.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s record.Store){
		testRoundTrip,
		testGetAllByHolder,
		testValidation,
	} {
		tf(t, s)
		teardown()
	}
}

func newRecord(mint, holder string) *record.Record {
	return &record.Record{
		FlowId:          uuid.New(),
		Mint:            mint,
		Signature:       fmt.Sprintf("sig_%s", mint),
		Strategy:        "embedded",
		MetadataAddress: mint,
		Holder:          holder,
		Name:            "Cat NFT",
		Symbol:          "EMB",
		URI:             "https://example.com/cat.json",
		CreatedAt:       time.Now(),
	}
}

func testRoundTrip(t *testing.T, s record.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		actual, err := s.GetByMint(ctx, "mint")
		require.Error(t, err)
		assert.Equal(t, record.ErrNotFound, err)
		assert.Nil(t, actual)

		expected := newRecord("mint", "holder")
		cloned := expected.Clone()
		require.NoError(t, s.Save(ctx, expected))
		assert.EqualValues(t, 1, expected.Id)

		assert.Equal(t, record.ErrExists, s.Save(ctx, newRecord("mint", "other")))

		actual, err = s.GetByMint(ctx, "mint")
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
		assert.EqualValues(t, 1, actual.Id)
	})
}

func testGetAllByHolder(t *testing.T, s record.Store) {
	t.Run("testGetAllByHolder", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByHolder(ctx, "holder")
		assert.Equal(t, record.ErrNotFound, err)

		var expected []*record.Record
		for i := 0; i < 3; i++ {
			r := newRecord(fmt.Sprintf("mint%d", i), "holder")
			r.Strategy = "pointer"
			require.NoError(t, s.Save(ctx, r))
			expected = append(expected, r)
		}
		require.NoError(t, s.Save(ctx, newRecord("other_mint", "other_holder")))

		actual, err := s.GetAllByHolder(ctx, "holder")
		require.NoError(t, err)
		require.Len(t, actual, len(expected))
		for i := range expected {
			assertEquivalentRecords(t, expected[i], actual[i])
		}

		actual, err = s.GetAllByHolder(ctx, "other_holder")
		require.NoError(t, err)
		require.Len(t, actual, 1)
		assert.Equal(t, "other_mint", actual[0].Mint)
	})
}

func testValidation(t *testing.T, s record.Store) {
	t.Run("testValidation", func(t *testing.T) {
		ctx := context.Background()

		invalid := newRecord("mint", "holder")
		invalid.FlowId = uuid.Nil
		assert.Error(t, s.Save(ctx, invalid))

		invalid = newRecord("", "holder")
		assert.Error(t, s.Save(ctx, invalid))

		invalid = newRecord("mint", "holder")
		invalid.URI = ""
		assert.Error(t, s.Save(ctx, invalid))

		_, err := s.GetByMint(ctx, "mint")
		assert.Equal(t, record.ErrNotFound, err)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *record.Record) {
	assert.Equal(t, obj1.FlowId, obj2.FlowId)
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.Signature, obj2.Signature)
	assert.Equal(t, obj1.Strategy, obj2.Strategy)
	assert.Equal(t, obj1.MetadataAddress, obj2.MetadataAddress)
	assert.Equal(t, obj1.Holder, obj2.Holder)
	assert.Equal(t, obj1.Name, obj2.Name)
	assert.Equal(t, obj1.Symbol, obj2.Symbol)
	assert.Equal(t, obj1.URI, obj2.URI)
	assert.Equal(t, obj1.CreatedAt.Unix(), obj2.CreatedAt.Unix())
}
