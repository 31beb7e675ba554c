package memory

import (
	"testing"

	"github.com/code-payments/nft-minter/pkg/nft/record/tests"
)

func TestMintRecordMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
