package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-minter/pkg/nft"
	"github.com/code-payments/nft-minter/pkg/solana/metaplex"
)

func TestFieldsFlag(t *testing.T) {
	var f fieldsFlag
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&f, "field", "")

	require.NoError(t, fs.Parse([]string{
		"-field", "description=Only Possible On Solana",
		"-field", "equation=a=b",
	}))
	assert.Equal(t, fieldsFlag{
		{Key: "description", Value: "Only Possible On Solana"},
		{Key: "equation", Value: "a=b"},
	}, f)
	assert.Equal(t, "description=Only Possible On Solana,equation=a=b", f.String())

	assert.Error(t, f.Set("novalue"))
	assert.Error(t, f.Set("=value"))
}

func TestParseStrategy(t *testing.T) {
	config := defaultConfig

	strategy, err := parseStrategy(config)
	require.NoError(t, err)
	assert.True(t, strategy.Equal(nft.Embedded()))

	config.Strategy = "pointer"
	strategy, err = parseStrategy(config)
	require.NoError(t, err)
	assert.True(t, strategy.Equal(nft.Pointer(metaplex.ProgramKey)))

	config.MetadataProgram = "not base58 0OIl"
	_, err = parseStrategy(config)
	assert.Error(t, err)

	config.MetadataProgram = ""
	config.Strategy = "unknown"
	_, err = parseStrategy(config)
	assert.Error(t, err)
}
