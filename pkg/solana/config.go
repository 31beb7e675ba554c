package solana

import (
	"fmt"
	"strings"
)

type Environment string

const (
	EnvironmentDev  Environment = "https://api.devnet.solana.com"
	EnvironmentTest Environment = "https://api.testnet.solana.com"
	EnvironmentProd Environment = "https://api.mainnet-beta.solana.com"
)

// Cluster returns the explorer cluster name for the environment. Unknown
// endpoints are treated as a custom cluster.
func (e Environment) Cluster() string {
	switch e {
	case EnvironmentDev:
		return "devnet"
	case EnvironmentTest:
		return "testnet"
	case EnvironmentProd:
		return "mainnet-beta"
	}
	return "custom"
}

// ExplorerURL links to the transaction on the public Solana explorer.
func ExplorerURL(sig Signature, env Environment) string {
	base := fmt.Sprintf("https://explorer.solana.com/tx/%s", sig.String())
	switch cluster := env.Cluster(); cluster {
	case "mainnet-beta":
		return base
	case "custom":
		return fmt.Sprintf("%s?cluster=custom&customUrl=%s", base, strings.TrimSuffix(string(env), "/"))
	default:
		return fmt.Sprintf("%s?cluster=%s", base, cluster)
	}
}
