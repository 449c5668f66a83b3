package token

// Mainnet mints
const (
	MintWrappedSOL = "So11111111111111111111111111111111111111112"
	MintUSDC       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintRAY        = "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"
	MintORCA       = "orcaEKTdK7LKz57vaAYr9QeNsVEPfiu6QeMU1kektZE"
	MintSRM        = "SRMuApVNdxXokk5GT7XD5cUUgXMBCoAz2LHeuAoKWRt"
	MintMSOL       = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
	MintBONK       = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

// DefaultRegistry returns a registry with the common Solana tokens.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(New("SOL", "Solana", MintWrappedSOL, 9, "solana"))
	r.Register(New("USDC", "USD Coin", MintUSDC, 6, "usd-coin"))
	r.Register(New("USDT", "Tether USD", MintUSDT, 6, "tether"))
	r.Register(New("RAY", "Raydium", MintRAY, 6, "raydium"))
	r.Register(New("ORCA", "Orca", MintORCA, 6, "orca"))
	r.Register(New("SRM", "Serum", MintSRM, 6, "serum"))
	r.Register(New("MSOL", "Marinade staked SOL", MintMSOL, 9, "msol"))
	r.Register(New("BONK", "Bonk", MintBONK, 5, "bonk"))
	return r
}
