// internal/dex/jupiter/types.go
package jupiter

// quoteResponse - ответ /quote. Суммы приходят строками.
type quoteResponse struct {
	InputMint      string      `json:"inputMint"`
	InAmount       string      `json:"inAmount"`
	OutputMint     string      `json:"outputMint"`
	OutAmount      string      `json:"outAmount"`
	SlippageBps    int         `json:"slippageBps"`
	PriceImpactPct string      `json:"priceImpactPct"`
	RoutePlan      []routeStep `json:"routePlan"`
	ContextSlot    uint64      `json:"contextSlot"`

	// Заполнены, когда маршрут не найден
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

type routeStep struct {
	Percent  int `json:"percent"`
	SwapInfo struct {
		AmmKey    string `json:"ammKey"`
		Label     string `json:"label"`
		InputMint string `json:"inputMint"`
		OutMint   string `json:"outputMint"`
	} `json:"swapInfo"`
}
