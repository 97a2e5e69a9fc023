package models

// DefaultWatchList is used when no symbols are configured.
var DefaultWatchList = []SymbolEntry{
	{Symbol: "2330.TW", Name: "台積電"},
	{Symbol: "2317.TW", Name: "鴻海"},
	{Symbol: "2454.TW", Name: "聯發科"},
	{Symbol: "2881.TW", Name: "富邦金"},
	{Symbol: "2882.TW", Name: "國泰金"},
	{Symbol: "2886.TW", Name: "兆豐金"},
	{Symbol: "2891.TW", Name: "中信金"},
	{Symbol: "2892.TW", Name: "第一金"},
	{Symbol: "2412.TW", Name: "中華電"},
	{Symbol: "1301.TW", Name: "台塑"},
	{Symbol: "1303.TW", Name: "南亞"},
	{Symbol: "2308.TW", Name: "台達電"},
	{Symbol: "2002.TW", Name: "中鋼"},
	{Symbol: "2303.TW", Name: "聯電"},
	{Symbol: "3008.TW", Name: "大立光"},
	{Symbol: "2327.TW", Name: "國巨"},
	{Symbol: "2395.TW", Name: "研華"},
	{Symbol: "2408.TW", Name: "南亞科"},
	{Symbol: "3711.TW", Name: "日月光投控"},
	{Symbol: "5880.TW", Name: "合庫金"},
}
