package domain

// TroyOunceGrams converts a per-gram price into a per-troy-ounce price.
const TroyOunceGrams = "31.1034768"

// DefaultInstruments is the built-in instrument set used when no [[instruments]] are configured.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{
			Symbol:   "XAU",
			Name:     "Gold",
			Category: CategoryCommodity,
			Feeds: map[Source]FeedRef{
				SourcePyth:     {FeedID: "0x765d2ba906dbc32ca17cc11f5310a89e9ee1f6420508c63861f2f8ba4ee34bb2"},
				SourceDIA:      {Ticker: "XAU-USD"},
				SourceRedStone: {Ticker: "XAU"},
				SourceMetals:   {Ticker: "XAU", UnitFactor: TroyOunceGrams},
			},
		},
		{
			Symbol:   "XAG",
			Name:     "Silver",
			Category: CategoryCommodity,
			Feeds: map[Source]FeedRef{
				SourcePyth:     {FeedID: "0xf2fb02c32b055c805e7238d628e5e9dadef274376114eb1f012337cabe93871e"},
				SourceDIA:      {Ticker: "XAG-USD"},
				SourceRedStone: {Ticker: "XAG"},
				SourceMetals:   {Ticker: "XAG", UnitFactor: TroyOunceGrams},
			},
		},
		{
			Symbol:   "AAPL",
			Name:     "Apple Inc.",
			Category: CategoryEquity,
			Feeds: map[Source]FeedRef{
				SourcePyth:     {FeedID: "0x49f6b65cb1de6b10eaf75e7c03ca029c306d0357e91b5311b175084a5ad55688"},
				SourceDIA:      {Ticker: "AAPL"},
				SourceRedStone: {Ticker: "AAPL"},
			},
		},
		{
			Symbol:   "TSLA",
			Name:     "Tesla Inc.",
			Category: CategoryEquity,
			Feeds: map[Source]FeedRef{
				SourcePyth: {FeedID: "0x16dad506d7db8da01c87581c87ca897a012a153557d4d578c3b9c9e1bc0632f1"},
				SourceDIA:  {Ticker: "TSLA"},
			},
		},
		{
			Symbol:   "SPY",
			Name:     "SPDR S&P 500 ETF",
			Category: CategoryFund,
			Feeds: map[Source]FeedRef{
				SourcePyth: {FeedID: "0x19e09bb805456ada3979a7d1cbb4b6d63babc3a0f8e8a9509f68afa5c4c11cd5"},
				SourceDIA:  {Ticker: "SPY"},
			},
		},
		{
			Symbol:   "EUR",
			Name:     "Euro",
			Category: CategoryFX,
			Feeds: map[Source]FeedRef{
				SourcePyth:     {FeedID: "0xa995d00bb36a63cef7fd2c287dc105fc8f3d93779f062f09551b0af3e81ec30b"},
				SourceDIA:      {Ticker: "EUR-USD"},
				SourceRedStone: {Ticker: "EUR"},
			},
		},
		{
			Symbol:   "SCOM",
			Name:     "Safaricom PLC",
			Category: CategoryListedEquity,
			Feeds: map[Source]FeedRef{
				SourceExchange: {Ticker: "SCOM", Divisor: 100},
			},
		},
	}
}
