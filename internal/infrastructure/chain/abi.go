package chain

// OracleAdapterABI is the subset of the per-source adapter contract used by the relay.
const OracleAdapterABI = `[
	{"type":"function","name":"getPrice","stateMutability":"view",
	 "inputs":[{"name":"assetId","type":"bytes32"}],
	 "outputs":[{"name":"price","type":"uint256"},{"name":"timestamp","type":"uint256"}]},
	{"type":"function","name":"updatePrice","stateMutability":"nonpayable",
	 "inputs":[{"name":"assetId","type":"bytes32"},{"name":"price","type":"uint256"},{"name":"timestamp","type":"uint256"}],
	 "outputs":[]}
]`
