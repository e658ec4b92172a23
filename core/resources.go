package core

// FeeUnit is the denomination a fee is charged in. Legacy v1/v2 transactions
// are charged in WEI; v3+ transactions are charged in FRI (spec.md §3, §4.3).
type FeeUnit string

const (
	FeeUnitWei FeeUnit = "WEI"
	FeeUnitFri FeeUnit = "FRI"
)

// ResourceKind names one of the three resources a v3 transaction bounds and
// the executor meters.
type ResourceKind string

const (
	ResourceL1Gas     ResourceKind = "l1_gas"
	ResourceL1DataGas ResourceKind = "l1_data_gas"
	ResourceL2Gas     ResourceKind = "l2_gas"
)

// DAMode selects where a resource's data is made available.
type DAMode string

const (
	DAModeL1 DAMode = "L1"
	DAModeL2 DAMode = "L2"
)

// ResourceBounds is the {max_amount, max_price_per_unit} pair a v3
// transaction attaches per resource kind.
type ResourceBounds struct {
	MaxAmount       uint64 `json:"max_amount"`
	MaxPricePerUnit uint64 `json:"max_price_per_unit"`
}

// ResourceBoundsMapping carries the three resource bounds a v3 transaction
// signs over, plus the DA mode chosen for fee and nonce.
type ResourceBoundsMapping struct {
	L1Gas     ResourceBounds `json:"l1_gas"`
	L1DataGas ResourceBounds `json:"l1_data_gas"`
	L2Gas     ResourceBounds `json:"l2_gas"`
}

// GasPrice is the {wei, fri} pair every block header and fee computation
// carries for a resource kind (spec.md §3, Block).
type GasPrice struct {
	Wei uint64 `json:"price_in_wei,string"`
	Fri uint64 `json:"price_in_fri,string"`
}

// GasPrices bundles the three per-resource prices active for a block.
type GasPrices struct {
	L1Gas     GasPrice
	L1DataGas GasPrice
	L2Gas     GasPrice
}

// ExecutionResources is the actual resource consumption the executor
// reports back for a single transaction (spec.md §3, Receipt).
type ExecutionResources struct {
	L1Gas     uint64 `json:"l1_gas"`
	L1DataGas uint64 `json:"l1_data_gas"`
	L2Gas     uint64 `json:"l2_gas"`
}

// FeePayment is the {amount, unit} pair attached to a receipt's actual_fee.
type FeePayment struct {
	Amount string  `json:"amount"` // hex-encoded Felt, arbitrary precision
	Unit   FeeUnit `json:"unit"`
}
