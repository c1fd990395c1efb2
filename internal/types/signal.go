package types

type SignalType string

const (
	// SignalTypeBuyLong is a signal that recommends buying
	SignalTypeBuyLong SignalType = "buy_long"
	// SignalTypeSellShort is a signal that recommends selling
	SignalTypeSellShort SignalType = "sell_short"
	// SignalTypeNoAction is a signal that recommends doing nothing
	SignalTypeNoAction SignalType = "no_action"
)

// SignalResult is the binary recommendation derived from an IndicatorSet.
type SignalResult struct {
	BuySignal  bool `json:"buySignal"`
	SellSignal bool `json:"sellSignal"`
}

// Type maps the result to a single SignalType. Buy wins if both flags are set,
// which the threshold design never produces.
func (r SignalResult) Type() SignalType {
	switch {
	case r.BuySignal:
		return SignalTypeBuyLong
	case r.SellSignal:
		return SignalTypeSellShort
	default:
		return SignalTypeNoAction
	}
}

// Triggered reports whether either side fired.
func (r SignalResult) Triggered() bool {
	return r.BuySignal || r.SellSignal
}
