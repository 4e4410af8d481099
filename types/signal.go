package types

// Direction is the discrete output of a strategy for a single instrument
// on a single trading date.
type Direction int

const (
	DirectionSell Direction = -1
	DirectionHold Direction = 0
	DirectionBuy  Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionSell:
		return "SELL"
	case DirectionBuy:
		return "BUY"
	default:
		return "HOLD"
	}
}
