package models

// MovementType classifies a movement and implies its sign.
type MovementType string

const (
	MovementTypeExpense     MovementType = "EXPENSE"
	MovementTypeIncome      MovementType = "INCOME"
	MovementTypeTransferIn  MovementType = "TRANSFER_IN"
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
	MovementTypeInvestment  MovementType = "INVESTMENT"
)

// MovementTypes lists every movement type in display order.
var MovementTypes = []MovementType{
	MovementTypeExpense,
	MovementTypeIncome,
	MovementTypeTransferIn,
	MovementTypeTransferOut,
	MovementTypeInvestment,
}

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeExpense, MovementTypeIncome, MovementTypeTransferIn,
		MovementTypeTransferOut, MovementTypeInvestment:
		return true
	}
	return false
}

// RelevanceCode is the psychological classification of an expense.
type RelevanceCode string

const (
	RelevanceNecessary   RelevanceCode = "NECESSARY"
	RelevanceEnjoyed     RelevanceCode = "ENJOYED"
	RelevanceSuperfluous RelevanceCode = "SUPERFLUOUS"
	RelevanceNonsense    RelevanceCode = "NONSENSE"
)

// RelevanceCodes lists every relevance code.
var RelevanceCodes = []RelevanceCode{
	RelevanceNecessary,
	RelevanceEnjoyed,
	RelevanceSuperfluous,
	RelevanceNonsense,
}

// Valid reports whether c is a known relevance code.
func (c RelevanceCode) Valid() bool {
	switch c {
	case RelevanceNecessary, RelevanceEnjoyed, RelevanceSuperfluous, RelevanceNonsense:
		return true
	}
	return false
}

// MovementSource records who created a movement.
type MovementSource string

const (
	SourceManual    MovementSource = "MANUAL"
	SourceAutoClose MovementSource = "AUTO_CLOSE"
)
