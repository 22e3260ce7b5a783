package ectoplasma

// Reason explains why a mutating operation had no effect.
type Reason string

// Rejection reasons.
const (
	ReasonNone                 Reason = ""
	ReasonZeroAmount           Reason = "zero_amount"
	ReasonPlanNotFound         Reason = "plan_not_found"
	ReasonPlanInactive         Reason = "plan_inactive"
	ReasonSubscriptionNotFound Reason = "subscription_not_found"
	ReasonSubscriptionInactive Reason = "subscription_inactive"
	ReasonUnauthorized         Reason = "unauthorized"
	ReasonInsufficientFunds    Reason = "insufficient_funds"
)

// Outcome reports whether a mutating operation was applied. A rejected
// operation has no effect: no state change and no event.
type Outcome struct {
	Applied bool
	Reason  Reason
}

// Applied is the outcome of an operation that took effect.
var Applied = Outcome{Applied: true}

// Rejected returns the outcome of an operation refused for reason.
func Rejected(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

// Rejected reports whether the operation was refused.
func (o Outcome) Rejected() bool { return !o.Applied }

// Err maps a rejection to its sentinel error; it is nil for applied outcomes.
func (o Outcome) Err() error {
	if o.Applied {
		return nil
	}
	switch o.Reason {
	case ReasonZeroAmount:
		return ErrNothingAttached
	case ReasonPlanNotFound:
		return ErrPlanNotFound
	case ReasonPlanInactive:
		return ErrPlanInactive
	case ReasonSubscriptionNotFound:
		return ErrSubscriptionNotFound
	case ReasonSubscriptionInactive:
		return ErrSubscriptionInactive
	case ReasonUnauthorized:
		return ErrUnauthorized
	case ReasonInsufficientFunds:
		return ErrInsufficientFunds
	default:
		return ErrInvalidInput
	}
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if o.Applied {
		return "applied"
	}
	return "rejected: " + string(o.Reason)
}
