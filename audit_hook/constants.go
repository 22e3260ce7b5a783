package audithook

// Action constants for audit events.
const (
	// Plan actions
	ActionPlanCreated = "plan.created"

	// Subscription actions
	ActionSubscriptionCreated  = "subscription.created"
	ActionSubscriptionCanceled = "subscription.canceled"

	// Billing actions
	ActionBillingProcessed = "billing.processed"
)

// Resource constants for audit events.
const (
	ResourcePlan         = "plan"
	ResourceSubscription = "subscription"
)

// Category constants for audit events.
const (
	CategoryBilling      = "billing"
	CategorySubscription = "subscription"
	CategoryPayment      = "payment"
)

// Severity and outcome recorded for applied billing events.
const (
	SeverityInfo   = "info"
	OutcomeSuccess = "success"
)
