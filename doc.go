// Package ectoplasma provides a recurring-billing subscriptions engine for Go
// applications.
//
// Merchants publish plans with a price and a billing period, subscribers
// enroll, and a billing operation moves one period's price from the
// subscriber's prepaid balance to the merchant. The engine is a library:
// import it directly and back it with any store implementation.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/ectoplasma"
//	    "github.com/xraph/ectoplasma/identity"
//	    "github.com/xraph/ectoplasma/plan"
//	    "github.com/xraph/ectoplasma/store/memory"
//	)
//
//	e := ectoplasma.New(memory.New())
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
//	merchant := identity.WithCaller(ctx, "merchant")
//	planID, err := e.CreatePlan(merchant, plan.Input{
//	    PricePerPeriod: ectoplasma.NewAmount(100),
//	    PeriodSecs:     2592000,
//	    Name:           "Pro",
//	})
//
//	alice := identity.WithCaller(ctx, "alice")
//	subID, _, err := e.Subscribe(alice, planID)
//	_, err = e.Deposit(identity.WithAttachedValue(alice, ectoplasma.NewAmount(200)))
//	out, err := e.ProcessBilling(ctx, subID)
//
// # Outcomes
//
// Mutating operations never fail for business reasons. An unknown id, an
// unauthorized caller, an inactive plan or subscription, or an insufficient
// balance yields an Outcome with Applied == false and a Reason, a nil error,
// and no state change or event. Errors are reserved for environment
// failures: a missing caller identity, store I/O, balance overflow, or a
// failed transfer to the merchant.
//
// # Identifiers
//
// Plan and subscription ids are uint64 values issued from per-kind counters
// starting at 0. A counter at its maximum keeps issuing the maximum.
// Events and payouts use TypeIDs:
//
//	evt_01h2xcejqtf2nbrexx3vqjhp41   // Event ID
//	pout_01h455vb4pex5vsknk084sn02q  // Payout ID
//
// # Events
//
// Plugins registered with WithPlugin receive PlanCreated, Subscribed,
// SubscriptionCanceled and BillingProcessed, in emission order. See the
// audit_hook, observability and pubsub_hook packages.
package ectoplasma
