package domain

// Provider identifies a webhook origin / payment provider
type Provider string

const (
	ProviderNone       Provider = ""
	ProviderStorefront Provider = "storefront"
	ProviderPayPal     Provider = "paypal"
)

// Outcome is the result of running a webhook through the verifier chain.
// Either Accepted with the Provider that vouched for it, or rejected with a Reason.
type Outcome struct {
	Accepted bool
	Provider Provider
	Reason   string
}

// Accepted builds a positive outcome
func Accepted(p Provider) Outcome {
	return Outcome{Accepted: true, Provider: p}
}

// Rejected builds a negative outcome
func Rejected(p Provider, reason string) Outcome {
	return Outcome{Provider: p, Reason: reason}
}

// Err returns nil for an accepted outcome, otherwise a *VerificationFailure
func (o Outcome) Err() error {
	if o.Accepted {
		return nil
	}
	return &VerificationFailure{Provider: o.Provider, Reason: o.Reason}
}
