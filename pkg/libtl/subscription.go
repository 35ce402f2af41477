package libtl

type (
	// A Subscription is a web push subscription, as produced by a browser push service.
	Subscription struct {
		Endpoint string           `json:"endpoint"`
		Keys     SubscriptionKeys `json:"keys"`
	}

	// SubscriptionKeys holds the base64 encoded keys of a Subscription.
	SubscriptionKeys struct {
		P256DH string `json:"p256dh"`
		Auth   string `json:"auth"`
	}
)

// Validate checks the subscription before sending it.
func (s Subscription) Validate() error {
	if s.Endpoint == "" || s.Keys.P256DH == "" || s.Keys.Auth == "" {
		return ErrIncompleteSubscription
	}
	return nil
}
