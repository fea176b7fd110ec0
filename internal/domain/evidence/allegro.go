package evidence

// AllegroOrderPayment is an Allegro marketplace payment used as matching
// evidence. Login is display metadata only and never takes part in matching
// identity; ExternalID/ExternalShortID are the stable handles used for
// idempotent re-application and UI addressing.
type AllegroOrderPayment struct {
	OrderPayment

	IsBalanced      bool
	Login           string
	ExternalID      string
	ExternalShortID string
}
