package clientdata

import "time"

// DefaultQuotationTTL is used when the configured cache TTL is not positive.
// Provider offers carry their own valid_until, so quotations are short-lived.
const DefaultQuotationTTL = 15 * time.Minute
