package domain

// Currency represents a supported settlement currency.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // Primary Key (ISO-4217, e.g. "USD")
	Symbol       string `json:"symbol"`       // e.g. "$"
	Name         string `json:"name"`         // e.g. "US Dollar"
	Precision    int    `json:"precision"`    // Fractional digits, at least 4 for wallet math
	AuditFields
}
