package scoring

import "strings"

// Config holds the rule thresholds. Immutable once handed to an Evaluator;
// build it at startup and pass it in rather than reading ambient state.
type Config struct {
	// HighAmount is the amount at or above which high_amount fires.
	HighAmount float64
	// MidAmountFraction of HighAmount marks the softer mid_amount band.
	MidAmountFraction float64
	// UntrustedCountries are country codes that fire untrusted_country.
	// Matching is case-insensitive.
	UntrustedCountries []string
	// OddHourStart/OddHourEnd bound the odd-hour band. The band wraps
	// midnight: a request is odd when hour >= start OR hour <= end.
	OddHourStart int
	OddHourEnd   int
	// RiskyIPPrefixes are matched against the source IP as plain string
	// prefixes.
	RiskyIPPrefixes []string
	// VelocityLimit is the attempts-last-10m count above which
	// high_velocity fires; hitting the limit exactly fires the softer
	// elevated_velocity instead.
	VelocityLimit int
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		HighAmount:         500,
		MidAmountFraction:  0.6,
		UntrustedCountries: []string{"RU", "NG", "UA", "CN"},
		OddHourStart:       23,
		OddHourEnd:         6,
		RiskyIPPrefixes:    []string{"181.", "190.", "45."},
		VelocityLimit:      3,
	}
}

// Evaluator applies the rule set to transactions.
type Evaluator struct {
	cfg       Config
	untrusted map[string]bool // upper-cased country codes
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(cfg Config) *Evaluator {
	untrusted := make(map[string]bool, len(cfg.UntrustedCountries))
	for _, c := range cfg.UntrustedCountries {
		untrusted[strings.ToUpper(c)] = true
	}
	return &Evaluator{cfg: cfg, untrusted: untrusted}
}

// Evaluate runs every rule against the transaction and returns the fired
// reasons. Rules are independent except for the documented exclusions:
// high/mid amount, high/elevated velocity, and the 3DS outcomes.
func (e *Evaluator) Evaluate(tx Transaction) Reasons {
	r := make(Reasons)

	switch {
	case tx.Amount >= e.cfg.HighAmount:
		r[ReasonHighAmount] = weightHighAmount
	case tx.Amount >= e.cfg.HighAmount*e.cfg.MidAmountFraction:
		r[ReasonMidAmount] = weightMidAmount
	}

	if e.untrusted[strings.ToUpper(tx.Country)] {
		r[ReasonUntrustedCountry] = weightUntrustedCountry
	}

	if tx.Hour >= e.cfg.OddHourStart || tx.Hour <= e.cfg.OddHourEnd {
		r[ReasonOddHour] = weightOddHour
	}

	for _, prefix := range e.cfg.RiskyIPPrefixes {
		if strings.HasPrefix(tx.IP, prefix) {
			r[ReasonRiskyIPPrefix] = weightRiskyIPPrefix
			break
		}
	}

	switch {
	case tx.AttemptsLast10m > e.cfg.VelocityLimit:
		r[ReasonHighVelocity] = weightHighVelocity
	case tx.AttemptsLast10m == e.cfg.VelocityLimit:
		r[ReasonElevatedVelocity] = weightElevatedVelocity
	}

	switch tx.ThreeDSResult {
	case ThreeDSFailed:
		r[Reason3DSFailed] = weight3DSFailed
	case ThreeDSUnavailable:
		r[Reason3DSUnavailable] = weight3DSUnavailable
	}

	if tx.DeviceID != "" {
		r[ReasonKnownDevice] = weightKnownDevice
	}

	return r
}
