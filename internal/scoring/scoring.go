// Package scoring implements deterministic rule-based risk scoring for
// payment transactions.
//
// Each transaction is evaluated against a fixed set of weighted rules.
// Rules fire independently; their weights are summed and the total is
// clamped to [0, 100], then mapped to a LOW/MEDIUM/HIGH risk bucket.
// Evaluation is pure — no I/O, no clock reads, no shared state — so the
// same transaction and configuration always produce the same score.
package scoring

import "time"

// ThreeDS authentication outcomes accepted on a transaction.
const (
	ThreeDSSuccess     = "success"
	ThreeDSFailed      = "failed"
	ThreeDSUnavailable = "unavailable"
)

// Reason codes emitted by the evaluator.
const (
	ReasonHighAmount       = "high_amount"
	ReasonMidAmount        = "mid_amount"
	ReasonUntrustedCountry = "untrusted_country"
	ReasonOddHour          = "odd_hour"
	ReasonRiskyIPPrefix    = "risky_ip_prefix"
	ReasonHighVelocity     = "high_velocity"
	ReasonElevatedVelocity = "elevated_velocity"
	Reason3DSFailed        = "3ds_failed"
	Reason3DSUnavailable   = "3ds_unavailable"
	ReasonKnownDevice      = "known_device_bonus"
)

// Rule weights. Negative weights are trust credits.
const (
	weightHighAmount       = 30
	weightMidAmount        = 15
	weightUntrustedCountry = 20
	weightOddHour          = 20
	weightRiskyIPPrefix    = 10
	weightHighVelocity     = 25
	weightElevatedVelocity = 10
	weight3DSFailed        = 25
	weight3DSUnavailable   = 8
	weightKnownDevice      = -5
)

// Bucket is the coarse risk classification derived from the score.
type Bucket string

const (
	BucketLow    Bucket = "LOW"
	BucketMedium Bucket = "MEDIUM"
	BucketHigh   Bucket = "HIGH"
)

// Bucket thresholds: score < 40 is LOW, < 70 is MEDIUM, otherwise HIGH.
const (
	mediumThreshold = 40
	highThreshold   = 70
)

// Transaction is the scoring input. Request-scoped and immutable once built.
type Transaction struct {
	TransactionID   string  `json:"transaction_id"`
	Amount          float64 `json:"amount"`
	Country         string  `json:"country"`
	IP              string  `json:"ip"`
	Hour            int     `json:"hour"`
	AttemptsLast10m int     `json:"attempts_last_10m"`
	ThreeDSResult   string  `json:"three_ds_result"`

	// Optional identifiers, used only as scoring inputs.
	Currency string `json:"currency,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
	CardBIN  string `json:"card_bin,omitempty"`
}

// Reasons maps a reason code to its weight for one evaluation.
// Built fresh per evaluation, never merged across requests.
type Reasons map[string]int

// Sum returns the raw, pre-clamp total of all reason weights.
func (r Reasons) Sum() int {
	total := 0
	for _, w := range r {
		total += w
	}
	return total
}

// Result is the scoring output returned to callers.
type Result struct {
	FraudScore int     `json:"fraud_score"`
	Risk       Bucket  `json:"risk"`
	Reasons    Reasons `json:"reasons"`
	Timestamp  string  `json:"timestamp"`
}

// NewResult aggregates reasons into a final result stamped with the given time.
func NewResult(reasons Reasons, now time.Time) Result {
	score, bucket := Aggregate(reasons)
	return Result{
		FraudScore: score,
		Risk:       bucket,
		Reasons:    reasons,
		Timestamp:  now.UTC().Format(time.RFC3339),
	}
}

// Aggregate sums reason weights, clamps the total to [0, 100], and derives
// the risk bucket. A lone trust credit clamps to 0 rather than going negative.
func Aggregate(reasons Reasons) (int, Bucket) {
	score := clamp(reasons.Sum())
	return score, bucketFor(score)
}

func bucketFor(score int) Bucket {
	switch {
	case score < mediumThreshold:
		return BucketLow
	case score < highThreshold:
		return BucketMedium
	default:
		return BucketHigh
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
