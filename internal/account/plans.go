package account

// Plan identifies the subscription tier controlling quota and rate limits.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanStarter  Plan = "starter"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"

	// PlanDemo backs anonymous/playground access: a tiny fixed quota and a
	// stricter per-minute rate, but otherwise a regular account so the
	// quota tracker and rate limiter see a single type.
	PlanDemo Plan = "demo"
)

// PlanConfig defines the limits for one tier.
type PlanConfig struct {
	Plan         Plan
	MonthlyQuota int
	RateLimitRPM int
}

// Plans is the hardcoded plan catalogue.
var Plans = map[Plan]PlanConfig{
	PlanFree:     {Plan: PlanFree, MonthlyQuota: 100, RateLimitRPM: 60},
	PlanStarter:  {Plan: PlanStarter, MonthlyQuota: 1000, RateLimitRPM: 60},
	PlanPro:      {Plan: PlanPro, MonthlyQuota: 10000, RateLimitRPM: 60},
	PlanBusiness: {Plan: PlanBusiness, MonthlyQuota: 100000, RateLimitRPM: 60},
	PlanDemo:     {Plan: PlanDemo, MonthlyQuota: 50, RateLimitRPM: 10},
}

// QuotaFor returns the monthly quota ceiling for a plan.
// Unknown plans fall back to the free tier.
func QuotaFor(p Plan) int {
	cfg, ok := Plans[p]
	if !ok {
		cfg = Plans[PlanFree]
	}
	return cfg.MonthlyQuota
}

// RateLimitFor returns the requests-per-minute ceiling for a plan.
func RateLimitFor(p Plan) int {
	cfg, ok := Plans[p]
	if !ok {
		cfg = Plans[PlanFree]
	}
	return cfg.RateLimitRPM
}

// ValidPlan reports whether the plan name is in the catalogue. The demo
// tier is internal and not valid for provisioning.
func ValidPlan(p Plan) bool {
	_, ok := Plans[p]
	return ok && p != PlanDemo
}
