package catalyst

import (
	"regexp"
	"strings"
)

// Catalyst keys. One per tradeable news type; playbook entries hang off
// these.
const (
	EarningsBeatGuideUp   = "earnings_beat_guide_up"
	EarningsMissGuideDown = "earnings_miss_guide_down"
	FDAApproval           = "fda_approval"
	FDARejection          = "fda_crl"
	MergerAcquisition     = "merger_acquisition"
	OfferingDilution      = "offering_dilution"
	Bankruptcy            = "bankruptcy"
	ShortReport           = "short_report"
	ContractWin           = "contract_win"
	AnalystUpgrade        = "analyst_upgrade"
	AnalystDowngrade      = "analyst_downgrade"
)

// Rule maps a headline pattern to a catalyst key. Rules are evaluated in
// declaration order and the first match wins, so ordering is load-bearing:
// rules are not mutually exclusive (an offering headline can also mention
// earnings) and earlier rules deliberately shadow later ones.
type Rule struct {
	Key     string
	Pattern *regexp.Regexp
}

func rule(key, pattern string) Rule {
	return Rule{Key: key, Pattern: regexp.MustCompile("(?i)" + pattern)}
}

// DefaultRules returns the built-in rule table. Treated as configuration
// data: loaded once at startup, never mutated.
func DefaultRules() []Rule {
	return []Rule{
		rule(OfferingDilution, `public offering|share offering|registered direct|at-the-market|dilutive`),
		rule(Bankruptcy, `chapter 11|chapter 7|bankruptcy`),
		rule(ShortReport, `short report|short[- ]seller|hindenburg|muddy waters`),
		rule(FDARejection, `complete response letter|\bcrl\b|fda (declines|rejects)`),
		rule(FDAApproval, `fda (approves|approval|clearance)|granted (fda )?approval`),
		rule(EarningsBeatGuideUp, `beats? (eps|revenue|estimates|expectations)|tops? estimates|raises? (guidance|outlook|forecast)`),
		rule(EarningsMissGuideDown, `misses? (eps|revenue|estimates|expectations)|cuts? (guidance|outlook|forecast)|lowers? guidance`),
		rule(MergerAcquisition, `to acquire|to be acquired|merger agreement|acquisition of|all-cash deal|buyout`),
		rule(ContractWin, `awarded .{0,40}contract|wins .{0,40}contract|contract award`),
		rule(AnalystUpgrade, `upgraded to|upgrades? .{0,40} to (buy|overweight|outperform)`),
		rule(AnalystDowngrade, `downgraded to|downgrades? .{0,40} to (sell|underweight|underperform)`),
	}
}

// Classifier applies an ordered rule table to headlines. Pure; safe for
// concurrent use.
type Classifier struct {
	rules []Rule
}

func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the key of the first matching rule, or ok=false when
// nothing matched. A narrow fallback runs only after the primary pass
// finds nothing: a headline carrying both "guidance" and "raised" is an
// earnings beat phrased passively ("full-year guidance raised").
func (c *Classifier) Classify(headline string) (string, bool) {
	for _, r := range c.rules {
		if r.Pattern.MatchString(headline) {
			return r.Key, true
		}
	}

	lower := strings.ToLower(headline)
	if strings.Contains(lower, "guidance") && strings.Contains(lower, "raised") {
		return EarningsBeatGuideUp, true
	}
	return "", false
}
