package catalyst

// Bias is the directional read on a catalyst.
type Bias string

const (
	Long  Bias = "long"
	Short Bias = "short"
)

// PlaybookEntry holds the risk parameters for one catalyst key.
// StopDistance and the take-profit ladder are absolute price deltas.
// Only the first ladder rung feeds single-bracket construction; the rest
// is reserved for a multi-leg extension.
type PlaybookEntry struct {
	Key          string
	Bias         Bias
	StopDistance float64
	TakeProfits  []float64
}

// Playbook maps catalyst keys to entries. A missing entry is a normal
// outcome meaning "no trade for this catalyst".
type Playbook struct {
	entries map[string]PlaybookEntry
}

func NewPlaybook(entries []PlaybookEntry) *Playbook {
	m := make(map[string]PlaybookEntry, len(entries))
	for _, e := range entries {
		m[e.Key] = e
	}
	return &Playbook{entries: m}
}

func (p *Playbook) Resolve(key string) (PlaybookEntry, bool) {
	e, ok := p.entries[key]
	return e, ok
}

// DefaultPlaybook returns the built-in playbook. Configuration data like
// the rule table; note there is deliberately no entry for bankruptcy or
// FDA rejection shorts on hard-to-borrow names. Absence means no trade.
func DefaultPlaybook() *Playbook {
	return NewPlaybook([]PlaybookEntry{
		{Key: EarningsBeatGuideUp, Bias: Long, StopDistance: 1.0, TakeProfits: []float64{1.0, 2.0}},
		{Key: EarningsMissGuideDown, Bias: Short, StopDistance: 1.0, TakeProfits: []float64{1.0, 2.0}},
		{Key: FDAApproval, Bias: Long, StopDistance: 1.5, TakeProfits: []float64{2.0, 4.0}},
		{Key: MergerAcquisition, Bias: Long, StopDistance: 0.75, TakeProfits: []float64{1.0}},
		{Key: OfferingDilution, Bias: Short, StopDistance: 0.5, TakeProfits: []float64{0.75, 1.5}},
		{Key: ShortReport, Bias: Short, StopDistance: 1.25, TakeProfits: []float64{1.5, 3.0}},
		{Key: ContractWin, Bias: Long, StopDistance: 0.6, TakeProfits: []float64{0.8}},
		{Key: AnalystUpgrade, Bias: Long, StopDistance: 0.5, TakeProfits: []float64{0.7, 1.4}},
		{Key: AnalystDowngrade, Bias: Short, StopDistance: 0.5, TakeProfits: []float64{0.7, 1.4}},
	})
}
