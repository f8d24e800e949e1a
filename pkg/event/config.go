package event

// ActivationModel controls how many times an event may fire over the
// life of its component.
type ActivationModel string

const (
	// Recurring events may fire any number of times.
	Recurring ActivationModel = "recurring"
	// Singular events fire at most once.
	Singular ActivationModel = "singular"
)

// ProbabilityModel selects the hazard model governing whether a firing
// candidate actually fires on a given tick.
type ProbabilityModel string

const (
	Deterministic ProbabilityModel = "deterministic"
	Exponential   ProbabilityModel = "exponential"
	Normal        ProbabilityModel = "normal"
	Weibull       ProbabilityModel = "weibull"
	Random        ProbabilityModel = "random"
)

// RandomWindowType selects how the Random probability model recomputes
// its window boundary once a fire time has been consumed.
type RandomWindowType string

const (
	Fixed   RandomWindowType = "fixed"
	Sliding RandomWindowType = "sliding"
)

// Config is the immutable-after-load definition of one event, matching
// the JSON schema's per-event fields one for one.
type Config struct {
	ID   string
	Fault string

	StateTransition bool
	ActivationModel ActivationModel
	ProbabilityModel ProbabilityModel

	MTTF              int
	Threshold         int
	EffectiveStart    int
	EffectiveEnd      int
	StandardDeviation int
	Shape             float64
	RandomRange       int
	RandomWindowType  RandomWindowType

	UDF1 string
	UDF2 string
	UDF3 string
	UDD  map[string]interface{}
}

// NewConfig applies the configuration schema's defaults to a partially
// populated Config, mirroring sessionconfig.py's get_model_for_event
// defaults. It does not apply the -1 effective-window defaults (see
// below): callers that build a Config directly set EffectiveStart and
// EffectiveEnd themselves, and left at zero they confine the event to
// component-life second 0.
func NewConfig(c Config) Config {
	if c.ActivationModel == "" {
		c.ActivationModel = Recurring
	}
	if c.MTTF == 0 {
		c.MTTF = 1
	}
	if c.StandardDeviation == 0 {
		c.StandardDeviation = 1
	}
	if c.Shape == 0 {
		c.Shape = 1
	}
	if c.RandomRange == 0 {
		c.RandomRange = 1
	}
	// EffectiveStart/EffectiveEnd default to -1 (disabled / no upper
	// bound); since that is not the zero value, pkg/config sets it
	// explicitly rather than here.
	if c.RandomWindowType == "" {
		c.RandomWindowType = Fixed
	}
	return c
}
