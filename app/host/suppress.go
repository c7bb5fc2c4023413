package host

import "github.com/elliotchance/pie/v2"

// FlagSuppression suppresses tracker injection whenever the request carries
// one of the configured conflicting instruction sources.
type FlagSuppression struct {
	Conflicts []string
}

var _ SuppressionEvaluator = (*FlagSuppression)(nil)

func (s *FlagSuppression) Evaluate(req GenerationRequest) SuppressionDecision {
	conflict := pie.FirstOr(pie.Filter(req.Flags, func(flag string) bool {
		return pie.Contains(s.Conflicts, flag)
	}), "")

	if conflict == "" {
		return SuppressionDecision{}
	}

	return SuppressionDecision{
		ShouldSuppress: true,
		SkipMode:       "turn",
		Reason:         "conflicting instruction source: " + conflict,
	}
}
