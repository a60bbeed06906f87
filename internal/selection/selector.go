package selection

import (
	"sort"
	"time"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// Selector implements S5: top-N extraction
// ⭐ SSOT: S5 추천 선정은 여기서만
type Selector struct {
	count  int
	logger *logger.Logger
}

// NewSelector creates a selector returning at most count items
func NewSelector(count int, log *logger.Logger) *Selector {
	if count < 1 {
		count = 5
	}
	return &Selector{
		count:  count,
		logger: log,
	}
}

// Select builds the recommendation for one scoring model
func (s *Selector) Select(kind contracts.ScoreKind, ref time.Time, scored []contracts.ScoredInstrument) contracts.Recommendation {
	items := TopN(scored, s.count)

	fields := map[string]interface{}{
		"kind":   kind,
		"scored": len(scored),
		"picked": len(items),
	}
	if len(items) > 0 {
		fields["top_ticker"] = items[0].Ticker
		fields["top_score"] = items[0].Score.V
	}
	s.logger.WithFields(fields).Debug("Recommendation selected")

	return contracts.Recommendation{
		Kind:          kind,
		ReferenceDate: ref,
		Items:         items,
	}
}

// TopN drops unavailable scores and returns the first n by descending score.
// Ties keep their input order.
func TopN(scored []contracts.ScoredInstrument, n int) []contracts.ScoredInstrument {
	out := make([]contracts.ScoredInstrument, 0, len(scored))
	for _, s := range scored {
		if s.Score.OK {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.V > out[j].Score.V
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
