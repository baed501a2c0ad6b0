package engine

import (
	"fmt"
	"sort"

	"finhealth/internal/model"
)

// Advisor turns final pillar scores into zero or more advice text keys
type Advisor interface {
	Advise(pillars []model.PillarScore) []string
}

// AdvisorFunc adapts a function to Advisor
type AdvisorFunc func(pillars []model.PillarScore) []string

func (f AdvisorFunc) Advise(pillars []model.PillarScore) []string {
	return f(pillars)
}

// WeakestPillarAdvisor returns "advice.<pillar>.<interpretation>" keys for the lowest-percentage pillars.
// Pillars tied at the lowest percentage are all reported; Limit caps how many (0 means no cap).
// Nothing is returned when even the weakest pillar reads excellent.
type WeakestPillarAdvisor struct {
	Limit int
}

func (a WeakestPillarAdvisor) Advise(pillars []model.PillarScore) []string {
	if len(pillars) == 0 {
		return nil
	}
	sorted := append([]model.PillarScore(nil), pillars...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Percentage < sorted[j].Percentage
	})

	lowest := sorted[0].Percentage
	if InterpretPercentage(lowest) == model.InterpretationExcellent {
		return nil
	}

	var keys []string
	for _, p := range sorted {
		if p.Percentage != lowest {
			break
		}
		if a.Limit > 0 && len(keys) == a.Limit {
			break
		}
		keys = append(keys, AdviceKey(p.Pillar, p.Interpretation))
	}
	return keys
}

// AdviceKey builds the localization key for a pillar reading
func AdviceKey(pillar model.Pillar, interpretation model.Interpretation) string {
	return fmt.Sprintf("advice.%s.%s", pillar, interpretation)
}
