package ranking

import "sort"

// badges evaluates every badge rule independently. It reads the aggregate
// but never mutates it.
func (e *Engine) badges(agg *aggregate, totalChapters int) []string {
	badges := []string{}
	if agg.attempts > 0 && agg.avgTime() < e.cfg.SpeedsterSeconds {
		badges = append(badges, BadgeSpeedster)
	}
	if e.isQuizMaster(agg) {
		badges = append(badges, BadgeQuizMaster)
	}
	if totalChapters > 0 && len(agg.chapterSet) == totalChapters {
		badges = append(badges, BadgeConsistent)
	}
	if improved(agg.timeline) {
		badges = append(badges, BadgeLateBloomer)
	}
	if agg.perfectRuns > 0 {
		badges = append(badges, BadgePerfectRun)
	}
	return badges
}

func (e *Engine) isQuizMaster(agg *aggregate) bool {
	if len(agg.scores) == 0 {
		return false
	}
	for _, score := range agg.scores {
		if score < e.cfg.MasteryThreshold {
			return false
		}
	}
	return true
}

// improved reports whether the chronologically last score beats the first.
func improved(timeline []timelinePoint) bool {
	if len(timeline) < 2 {
		return false
	}
	sorted := make([]timelinePoint, len(timeline))
	copy(sorted, timeline)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].createdAt.Before(sorted[j].createdAt)
	})
	return sorted[len(sorted)-1].score > sorted[0].score
}
