package model

// AchievementRule is one row of the static achievement table. The table is
// configuration, not state: completion is recomputed from the progress
// record on every evaluation and never stored, so the flags can never drift
// from the record they describe.
type AchievementRule struct {
	Name        string
	Description string
	predicate   func(*ProgressRecord) bool
}

// AchievementStatus is the evaluated view handed to the client.
type AchievementStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// achievementRules is in display order (author-defined priority, not
// alphabetical). Predicates may read only fields that never decrease
// (TotalExercises, BestStreak) so that a completed achievement stays
// completed across any further legitimate mutation.
var achievementRules = []AchievementRule{
	{
		Name:        "First Steps",
		Description: "Complete your first exercise",
		predicate:   func(r *ProgressRecord) bool { return r.TotalExercises >= 1 },
	},
	{
		Name:        "Warming Up",
		Description: "Complete 10 exercises",
		predicate:   func(r *ProgressRecord) bool { return r.TotalExercises >= 10 },
	},
	{
		Name:        "Three in a Row",
		Description: "Practice three days in a row",
		predicate:   func(r *ProgressRecord) bool { return r.BestStreak >= 3 },
	},
	{
		Name:        "Full Week",
		Description: "Practice seven days in a row",
		predicate:   func(r *ProgressRecord) bool { return r.BestStreak >= 7 },
	},
	{
		Name:        "Halfway There",
		Description: "Complete 50 exercises",
		predicate:   func(r *ProgressRecord) bool { return r.TotalExercises >= 50 },
	},
	{
		Name:        "Century",
		Description: "Complete 100 exercises",
		predicate:   func(r *ProgressRecord) bool { return r.TotalExercises >= 100 },
	},
	{
		Name:        "Iron Month",
		Description: "Practice thirty days in a row",
		predicate:   func(r *ProgressRecord) bool { return r.BestStreak >= 30 },
	},
}

// EvaluateAchievements recomputes completion for every rule in table order.
func EvaluateAchievements(r *ProgressRecord) []AchievementStatus {
	out := make([]AchievementStatus, 0, len(achievementRules))
	for _, rule := range achievementRules {
		out = append(out, AchievementStatus{
			Name:        rule.Name,
			Description: rule.Description,
			Completed:   rule.predicate(r),
		})
	}
	return out
}
