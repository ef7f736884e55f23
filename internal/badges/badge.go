package badges

// CriteriaType names the user counter a badge threshold applies to.
type CriteriaType string

const (
	CriteriaStreak         CriteriaType = "streak"
	CriteriaWeeklyGoal     CriteriaType = "weekly_goal"
	CriteriaThreeMonthGoal CriteriaType = "three_month_goal"
)

func (c CriteriaType) IsValid() bool {
	switch c {
	case CriteriaStreak, CriteriaWeeklyGoal, CriteriaThreeMonthGoal:
		return true
	default:
		return false
	}
}

type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

type Badge struct {
	ID            int          `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Icon          string       `json:"icon"`
	CriteriaType  CriteriaType `json:"criteriaType"`
	CriteriaValue int          `json:"criteriaValue"`
	Tier          Tier         `json:"tier"`
}

// Counters are the accumulated user achievements badges are granted for.
type Counters struct {
	WeeklyGoalCompletions     int
	ThreeMonthGoalCompletions int
	StreakCompletions         int
}

func (c Counters) value(criteria CriteriaType) (int, bool) {
	switch criteria {
	case CriteriaWeeklyGoal:
		return c.WeeklyGoalCompletions, true
	case CriteriaThreeMonthGoal:
		return c.ThreeMonthGoalCompletions, true
	case CriteriaStreak:
		return c.StreakCompletions, true
	default:
		return 0, false
	}
}

// DefaultCatalog is the badge set new installations are seeded with.
func DefaultCatalog() []Badge {
	return []Badge{
		{
			Name:          "Weekly Bronze",
			Description:   "Available Weekly Goal Twice",
			Icon:          "EmojiEvents",
			CriteriaType:  CriteriaWeeklyGoal,
			CriteriaValue: 2,
			Tier:          TierBronze,
		},
		{
			Name:          "Weekly Silver",
			Description:   "Available Weekly Goal 6 Times",
			Icon:          "EmojiEvents",
			CriteriaType:  CriteriaWeeklyGoal,
			CriteriaValue: 6,
			Tier:          TierSilver,
		},
		{
			Name:          "Weekly Gold",
			Description:   "Available Weekly Goal 10 Times",
			Icon:          "EmojiEvents",
			CriteriaType:  CriteriaWeeklyGoal,
			CriteriaValue: 10,
			Tier:          TierGold,
		},
		{
			Name:          "3-Month Bronze",
			Description:   "Achieve 3-Month Goal Once",
			Icon:          "EmojiEvents",
			CriteriaType:  CriteriaThreeMonthGoal,
			CriteriaValue: 1,
			Tier:          TierBronze,
		},
		{
			Name:          "3-Month Silver",
			Description:   "Achieve 3-Month Goal Twice",
			Icon:          "EmojiEvents",
			CriteriaType:  CriteriaThreeMonthGoal,
			CriteriaValue: 2,
			Tier:          TierSilver,
		},
		{
			Name:          "3-Month Gold",
			Description:   "Achieve 3-Month Goal 3 Times",
			Icon:          "EmojiEvents",
			CriteriaType:  CriteriaThreeMonthGoal,
			CriteriaValue: 3,
			Tier:          TierGold,
		},
		{
			Name:          "Streak Bronze",
			Description:   "Complete 20-day challenge once",
			Icon:          "SelfImprovement",
			CriteriaType:  CriteriaStreak,
			CriteriaValue: 1,
			Tier:          TierBronze,
		},
		{
			Name:          "Streak Silver",
			Description:   "Complete 20-day challenge twice",
			Icon:          "SelfImprovement",
			CriteriaType:  CriteriaStreak,
			CriteriaValue: 2,
			Tier:          TierSilver,
		},
		{
			Name:          "Streak Gold",
			Description:   "Complete 20-day challenge 3 times",
			Icon:          "SelfImprovement",
			CriteriaType:  CriteriaStreak,
			CriteriaValue: 3,
			Tier:          TierGold,
		},
	}
}
