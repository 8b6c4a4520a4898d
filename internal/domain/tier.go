package domain

// Tier is the canonical three-level mastery classification.
type Tier int

const (
	TierStruggling Tier = iota
	TierNeedsReview
	TierMastered
)

func (t Tier) String() string {
	switch t {
	case TierStruggling:
		return "struggling"
	case TierNeedsReview:
		return "needs_review"
	default:
		return "mastered"
	}
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// DisplayTier is the five-level label shown to learners. It never gates scheduling.
type DisplayTier string

const (
	DisplayNew        DisplayTier = "new"
	DisplayStruggling DisplayTier = "struggling"
	DisplayLearning   DisplayTier = "learning"
	DisplayConfident  DisplayTier = "confident"
	DisplayMastered   DisplayTier = "mastered"
)
