package models

// EngagementThreshold defines when a mention counts as high engagement for
// one source type. A zero field means that signal does not exist for the
// type and is never matched.
type EngagementThreshold struct {
	Upvotes  int
	Comments int
}

// EngagementThresholds is the per-source-type high-engagement policy table.
// Social and forum-like sources flag at upvotes>=100 or comments>=25,
// review sources at upvotes>=50 or comments>=10, and editorial sources
// (blogs, news) at comments>=10 since they have no upvote concept. Video
// platforms follow the social row: likes behave like upvotes.
var EngagementThresholds = map[SourceType]EngagementThreshold{
	SourceTypeSocial: {Upvotes: 100, Comments: 25},
	SourceTypeForum:  {Upvotes: 100, Comments: 25},
	SourceTypeVideo:  {Upvotes: 100, Comments: 25},
	SourceTypeReview: {Upvotes: 50, Comments: 10},
	SourceTypeBlog:   {Comments: 10},
	SourceTypeNews:   {Comments: 10},
}

// HighEngagement applies the threshold table to one engagement record.
func HighEngagement(sourceType SourceType, e Engagement) bool {
	threshold, ok := EngagementThresholds[sourceType]
	if !ok {
		return false
	}

	if threshold.Upvotes > 0 && intOrZero(e.Upvotes) >= threshold.Upvotes {
		return true
	}
	if threshold.Comments > 0 && intOrZero(e.Comments) >= threshold.Comments {
		return true
	}

	return false
}
