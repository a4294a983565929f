package domain

// UserProfile is the subset of the user-management record the recommender needs.
// Preference fields are optional.
type UserProfile struct {
	ID                    int64    `json:"id"`
	Wallet                string   `json:"wallet"`
	Username              string   `json:"username"`
	Role                  string   `json:"role"`
	TargetRent            *float64 `json:"targetRent"`
	MinTotalRooms         *int     `json:"minTotalRooms"`
	TargetSqft            *float64 `json:"targetSqft"`
	SearchLatitude        *float64 `json:"searchLatitude"`
	SearchLongitude       *float64 `json:"searchLongitude"`
	PreferredPropertyType *string  `json:"preferredPropertyType"`
	PreferredRentalType   *string  `json:"preferredRentalType"`
}

type RecommendationRequest struct {
	TargetRent            float64  `json:"targetRent"`
	MinTotalRooms         *int     `json:"minTotalRooms"`
	TargetSqft            *float64 `json:"targetSqft"`
	SearchLatitude        *float64 `json:"searchLatitude"`
	SearchLongitude       *float64 `json:"searchLongitude"`
	PreferredPropertyType *string  `json:"preferredPropertyType"`
	PreferredRentalType   *string  `json:"preferredRentalType"`
	NumberOfPeople        int      `json:"numberOfPeople"`
	IsMarried             bool     `json:"isMarried"`
}

// NewRecommendationRequest maps a stored profile onto the model's input.
// The people count and marital status are fixed placeholders the model expects.
func NewRecommendationRequest(profile *UserProfile) RecommendationRequest {
	var rent float64
	if profile.TargetRent != nil {
		rent = *profile.TargetRent
	}
	return RecommendationRequest{
		TargetRent:            rent,
		MinTotalRooms:         profile.MinTotalRooms,
		TargetSqft:            profile.TargetSqft,
		SearchLatitude:        profile.SearchLatitude,
		SearchLongitude:       profile.SearchLongitude,
		PreferredPropertyType: profile.PreferredPropertyType,
		PreferredRentalType:   profile.PreferredRentalType,
		NumberOfPeople:        1,
		IsMarried:             false,
	}
}

type Recommendation struct {
	PropertyID      int64   `json:"property_id"`
	SimilarityScore float32 `json:"similarity_score"`
}

type RecommendationResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}
