package user

import "fastingFriendsAPI/internal/fasting"

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

type UpdatePreferencesRequest struct {
	FastingType fasting.Type `json:"fastingType"`
	StartTime   string       `json:"startTime"`
}

type WeightGoalRequest struct {
	WeightGoal float64 `json:"weightGoal"`
}

type WeightGoalResponse struct {
	WeightGoal *float64 `json:"weightGoal"`
}
