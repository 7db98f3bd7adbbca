package model

type UserProfile struct {
	Name           string  `json:"name"`
	Age            int     `json:"age"`
	HeightCm       float64 `json:"height_cm"`
	WeightKg       float64 `json:"weight_kg"`
	BloodType      string  `json:"blood_type"`
	MedicalHistory string  `json:"medical_history"`
}

// DefaultProfile is the profile the kiosk boots with before anyone edits the settings.
func DefaultProfile() UserProfile {
	return UserProfile{
		Name:           "王大爷",
		Age:            75,
		HeightCm:       172,
		WeightKg:       68,
		BloodType:      "A",
		MedicalHistory: "高血压病史5年，规律服药",
	}
}
