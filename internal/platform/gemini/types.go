package gemini

// responseSchema is the JSON structure the model is instructed to return.
type responseSchema struct {
	Summary string           `json:"summary"`
	Changes []responseChange `json:"changes"`
}

// responseChange is one difference entry in the model response.
type responseChange struct {
	Section string `json:"section"`
	Type    string `json:"type"`
	Detail  string `json:"detail"`
}
