package models

type GenerateRequest struct {
	Prompt      string `json:"prompt"`
	Context     string `json:"context,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	Category    string `json:"category,omitempty"`
}

type ServiceStatus struct {
	Available bool              `json:"available"`
	BaseURL   string            `json:"base_url"`
	Models    map[string]string `json:"models"`
}

type ModelExists struct {
	Model  string `json:"model"`
	Exists bool   `json:"exists"`
}
