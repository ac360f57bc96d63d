package dto

type DarkModeResponse struct {
	DarkMode bool `json:"dark_mode"`
}

type SetDarkModeRequest struct {
	DarkMode bool `json:"dark_mode"`
}
