package dto

// CompanyCreatedResponse returns the workspace and its one-time access code.
type CompanyCreatedResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	AccessCode string `json:"accessCode"`
}

// AccessCodeResponse returns a rotated access code exactly once.
type AccessCodeResponse struct {
	Slug       string `json:"slug"`
	AccessCode string `json:"accessCode"`
}

// MonthStatusResponse reports a month header after close or reopen.
type MonthStatusResponse struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Status string `json:"status"`
}

// ExportLinkResponse is a signed download link.
type ExportLinkResponse struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expiresAt"`
}

// MetaResponse describes the service for clients.
type MetaResponse struct {
	Service    string   `json:"service"`
	Version    string   `json:"version"`
	Categories []string `json:"categories"`
	Rounding   []string `json:"rounding"`
}
