package model

import "time"

// UsageLog records one successful verification call. Rows are append-only
// and removed only when the owning license is deleted.
type UsageLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	LicenseKey string    `json:"license_key" gorm:"index"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Hwid       string    `json:"hwid"`
	GeoCountry string    `json:"geo_country"`
	Timestamp  time.Time `json:"timestamp"`
}

// UsageSummary is the per-key fold over UsageLog rows. Derived at query
// time, never stored.
type UsageSummary struct {
	IPAddress  string    `json:"ip"`
	UserAgent  string    `json:"user_agent"`
	Hwid       string    `json:"hwid"`
	GeoCountry string    `json:"geo_country"`
	FirstLogin time.Time `json:"first_login"`
	LastLogin  time.Time `json:"last_login"`
	LoginCount int64     `json:"login_count"`
}
