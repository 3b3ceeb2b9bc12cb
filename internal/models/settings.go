package models

import "time"

// SystemSettings is the singleton policy record consumed by the rate
// limiter and the entry gates. Admin-mutated, read on every relevant
// action.
type SystemSettings struct {
	MaintenanceMode      bool      `json:"maintenanceMode"`
	NewUserRegistration  bool      `json:"newUserRegistration"`
	AlertCooldownMinutes int       `json:"alertCooldownMinutes"`
	MaxPostsPerDay       int       `json:"maxPostsPerDay"`
	AlertNotifications   bool      `json:"alertNotifications"`
	PushNotifications    bool      `json:"pushNotifications"`
	AutoModeration       bool      `json:"autoModeration"`
	UpdatedAt            time.Time `json:"updatedAt"`
	UpdatedBy            string    `json:"updatedBy,omitempty"`
}

// SettingsPatch is a partial update to the settings record; nil fields
// are left untouched.
type SettingsPatch struct {
	MaintenanceMode      *bool `json:"maintenanceMode,omitempty"`
	NewUserRegistration  *bool `json:"newUserRegistration,omitempty"`
	AlertCooldownMinutes *int  `json:"alertCooldownMinutes,omitempty"`
	MaxPostsPerDay       *int  `json:"maxPostsPerDay,omitempty"`
	AlertNotifications   *bool `json:"alertNotifications,omitempty"`
	PushNotifications    *bool `json:"pushNotifications,omitempty"`
	AutoModeration       *bool `json:"autoModeration,omitempty"`
}

// Apply merges the patch into s.
func (s *SystemSettings) Apply(p SettingsPatch) {
	if p.MaintenanceMode != nil {
		s.MaintenanceMode = *p.MaintenanceMode
	}
	if p.NewUserRegistration != nil {
		s.NewUserRegistration = *p.NewUserRegistration
	}
	if p.AlertCooldownMinutes != nil {
		s.AlertCooldownMinutes = *p.AlertCooldownMinutes
	}
	if p.MaxPostsPerDay != nil {
		s.MaxPostsPerDay = *p.MaxPostsPerDay
	}
	if p.AlertNotifications != nil {
		s.AlertNotifications = *p.AlertNotifications
	}
	if p.PushNotifications != nil {
		s.PushNotifications = *p.PushNotifications
	}
	if p.AutoModeration != nil {
		s.AutoModeration = *p.AutoModeration
	}
}
