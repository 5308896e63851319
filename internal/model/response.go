package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SessionSnapshot is the JSON view of the current browser session.
type SessionSnapshot struct {
	Status          string        `json:"status"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	IsLoading       bool          `json:"isLoading"`
	User            *Identity     `json:"user,omitempty"`
	UserRole        Role          `json:"userRole,omitempty"`
	Notification    *Notification `json:"notification,omitempty"`
	SidebarOpen     bool          `json:"sidebarOpen"`
}
