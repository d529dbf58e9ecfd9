// Package dto
package dto

// DashboardStats aggregates the admin landing page numbers.
type DashboardStats struct {
	ActiveEstablishments int64            `json:"active_establishments"`
	PendingApproval      int64            `json:"pending_approval"`
	PendingUpdate        int64            `json:"pending_update"`
	PendingDeletion      int64            `json:"pending_deletion"`
	Courses              int64            `json:"courses"`
	Users                int64            `json:"users"`
	HomeViews            int64            `json:"home_views"`
	EspacoMeiViews       int64            `json:"espaco_mei_views"`
	ProfileShares        int64            `json:"profile_shares"`
	Redirects            int64            `json:"redirects"`
	CategoryViews        map[string]int64 `json:"category_views"`
	CourseViews          map[string]int64 `json:"course_views"`
	GeneratedAt          string           `json:"generated_at"`
}

// CounterDTO is one view counter row.
type CounterDTO struct {
	Identifier string `json:"identifier" example:"CAT_DOCES___BOLOS"`
	Count      int64  `json:"count" example:"42"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}
