package cache

import "github.com/google/uuid"

var keys = NewDefaultKeySerializer()

// Cache keys shared by readers and the mutation gateway.
var (
	DashboardSummary   = keys.SerializeKey("dashboard", "summary")
	DashboardFinancial = keys.SerializeKey("dashboard", "financial")
	DashboardTimeline  = keys.SerializeKey("dashboard", "timeline")
	Districts          = keys.SerializeKey("districts")
	BuildingsAll       = keys.SerializeKey("buildings", "all")
)

// DashboardKeys are dropped by every apartment write.
func DashboardKeys() []string {
	return []string{DashboardSummary, DashboardFinancial, DashboardTimeline}
}

// BuildingsKey returns the building listing key for a district, or the
// all-buildings key when districtID is nil.
func BuildingsKey(districtID *uuid.UUID) string {
	if districtID == nil {
		return BuildingsAll
	}
	return keys.SerializeKey("buildings", "district", *districtID)
}
