package tasks

// Task types
const (
	TypeTenantCacheWarmup = "tenant:cache_warmup"
	TypeSoftDeleteReport  = "tenant:softdelete_report"
)

// CacheWarmupPayload cache warm-up task payload
type CacheWarmupPayload struct {
	RequestedBy string `json:"requested_by"`
}

// SoftDeleteReportPayload soft-delete report task payload. Empty Tables means
// every registered tenant-scoped table.
type SoftDeleteReportPayload struct {
	RequestedBy string   `json:"requested_by"`
	Tables      []string `json:"tables,omitempty"`
}
