package models

import "time"

// LookupResult answers "is this entity currently blacklisted"
type LookupResult struct {
	Hit          bool           `json:"hit"`
	Type         EntityType     `json:"type"`
	Value        string         `json:"value"`
	RiskLevel    RiskLevel      `json:"risk_level,omitempty"`
	Status       Status         `json:"status,omitempty"`
	SourcesCount int            `json:"sources_count"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`
	Records      []RecordDigest `json:"records,omitempty"`
	Summary      *LookupSummary `json:"summary,omitempty"`
}

// RecordDigest is the public, masked view of a record returned by detailed lookups
type RecordDigest struct {
	ID         string     `json:"id"`
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	RiskLevel  RiskLevel  `json:"risk_level"`
	ReasonCode string     `json:"reason_code"`
	Reason     string     `json:"reason,omitempty"`
	Status     Status     `json:"status"`
	Region     *string    `json:"region"`
	Active     bool       `json:"active"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// LookupSummary aggregates every record matched by an enhanced lookup
type LookupSummary struct {
	TotalRecords     int               `json:"total_records"`
	ActiveRecords    int               `json:"active_records"`
	RiskDistribution map[RiskLevel]int `json:"risk_distribution"`
	LatestActivity   *time.Time        `json:"latest_activity,omitempty"`
}

// OffenderSort orders the defaulters ranking
type OffenderSort string

const (
	SortByCount  OffenderSort = "count"
	SortByRecent OffenderSort = "recent"
	SortByRisk   OffenderSort = "risk"
)

// TimeRange restricts the ranking to records created recently
type TimeRange string

const (
	RangeAll   TimeRange = "all"
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
)

// OffenderQuery is the validated input of the defaulters ranking
type OffenderQuery struct {
	Type         EntityType
	RiskLevel    RiskLevel
	Sort         OffenderSort
	CreatedSince *time.Time
	Page         int
	PageSize     int
}

// OffenderRow is one (type, value) group in the defaulters ranking
type OffenderRow struct {
	Type        EntityType `bson:"type" json:"type"`
	Value       string     `bson:"value" json:"value"`
	Count       int        `bson:"count" json:"count"`
	LastUpdated time.Time  `bson:"lastUpdated" json:"last_updated"`
	Risk        int        `bson:"risk" json:"risk"`
	RiskLevel   RiskLevel  `bson:"-" json:"risk_level"`
}

// OffenderPage is a page of the defaulters ranking
type OffenderPage struct {
	Items    []OffenderRow `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// ContributorRow ranks operators by submitted records
type ContributorRow struct {
	Operator  string `bson:"_id" json:"operator"`
	Total     int    `bson:"total" json:"total"`
	Published int    `bson:"published" json:"published"`
}

// ReasonCodeRow ranks reason codes by usage
type ReasonCodeRow struct {
	ReasonCode string `bson:"_id" json:"reason_code"`
	Count      int    `bson:"count" json:"count"`
}

// Rankings is the leaderboard payload
type Rankings struct {
	Contributors []ContributorRow `json:"contributors"`
	ReasonCodes  []ReasonCodeRow  `json:"reason_codes"`
}
