package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntityType is the kind of identifier a record flags
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityCompany      EntityType = "company"
	EntityOrganization EntityType = "organization"
	EntityOther        EntityType = "other"

	// Legacy types still accepted by older call sites
	EntityUser   EntityType = "user"
	EntityIP     EntityType = "ip"
	EntityEmail  EntityType = "email"
	EntityPhone  EntityType = "phone"
	EntityDomain EntityType = "domain"
)

// EntityTypes lists every accepted entity type
var EntityTypes = []EntityType{
	EntityPerson, EntityCompany, EntityOrganization, EntityOther,
	EntityUser, EntityIP, EntityEmail, EntityPhone, EntityDomain,
}

// Valid reports whether t is a known entity type
func (t EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RiskLevel is totally ordered: low < medium < high
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank maps a risk level to 0..2; unknown levels rank -1
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return -1
	}
}

// Valid reports whether r is a known risk level
func (r RiskLevel) Valid() bool {
	return r.Rank() >= 0
}

// RiskFromScore converts the 1..3 aggregation score back to a level
func RiskFromScore(score int) RiskLevel {
	switch score {
	case 3:
		return RiskHigh
	case 2:
		return RiskMedium
	case 1:
		return RiskLow
	default:
		return ""
	}
}

// Status is a record's position in the review lifecycle
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
	StatusRetracted Status = "retracted"
)

// Statuses lists every lifecycle state
var Statuses = []Status{StatusDraft, StatusPending, StatusPublished, StatusRejected, StatusRetracted}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Visibility controls who may see a record's details
type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityPrivate    Visibility = "private"
	VisibilityRestricted Visibility = "restricted"
)

// Valid reports whether v is a known visibility
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate || v == VisibilityRestricted
}

// Timeline actions
const (
	ActionCreate      = "create"
	ActionMerge       = "merge"
	ActionMergeSource = "merge_source"
	ActionRiskUpgrade = "risk_upgrade"
	ActionSubmit      = "submit"
	ActionPublish     = "publish"
	ActionReject      = "reject"
	ActionRetract     = "retract"
	ActionUpdate      = "update"
	ActionAddEvidence = "add_evidence"
)

// TimelineEntry is one audit log line embedded in a record
type TimelineEntry struct {
	Action string    `bson:"action" json:"action"`
	By     string    `bson:"by" json:"by"`
	At     time.Time `bson:"at" json:"at"`
	Note   string    `bson:"note,omitempty" json:"note,omitempty"`
}

// Evidence is supporting material attached to a record
type Evidence struct {
	Images      []string  `bson:"images" json:"images"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	UploadedBy  string    `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt  time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// BlacklistRecord is a flagged entity with its review state and audit trail
type BlacklistRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Type        EntityType         `bson:"type" json:"type"`
	Value       string             `bson:"value" json:"value"`
	CompanyName string             `bson:"company_name,omitempty" json:"company_name,omitempty"`
	RiskLevel   RiskLevel          `bson:"risk_level" json:"risk_level"`
	ReasonCode  string             `bson:"reason_code" json:"reason_code"`
	Reason      string             `bson:"reason" json:"reason"`
	Source      string             `bson:"source,omitempty" json:"source,omitempty"`
	Sources     []string           `bson:"sources" json:"sources"`
	Region      *string            `bson:"region" json:"region"`
	Status      Status             `bson:"status" json:"status"`
	Visibility  Visibility         `bson:"visibility" json:"visibility"`
	Sensitive   bool               `bson:"sensitive" json:"sensitive"`
	Operator    string             `bson:"operator" json:"operator"`
	ExpiresAt   *time.Time         `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	Timeline    []TimelineEntry    `bson:"timeline" json:"timeline"`
	Evidence    []Evidence         `bson:"evidence" json:"evidence"`
	Version     int64              `bson:"version" json:"version"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// MergeKey identifies "the same claim"
type MergeKey struct {
	Type       EntityType
	Value      string
	ReasonCode string
}

// String is used for lock and cache keys
func (k MergeKey) String() string {
	return string(k.Type) + "\x00" + k.Value + "\x00" + k.ReasonCode
}

// Key returns the record's merge key
func (r *BlacklistRecord) Key() MergeKey {
	return MergeKey{Type: r.Type, Value: r.Value, ReasonCode: r.ReasonCode}
}

// RegionValue returns the region or "" when unset
func (r *BlacklistRecord) RegionValue() string {
	if r.Region == nil {
		return ""
	}
	return *r.Region
}

// IsActive reports whether the record counts as blacklisted at now
func (r *BlacklistRecord) IsActive(now time.Time) bool {
	if r.Status != StatusPublished {
		return false
	}
	return r.ExpiresAt == nil || r.ExpiresAt.After(now)
}

// HasSource reports whether source was already merged into the record
func (r *BlacklistRecord) HasSource(source string) bool {
	for _, s := range r.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so pure transformations never alias the input
func (r *BlacklistRecord) Clone() *BlacklistRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Region != nil {
		region := *r.Region
		out.Region = &region
	}
	if r.ExpiresAt != nil {
		expires := *r.ExpiresAt
		out.ExpiresAt = &expires
	}
	out.Sources = append([]string{}, r.Sources...)
	out.Timeline = append([]TimelineEntry{}, r.Timeline...)
	out.Evidence = make([]Evidence, len(r.Evidence))
	for i, ev := range r.Evidence {
		ev.Images = append([]string(nil), ev.Images...)
		out.Evidence[i] = ev
	}
	return &out
}

// BlacklistFilter narrows record listings
type BlacklistFilter struct {
	Type       EntityType
	Status     Status
	RiskLevel  RiskLevel
	ReasonCode string
	Operator   string
	Query      string
}
