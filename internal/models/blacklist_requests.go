package models

import "time"

// Submission is a candidate claim posted by a contributor
type Submission struct {
	Type        EntityType `json:"type" validate:"required,entity_type"`
	Value       string     `json:"value" validate:"required,max=500"`
	CompanyName string     `json:"company_name,omitempty" validate:"max=200"`
	Reason      string     `json:"reason" validate:"required,max=1000"`
	ReasonCode  string     `json:"reason_code" validate:"required,reason_code"`
	RiskLevel   RiskLevel  `json:"risk_level" validate:"required,risk_level"`
	Source      string     `json:"source,omitempty" validate:"max=64"`
	Region      string     `json:"region,omitempty" validate:"max=64"`
	Visibility  Visibility `json:"visibility,omitempty" validate:"omitempty,visibility"`
	Sensitive   bool       `json:"sensitive,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// SubmitResult reports whether a submission created a record or merged into one
type SubmitResult struct {
	Merged bool             `json:"merged"`
	Doc    *BlacklistRecord `json:"doc"`
}

// UpdateRequest is the partial patch accepted by PUT /blacklist/:id.
// Nil fields are left untouched.
type UpdateRequest struct {
	Status      *Status     `json:"status,omitempty" validate:"omitempty,status"`
	Type        *EntityType `json:"type,omitempty" validate:"omitempty,entity_type"`
	Value       *string     `json:"value,omitempty" validate:"omitempty,min=1,max=500"`
	CompanyName *string     `json:"company_name,omitempty" validate:"omitempty,max=200"`
	Reason      *string     `json:"reason,omitempty" validate:"omitempty,min=1,max=1000"`
	ReasonCode  *string     `json:"reason_code,omitempty" validate:"omitempty,reason_code"`
	RiskLevel   *RiskLevel  `json:"risk_level,omitempty" validate:"omitempty,risk_level"`
	Source      *string     `json:"source,omitempty" validate:"omitempty,min=1,max=64"`
	Region      *string     `json:"region,omitempty" validate:"omitempty,max=64"`
	Visibility  *Visibility `json:"visibility,omitempty" validate:"omitempty,visibility"`
	Sensitive   *bool       `json:"sensitive,omitempty"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
}

// EvidenceRequest appends evidence metadata to a record
type EvidenceRequest struct {
	Images      []string `json:"images" validate:"max=10,dive,required,max=500"`
	Description string   `json:"description" validate:"max=1000"`
}
