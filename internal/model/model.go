// Package model contains catalog entities shared across layers.
// I keep it lean and focused on data shapes; db tags name the columns the
// stores read and write, validate tags are checked by the service layer.
package model

import "time"

// Tech stack lifecycle states.
const (
	TechStackActive     = "ACTIVE"
	TechStackDeprecated = "DEPRECATED"
)

// TechStack is a language/framework combination conventions are written for.
type TechStack struct {
	ID        int64      `db:"id" json:"id"`
	Name      string     `db:"name" json:"name" validate:"required,min=2,max=100"`
	Language  string     `db:"language" json:"language" validate:"required,max=50"`
	Framework string     `db:"framework" json:"framework" validate:"max=100"`
	Status    string     `db:"status" json:"status" validate:"required,oneof=ACTIVE DEPRECATED"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Architecture is an architectural style applied to a tech stack.
type Architecture struct {
	ID          int64      `db:"id" json:"id"`
	TechStackID int64      `db:"tech_stack_id" json:"tech_stack_id" validate:"required,gt=0"`
	Name        string     `db:"name" json:"name" validate:"required,min=2,max=100"`
	Pattern     string     `db:"pattern" json:"pattern" validate:"required,oneof=HEXAGONAL LAYERED CLEAN MODULAR"`
	Description string     `db:"description" json:"description" validate:"max=2000"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Layer is one layer of an architecture, e.g. DOMAIN or ADAPTER_IN.
type Layer struct {
	ID             int64      `db:"id" json:"id"`
	ArchitectureID int64      `db:"architecture_id" json:"architecture_id" validate:"required,gt=0"`
	Code           string     `db:"code" json:"code" validate:"required,max=50"`
	Name           string     `db:"name" json:"name" validate:"required,max=100"`
	Description    string     `db:"description" json:"description" validate:"max=2000"`
	OrderIndex     int        `db:"order_index" json:"order_index" validate:"gte=0"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Module is a build module that belongs to a layer.
type Module struct {
	ID          int64      `db:"id" json:"id"`
	LayerID     int64      `db:"layer_id" json:"layer_id" validate:"required,gt=0"`
	Name        string     `db:"name" json:"name" validate:"required,max=100"`
	Path        string     `db:"path" json:"path" validate:"required,max=300"`
	Description string     `db:"description" json:"description" validate:"max=2000"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Coding rule severities and categories.
const (
	SeverityBlocker  = "BLOCKER"
	SeverityCritical = "CRITICAL"
	SeverityMajor    = "MAJOR"
	SeverityMinor    = "MINOR"
	SeverityInfo     = "INFO"
)

// CodingRule is a rule generated code must follow inside a layer.
type CodingRule struct {
	ID          int64      `db:"id" json:"id"`
	LayerID     int64      `db:"layer_id" json:"layer_id" validate:"required,gt=0"`
	Code        string     `db:"code" json:"code" validate:"required,max=20"`
	Name        string     `db:"name" json:"name" validate:"required,max=200"`
	Severity    string     `db:"severity" json:"severity" validate:"required,oneof=BLOCKER CRITICAL MAJOR MINOR INFO"`
	Category    string     `db:"category" json:"category" validate:"required,oneof=NAMING STRUCTURE DEPENDENCY ANNOTATION TESTING STYLE"`
	Description string     `db:"description" json:"description" validate:"required"`
	AutoFixable bool       `db:"auto_fixable" json:"auto_fixable"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Template is a code or config skeleton for a layer.
type Template struct {
	ID          int64      `db:"id" json:"id"`
	LayerID     int64      `db:"layer_id" json:"layer_id" validate:"required,gt=0"`
	Name        string     `db:"name" json:"name" validate:"required,max=100"`
	Kind        string     `db:"kind" json:"kind" validate:"required,oneof=CLASS CONFIG RESOURCE TEST"`
	Content     string     `db:"content" json:"content" validate:"required"`
	Description string     `db:"description" json:"description" validate:"max=2000"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Feedback review states.
const (
	FeedbackPending     = "PENDING"
	FeedbackLLMApproved = "LLM_APPROVED"
	FeedbackApproved    = "APPROVED"
	FeedbackRejected    = "REJECTED"
	FeedbackMerged      = "MERGED"
)

// Feedback risk levels. SAFE changes merge without human review.
const (
	RiskSafe   = "SAFE"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Feedback is a queued suggestion from code-generation tooling about a catalog
// entry. It is hard-deleted, so it has no deleted_at column.
type Feedback struct {
	ID           int64     `db:"id" json:"id"`
	TargetType   string    `db:"target_type" json:"target_type" validate:"required,oneof=CODING_RULE TEMPLATE MODULE LAYER"`
	TargetID     int64     `db:"target_id" json:"target_id" validate:"gte=0"`
	FeedbackType string    `db:"feedback_type" json:"feedback_type" validate:"required,oneof=ADD MODIFY DELETE"`
	Status       string    `db:"status" json:"status" validate:"required,oneof=PENDING LLM_APPROVED APPROVED REJECTED MERGED"`
	RiskLevel    string    `db:"risk_level" json:"risk_level" validate:"required,oneof=SAFE MEDIUM HIGH"`
	Payload      string    `db:"payload" json:"payload" validate:"required"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
