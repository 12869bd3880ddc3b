// Package catalog declares every catalog entity once: its slice schema, the
// columns stores read and write, its unique keys and its position key. The
// Postgres and in-memory stores are both driven by these definitions.
package catalog

import (
	"slices"

	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
)

// Entity describes how one model type is stored and sliced.
type Entity[T any] struct {
	Schema slice.Schema
	// Columns are selected in this order and must match T's db tags.
	Columns []string
	// InsertColumns are written on create, in the order InsertArgs returns them.
	InsertColumns []string
	InsertArgs    func(T) []any
	// Immutable insert columns are left untouched by updates.
	Immutable []string
	// Unique lists column groups that must not repeat among live rows.
	Unique [][]string
	// Key yields the position key of a row.
	Key func(T) slice.Key
}

// Name is the entity name used in logs, metrics and errors.
func (e Entity[T]) Name() string { return e.Schema.Name }

// IsImmutable reports whether col keeps its value across updates.
func (e Entity[T]) IsImmutable(col string) bool { return slices.Contains(e.Immutable, col) }

// HasColumn reports whether col is selected for the entity.
func (e Entity[T]) HasColumn(col string) bool { return slices.Contains(e.Columns, col) }

// StatusColumn holds the lifecycle state of entities that have one.
const StatusColumn = "status"

// Filter dimension names shared by request binding and criteria building.
const (
	DimStatus         = "status"
	DimLanguage       = "language"
	DimTechStackID    = "tech_stack_id"
	DimPattern        = "pattern"
	DimArchitectureID = "architecture_id"
	DimCode           = "code"
	DimLayerID        = "layer_id"
	DimSeverity       = "severity"
	DimCategory       = "category"
	DimKind           = "kind"
	DimTargetType     = "target_type"
	DimFeedbackType   = "feedback_type"
	DimRiskLevel      = "risk_level"
)

const (
	colID        = "id"
	colCreatedAt = "created_at"
	colUpdatedAt = "updated_at"
	colDeletedAt = "deleted_at"
)

func withAudit(cols ...string) []string {
	out := append([]string{colID}, cols...)
	return append(out, colCreatedAt, colUpdatedAt)
}

func withSoftDelete(cols ...string) []string {
	return append(withAudit(cols...), colDeletedAt)
}

var TechStacks = Entity[model.TechStack]{
	Schema: slice.Schema{
		Name:             "tech_stack",
		Table:            "tech_stacks",
		PositionColumn:   colID,
		SoftDeleteColumn: colDeletedAt,
		Dimensions:       map[string]string{DimStatus: "status", DimLanguage: "language"},
		SearchFields: map[slice.SearchField]string{
			"NAME":      "name",
			"LANGUAGE":  "language",
			"FRAMEWORK": "framework",
		},
	},
	Columns:       withSoftDelete("name", "language", "framework", "status"),
	InsertColumns: []string{"name", "language", "framework", "status"},
	InsertArgs: func(t model.TechStack) []any {
		return []any{t.Name, t.Language, t.Framework, t.Status}
	},
	Unique: [][]string{{"name"}},
	Key:    func(t model.TechStack) slice.Key { return t.ID },
}

var Architectures = Entity[model.Architecture]{
	Schema: slice.Schema{
		Name:             "architecture",
		Table:            "architectures",
		PositionColumn:   colID,
		SoftDeleteColumn: colDeletedAt,
		Dimensions:       map[string]string{DimTechStackID: "tech_stack_id", DimPattern: "pattern"},
		SearchFields: map[slice.SearchField]string{
			"NAME":        "name",
			"DESCRIPTION": "description",
		},
	},
	Columns:       withSoftDelete("tech_stack_id", "name", "pattern", "description"),
	InsertColumns: []string{"tech_stack_id", "name", "pattern", "description"},
	InsertArgs: func(a model.Architecture) []any {
		return []any{a.TechStackID, a.Name, a.Pattern, a.Description}
	},
	Unique: [][]string{{"tech_stack_id", "name"}},
	Key:    func(a model.Architecture) slice.Key { return a.ID },
}

var Layers = Entity[model.Layer]{
	Schema: slice.Schema{
		Name:             "layer",
		Table:            "layers",
		PositionColumn:   colID,
		SoftDeleteColumn: colDeletedAt,
		Dimensions:       map[string]string{DimArchitectureID: "architecture_id", DimCode: "code"},
		SearchFields: map[slice.SearchField]string{
			"CODE":        "code",
			"NAME":        "name",
			"DESCRIPTION": "description",
		},
	},
	Columns:       withSoftDelete("architecture_id", "code", "name", "description", "order_index"),
	InsertColumns: []string{"architecture_id", "code", "name", "description", "order_index"},
	InsertArgs: func(l model.Layer) []any {
		return []any{l.ArchitectureID, l.Code, l.Name, l.Description, l.OrderIndex}
	},
	Unique: [][]string{{"architecture_id", "code"}},
	Key:    func(l model.Layer) slice.Key { return l.ID },
}

var Modules = Entity[model.Module]{
	Schema: slice.Schema{
		Name:             "module",
		Table:            "modules",
		PositionColumn:   colID,
		SoftDeleteColumn: colDeletedAt,
		Dimensions:       map[string]string{DimLayerID: "layer_id"},
		SearchFields: map[slice.SearchField]string{
			"NAME":        "name",
			"PATH":        "path",
			"DESCRIPTION": "description",
		},
	},
	Columns:       withSoftDelete("layer_id", "name", "path", "description"),
	InsertColumns: []string{"layer_id", "name", "path", "description"},
	InsertArgs: func(m model.Module) []any {
		return []any{m.LayerID, m.Name, m.Path, m.Description}
	},
	Unique: [][]string{{"layer_id", "name"}},
	Key:    func(m model.Module) slice.Key { return m.ID },
}

var CodingRules = Entity[model.CodingRule]{
	Schema: slice.Schema{
		Name:             "coding_rule",
		Table:            "coding_rules",
		PositionColumn:   colID,
		SoftDeleteColumn: colDeletedAt,
		Dimensions: map[string]string{
			DimLayerID:  "layer_id",
			DimSeverity: "severity",
			DimCategory: "category",
		},
		SearchFields: map[slice.SearchField]string{
			"CODE":        "code",
			"NAME":        "name",
			"DESCRIPTION": "description",
		},
	},
	Columns:       withSoftDelete("layer_id", "code", "name", "severity", "category", "description", "auto_fixable"),
	InsertColumns: []string{"layer_id", "code", "name", "severity", "category", "description", "auto_fixable"},
	InsertArgs: func(r model.CodingRule) []any {
		return []any{r.LayerID, r.Code, r.Name, r.Severity, r.Category, r.Description, r.AutoFixable}
	},
	Unique: [][]string{{"code"}},
	Key:    func(r model.CodingRule) slice.Key { return r.ID },
}

var Templates = Entity[model.Template]{
	Schema: slice.Schema{
		Name:             "template",
		Table:            "templates",
		PositionColumn:   colID,
		SoftDeleteColumn: colDeletedAt,
		Dimensions:       map[string]string{DimLayerID: "layer_id", DimKind: "kind"},
		SearchFields: map[slice.SearchField]string{
			"NAME":        "name",
			"DESCRIPTION": "description",
		},
	},
	Columns:       withSoftDelete("layer_id", "name", "kind", "content", "description"),
	InsertColumns: []string{"layer_id", "name", "kind", "content", "description"},
	InsertArgs: func(t model.Template) []any {
		return []any{t.LayerID, t.Name, t.Kind, t.Content, t.Description}
	},
	Unique: [][]string{{"layer_id", "name"}},
	Key:    func(t model.Template) slice.Key { return t.ID },
}

// Feedback has no soft-delete column; deleting it removes the row.
var Feedback = Entity[model.Feedback]{
	Schema: slice.Schema{
		Name:           "feedback",
		Table:          "feedback",
		PositionColumn: colID,
		Dimensions: map[string]string{
			DimStatus:       "status",
			DimTargetType:   "target_type",
			DimFeedbackType: "feedback_type",
			DimRiskLevel:    "risk_level",
		},
		SearchFields: map[slice.SearchField]string{"PAYLOAD": "payload"},
	},
	Columns:       withAudit("target_type", "target_id", "feedback_type", "status", "risk_level", "payload"),
	InsertColumns: []string{"target_type", "target_id", "feedback_type", "status", "risk_level", "payload"},
	InsertArgs: func(f model.Feedback) []any {
		return []any{f.TargetType, f.TargetID, f.FeedbackType, f.Status, f.RiskLevel, f.Payload}
	},
	// Status only moves through the review transitions.
	Immutable: []string{"status"},
	Key:       func(f model.Feedback) slice.Key { return f.ID },
}
