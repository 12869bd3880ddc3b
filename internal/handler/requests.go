package handler

import (
	"errors"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/service"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
)

// Create bodies. Field rules live on the model and are checked by the service.

type createTechStackRequest struct {
	Name      string `json:"name"`
	Language  string `json:"language"`
	Framework string `json:"framework"`
	Status    string `json:"status"`
}

func (r createTechStackRequest) toModel() model.TechStack {
	status := strings.TrimSpace(r.Status)
	if status == "" {
		status = model.TechStackActive
	}
	return model.TechStack{
		Name:      strings.TrimSpace(r.Name),
		Language:  strings.TrimSpace(r.Language),
		Framework: strings.TrimSpace(r.Framework),
		Status:    status,
	}
}

type createArchitectureRequest struct {
	TechStackID int64  `json:"tech_stack_id"`
	Name        string `json:"name"`
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
}

func (r createArchitectureRequest) toModel() model.Architecture {
	return model.Architecture{
		TechStackID: r.TechStackID,
		Name:        strings.TrimSpace(r.Name),
		Pattern:     strings.TrimSpace(r.Pattern),
		Description: r.Description,
	}
}

type createLayerRequest struct {
	ArchitectureID int64  `json:"architecture_id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	OrderIndex     int    `json:"order_index"`
}

func (r createLayerRequest) toModel() model.Layer {
	return model.Layer{
		ArchitectureID: r.ArchitectureID,
		Code:           strings.ToUpper(strings.TrimSpace(r.Code)),
		Name:           strings.TrimSpace(r.Name),
		Description:    r.Description,
		OrderIndex:     r.OrderIndex,
	}
}

type createModuleRequest struct {
	LayerID     int64  `json:"layer_id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

func (r createModuleRequest) toModel() model.Module {
	return model.Module{
		LayerID:     r.LayerID,
		Name:        strings.TrimSpace(r.Name),
		Path:        strings.TrimSpace(r.Path),
		Description: r.Description,
	}
}

type createCodingRuleRequest struct {
	LayerID     int64  `json:"layer_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Description string `json:"description"`
	AutoFixable bool   `json:"auto_fixable"`
}

func (r createCodingRuleRequest) toModel() model.CodingRule {
	return model.CodingRule{
		LayerID:     r.LayerID,
		Code:        strings.TrimSpace(r.Code),
		Name:        strings.TrimSpace(r.Name),
		Severity:    strings.TrimSpace(r.Severity),
		Category:    strings.TrimSpace(r.Category),
		Description: r.Description,
		AutoFixable: r.AutoFixable,
	}
}

type createTemplateRequest struct {
	LayerID     int64  `json:"layer_id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

func (r createTemplateRequest) toModel() model.Template {
	return model.Template{
		LayerID:     r.LayerID,
		Name:        strings.TrimSpace(r.Name),
		Kind:        strings.TrimSpace(r.Kind),
		Content:     r.Content,
		Description: r.Description,
	}
}

type createFeedbackRequest struct {
	TargetType   string `json:"target_type"`
	TargetID     int64  `json:"target_id"`
	FeedbackType string `json:"feedback_type"`
	RiskLevel    string `json:"risk_level"`
	Payload      string `json:"payload"`
}

// New feedback always enters the queue as PENDING.
func (r createFeedbackRequest) toModel() model.Feedback {
	return model.Feedback{
		TargetType:   strings.TrimSpace(r.TargetType),
		TargetID:     r.TargetID,
		FeedbackType: strings.TrimSpace(r.FeedbackType),
		Status:       model.FeedbackPending,
		RiskLevel:    strings.TrimSpace(r.RiskLevel),
		Payload:      r.Payload,
	}
}

// Search filters. Every dimension accepts repeated parameters and
// comma-separated lists; an empty list means "no constraint".

type techStackSearch struct {
	Status   []string `form:"status" validate:"dive,oneof=ACTIVE DEPRECATED"`
	Language []string `form:"language" validate:"dive,max=50"`
}

func (s *techStackSearch) normalize() {
	s.Status = splitValues(s.Status, true)
	s.Language = splitValues(s.Language, false)
}

func (s *techStackSearch) options() ([]slice.Option, error) {
	return []slice.Option{
		slice.WithIn(catalog.DimStatus, s.Status),
		slice.WithIn(catalog.DimLanguage, s.Language),
	}, nil
}

type architectureSearch struct {
	TechStackID []string `form:"tech_stack_id"`
	Pattern     []string `form:"pattern" validate:"dive,oneof=HEXAGONAL LAYERED CLEAN MODULAR"`
}

func (s *architectureSearch) normalize() {
	s.TechStackID = splitValues(s.TechStackID, false)
	s.Pattern = splitValues(s.Pattern, true)
}

func (s *architectureSearch) options() ([]slice.Option, error) {
	ids, err := parseIDs("tech_stack_id", s.TechStackID)
	if err != nil {
		return nil, err
	}
	return []slice.Option{
		slice.WithIn(catalog.DimTechStackID, ids),
		slice.WithIn(catalog.DimPattern, s.Pattern),
	}, nil
}

type layerSearch struct {
	ArchitectureID []string `form:"architecture_id"`
	Code           []string `form:"code" validate:"dive,max=50"`
}

func (s *layerSearch) normalize() {
	s.ArchitectureID = splitValues(s.ArchitectureID, false)
	s.Code = splitValues(s.Code, true)
}

func (s *layerSearch) options() ([]slice.Option, error) {
	ids, err := parseIDs("architecture_id", s.ArchitectureID)
	if err != nil {
		return nil, err
	}
	return []slice.Option{
		slice.WithIn(catalog.DimArchitectureID, ids),
		slice.WithIn(catalog.DimCode, s.Code),
	}, nil
}

type moduleSearch struct {
	LayerID []string `form:"layer_id"`
}

func (s *moduleSearch) normalize() { s.LayerID = splitValues(s.LayerID, false) }

func (s *moduleSearch) options() ([]slice.Option, error) {
	ids, err := parseIDs("layer_id", s.LayerID)
	if err != nil {
		return nil, err
	}
	return []slice.Option{slice.WithIn(catalog.DimLayerID, ids)}, nil
}

type codingRuleSearch struct {
	LayerID  []string `form:"layer_id"`
	Severity []string `form:"severity" validate:"dive,oneof=BLOCKER CRITICAL MAJOR MINOR INFO"`
	Category []string `form:"category" validate:"dive,oneof=NAMING STRUCTURE DEPENDENCY ANNOTATION TESTING STYLE"`
}

func (s *codingRuleSearch) normalize() {
	s.LayerID = splitValues(s.LayerID, false)
	s.Severity = splitValues(s.Severity, true)
	s.Category = splitValues(s.Category, true)
}

func (s *codingRuleSearch) options() ([]slice.Option, error) {
	ids, err := parseIDs("layer_id", s.LayerID)
	if err != nil {
		return nil, err
	}
	return []slice.Option{
		slice.WithIn(catalog.DimLayerID, ids),
		slice.WithIn(catalog.DimSeverity, s.Severity),
		slice.WithIn(catalog.DimCategory, s.Category),
	}, nil
}

type templateSearch struct {
	LayerID []string `form:"layer_id"`
	Kind    []string `form:"kind" validate:"dive,oneof=CLASS CONFIG RESOURCE TEST"`
}

func (s *templateSearch) normalize() {
	s.LayerID = splitValues(s.LayerID, false)
	s.Kind = splitValues(s.Kind, true)
}

func (s *templateSearch) options() ([]slice.Option, error) {
	ids, err := parseIDs("layer_id", s.LayerID)
	if err != nil {
		return nil, err
	}
	return []slice.Option{
		slice.WithIn(catalog.DimLayerID, ids),
		slice.WithIn(catalog.DimKind, s.Kind),
	}, nil
}

type feedbackSearch struct {
	Status       []string `form:"status" validate:"dive,oneof=PENDING LLM_APPROVED APPROVED REJECTED MERGED"`
	TargetType   []string `form:"target_type" validate:"dive,oneof=CODING_RULE TEMPLATE MODULE LAYER"`
	FeedbackType []string `form:"feedback_type" validate:"dive,oneof=ADD MODIFY DELETE"`
	RiskLevel    []string `form:"risk_level" validate:"dive,oneof=SAFE MEDIUM HIGH"`
}

func (s *feedbackSearch) normalize() {
	s.Status = splitValues(s.Status, true)
	s.TargetType = splitValues(s.TargetType, true)
	s.FeedbackType = splitValues(s.FeedbackType, true)
	s.RiskLevel = splitValues(s.RiskLevel, true)
}

func (s *feedbackSearch) options() ([]slice.Option, error) {
	return []slice.Option{
		slice.WithIn(catalog.DimStatus, s.Status),
		slice.WithIn(catalog.DimTargetType, s.TargetType),
		slice.WithIn(catalog.DimFeedbackType, s.FeedbackType),
		slice.WithIn(catalog.DimRiskLevel, s.RiskLevel),
	}, nil
}

// splitValues flattens repeated and comma-separated values, dropping blanks.
func splitValues(in []string, upper bool) []string {
	var out []string
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if upper {
				part = strings.ToUpper(part)
			}
			out = append(out, part)
		}
	}
	return out
}

func parseIDs(field string, in []string) ([]int64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]int64, 0, len(in))
	for _, s := range in {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return nil, service.NewInvalidInput(service.FieldError{Field: field, Message: "must be positive integers"})
		}
		out = append(out, id)
	}
	return out, nil
}

var filterValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string { return f.Tag.Get("form") })
	return v
}()

func validateFilter(filter any) []service.FieldError {
	err := filterValidator.Struct(filter)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []service.FieldError{{Field: "query", Message: err.Error()}}
	}
	out := make([]service.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := "is invalid"
		switch fe.Tag() {
		case "oneof":
			msg = "must be one of: " + fe.Param()
		case "max":
			msg = "length must be at most " + fe.Param()
		}
		// dive reports elements as field[i]; the client sent field.
		field, _, _ := strings.Cut(fe.Field(), "[")
		out = append(out, service.FieldError{Field: field, Message: msg})
	}
	return out
}

func searchFields(schema slice.Schema) string {
	names := make([]string, 0, len(schema.SearchFields))
	for f := range schema.SearchFields {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}
