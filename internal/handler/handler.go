package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/service"
)

// Deps are the services the HTTP surface is built on. Checks, Review,
// Context and Metrics are optional.
type Deps struct {
	Pinger        Pinger
	Checks        map[string]Pinger
	TechStacks    service.CatalogService[model.TechStack]
	Architectures service.CatalogService[model.Architecture]
	Layers        service.CatalogService[model.Layer]
	Modules       service.CatalogService[model.Module]
	CodingRules   service.CatalogService[model.CodingRule]
	Templates     service.CatalogService[model.Template]
	Feedback      service.CatalogService[model.Feedback]
	Review        service.FeedbackService
	Context       service.ContextService

	Metrics     http.Handler
	MetricsPath string
}

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, d Deps) {
	h := NewHealthHandler(d.Pinger, d.Checks)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	// Docs endpoints (root-level)
	RegisterDocs(r)

	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(d.Metrics))
	}

	api := r.Group(APIV1Prefix) // Versioning added via single source of truth
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		NewCatalogHandler[model.TechStack, createTechStackRequest, techStackSearch](PathTechStacks, catalog.TechStacks.Schema, d.TechStacks).Register(api)
		NewCatalogHandler[model.Architecture, createArchitectureRequest, architectureSearch](PathArchitectures, catalog.Architectures.Schema, d.Architectures).Register(api)
		NewCatalogHandler[model.Layer, createLayerRequest, layerSearch](PathLayers, catalog.Layers.Schema, d.Layers).Register(api)
		NewCatalogHandler[model.Module, createModuleRequest, moduleSearch](PathModules, catalog.Modules.Schema, d.Modules).Register(api)
		NewCatalogHandler[model.CodingRule, createCodingRuleRequest, codingRuleSearch](PathCodingRules, catalog.CodingRules.Schema, d.CodingRules).Register(api)
		NewCatalogHandler[model.Template, createTemplateRequest, templateSearch](PathTemplates, catalog.Templates.Schema, d.Templates).Register(api)
		NewCatalogHandler[model.Feedback, createFeedbackRequest, feedbackSearch](PathFeedback, catalog.Feedback.Schema, d.Feedback).Register(api)
		if d.Review != nil {
			NewFeedbackHandler(d.Review).Register(api)
		}
		if d.Context != nil {
			NewContextHandler(d.Context).Register(api)
		}
	}
}
