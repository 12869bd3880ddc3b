package handler

// APIV1Prefix is the canonical base path for public HTTP API v1.
// Keep a single source of truth to avoid path drift across handlers and tests.
const APIV1Prefix = "/api/v1"

// Collection paths under APIV1Prefix.
const (
	PathTechStacks    = "/tech-stacks"
	PathArchitectures = "/architectures"
	PathLayers        = "/layers"
	PathModules       = "/modules"
	PathCodingRules   = "/coding-rules"
	PathTemplates     = "/templates"
	PathFeedback      = "/feedback"
	PathContext       = "/context"
)
