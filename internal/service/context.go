package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/maxviazov/convention-catalog-service/internal/cache"
	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ConventionContext is the full convention tree of one tech stack.
type ConventionContext struct {
	TechStack     model.TechStack       `json:"tech_stack"`
	Architectures []ArchitectureContext `json:"architectures"`
}

type ArchitectureContext struct {
	model.Architecture
	Layers []LayerContext `json:"layers"`
}

type LayerContext struct {
	model.Layer
	Modules     []model.Module     `json:"modules"`
	CodingRules []model.CodingRule `json:"coding_rules"`
	Templates   []model.Template   `json:"templates"`
}

// Catalogs groups the per-entity services the context is assembled from.
type Catalogs struct {
	TechStacks    *Catalog[model.TechStack]
	Architectures *Catalog[model.Architecture]
	Layers        *Catalog[model.Layer]
	Modules       *Catalog[model.Module]
	CodingRules   *Catalog[model.CodingRule]
	Templates     *Catalog[model.Template]
}

type contextService struct {
	c     Catalogs
	cache cache.Cache[ConventionContext]
	log   zerolog.Logger
}

// NewContextService builds the aggregator. A nil cache disables caching.
// Any write through one of the catalogs purges the cache: a single rule
// change can touch every cached tree of its tech stack, and a deleted tech
// stack must stop being served at once.
func NewContextService(c Catalogs, cc cache.Cache[ConventionContext], logger zerolog.Logger) ContextService {
	if cc == nil {
		cc = cache.Noop[ConventionContext]{}
	}
	l := logger.With().Str("module", "service").Str("component", "context").Logger()
	s := &contextService{c: c, cache: cc, log: l}
	for _, h := range []interface{ OnChange(func(context.Context)) }{
		c.TechStacks, c.Architectures, c.Layers, c.Modules, c.CodingRules, c.Templates,
	} {
		h.OnChange(s.invalidate)
	}
	return s
}

func (s *contextService) invalidate(ctx context.Context) {
	if err := s.cache.Purge(ctx); err != nil {
		s.log.Warn().Err(err).Msg("context cache purge failed")
		return
	}
	s.log.Debug().Msg("context cache purged")
}

// ContextCacheKey is the cache key for a tech stack and a set of layer codes;
// code order and case do not matter.
func ContextCacheKey(techStackID int64, layerCodes []string) string {
	codes := normalizeCodes(layerCodes)
	sort.Strings(codes)
	return strconv.FormatInt(techStackID, 10) + ":" + strings.Join(codes, ",")
}

func normalizeCodes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ConventionContext walks architectures, then layers (optionally narrowed
// to layerCodes), then fetches modules, rules and templates of those layers
// concurrently. Every level is read through the slice engine.
func (s *contextService) ConventionContext(ctx context.Context, techStackID int64, layerCodes []string) (ConventionContext, error) {
	start := time.Now()
	key := ContextCacheKey(techStackID, layerCodes)
	if hit, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("context cache read failed")
	} else if hit != nil {
		s.log.Debug().Str("key", key).Msg("context cache hit")
		return *hit, nil
	}

	ts, err := s.c.TechStacks.Get(ctx, techStackID)
	if err != nil {
		return ConventionContext{}, err
	}

	archs, err := s.c.Architectures.All(ctx, slice.WithIn(catalog.DimTechStackID, []int64{ts.ID}))
	if err != nil {
		return ConventionContext{}, err
	}
	out := ConventionContext{TechStack: ts, Architectures: make([]ArchitectureContext, 0, len(archs))}
	if len(archs) == 0 {
		s.store(ctx, key, &out)
		return out, nil
	}

	archIDs := make([]int64, len(archs))
	for i, a := range archs {
		archIDs[i] = a.ID
	}
	layers, err := s.c.Layers.All(ctx,
		slice.WithIn(catalog.DimArchitectureID, archIDs),
		slice.WithIn(catalog.DimCode, normalizeCodes(layerCodes)),
	)
	if err != nil {
		return ConventionContext{}, err
	}
	layerIDs := make([]int64, len(layers))
	for i, l := range layers {
		layerIDs[i] = l.ID
	}

	var (
		modules   []model.Module
		rules     []model.CodingRule
		templates []model.Template
	)
	if len(layerIDs) > 0 {
		byLayer := slice.WithIn(catalog.DimLayerID, layerIDs)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			modules, err = s.c.Modules.All(gctx, byLayer)
			return err
		})
		g.Go(func() (err error) {
			rules, err = s.c.CodingRules.All(gctx, byLayer)
			return err
		})
		g.Go(func() (err error) {
			templates, err = s.c.Templates.All(gctx, byLayer)
			return err
		})
		if err := g.Wait(); err != nil {
			return ConventionContext{}, err
		}
	}

	layerCtx := make(map[int64]*LayerContext, len(layers))
	perArch := make(map[int64][]*LayerContext, len(archs))
	for _, l := range layers {
		lc := &LayerContext{Layer: l, Modules: []model.Module{}, CodingRules: []model.CodingRule{}, Templates: []model.Template{}}
		layerCtx[l.ID] = lc
		perArch[l.ArchitectureID] = append(perArch[l.ArchitectureID], lc)
	}
	for _, m := range modules {
		layerCtx[m.LayerID].Modules = append(layerCtx[m.LayerID].Modules, m)
	}
	for _, r := range rules {
		layerCtx[r.LayerID].CodingRules = append(layerCtx[r.LayerID].CodingRules, r)
	}
	for _, t := range templates {
		layerCtx[t.LayerID].Templates = append(layerCtx[t.LayerID].Templates, t)
	}

	for _, a := range archs {
		ac := ArchitectureContext{Architecture: a, Layers: []LayerContext{}}
		lcs := perArch[a.ID]
		sort.SliceStable(lcs, func(i, j int) bool { return lcs[i].OrderIndex < lcs[j].OrderIndex })
		for _, lc := range lcs {
			ac.Layers = append(ac.Layers, *lc)
		}
		out.Architectures = append(out.Architectures, ac)
	}

	s.store(ctx, key, &out)
	s.log.Info().
		Int64("tech_stack_id", ts.ID).
		Int("architectures", len(archs)).
		Int("layers", len(layers)).
		Int("coding_rules", len(rules)).
		Dur("took", time.Since(start)).
		Msg("convention context assembled")
	return out, nil
}

func (s *contextService) store(ctx context.Context, key string, v *ConventionContext) {
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("context cache write failed")
	}
}
