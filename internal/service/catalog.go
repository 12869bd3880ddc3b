package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/repository"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
	"github.com/rs/zerolog"
)

// Catalog holds the use-case logic of one entity: validation, slice search
// and orchestration, no transport or SQL details.
type Catalog[T any] struct {
	entity   catalog.Entity[T]
	repo     repository.CatalogRepository[T]
	engine   *slice.Engine[T]
	limits   slice.Limits
	validate *validator.Validate
	log      zerolog.Logger
	onChange []func(ctx context.Context)
}

func NewCatalog[T any](entity catalog.Entity[T], repo repository.CatalogRepository[T], limits slice.Limits, logger zerolog.Logger, opts ...slice.EngineOption) *Catalog[T] {
	l := logger.With().Str("module", "service").Str("component", entity.Name()).Logger()
	engineOpts := append([]slice.EngineOption{slice.WithLogger(l)}, opts...)
	return &Catalog[T]{
		entity:   entity,
		repo:     repo,
		engine:   slice.NewEngine[T](repo, entity.Key, engineOpts...),
		limits:   limits,
		validate: newValidator(),
		log:      l,
	}
}

func (s *Catalog[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	start := time.Now()
	if err := validateStruct(s.validate, v); err != nil {
		s.log.Debug().Interface("field_errors", FieldErrors(err)).Msg("validation failed")
		return zero, err
	}
	out, err := s.repo.Create(ctx, v)
	if err != nil {
		// Repository surfaces domain-level errors already, do not wrap.
		s.log.Error().Err(err).Msg("create failed")
		return zero, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("id", s.entity.Key(out)).Msg("created")
	s.changed(ctx)
	return out, nil
}

func (s *Catalog[T]) Get(ctx context.Context, id int64) (T, error) {
	if err := validID(id); err != nil {
		var zero T
		return zero, err
	}
	return s.repo.GetByID(ctx, id)
}

// Update replaces the writable fields of a live row.
func (s *Catalog[T]) Update(ctx context.Context, id int64, v T) (T, error) {
	var zero T
	if err := validID(id); err != nil {
		return zero, err
	}
	if err := validateStruct(s.validate, v); err != nil {
		s.log.Debug().Interface("field_errors", FieldErrors(err)).Msg("validation failed")
		return zero, err
	}
	out, err := s.repo.Update(ctx, id, v)
	if err != nil {
		s.log.Warn().Err(err).Int64("id", id).Msg("update failed")
		return zero, err
	}
	s.log.Info().Int64("id", id).Msg("updated")
	s.changed(ctx)
	return out, nil
}

func (s *Catalog[T]) Delete(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("id", id).Bool("soft", s.entity.Schema.SoftDeletes()).Msg("deleted")
	s.changed(ctx)
	return nil
}

// OnChange registers fn to run after every successful write. Hooks are
// registered while wiring, before the catalog serves requests.
func (s *Catalog[T]) OnChange(fn func(ctx context.Context)) {
	s.onChange = append(s.onChange, fn)
}

func (s *Catalog[T]) changed(ctx context.Context) {
	for _, fn := range s.onChange {
		fn(ctx)
	}
}

// Search returns one slice. Paging input never fails: a broken cursor starts
// over and sizes are clamped. Filter options that do not fit the entity fail
// with an error wrapping slice.ErrContractViolation.
func (s *Catalog[T]) Search(ctx context.Context, page PageParams, filters ...slice.Option) (slice.Result[T], error) {
	c, err := s.criteria(page, filters...)
	if err != nil {
		s.log.Error().Err(err).Msg("criteria rejected")
		return slice.Result[T]{}, err
	}
	res, err := s.engine.Search(ctx, c)
	if err != nil {
		s.log.Error().Err(err).Msg("slice search failed")
		return slice.Result[T]{}, err
	}
	return res, nil
}

// All walks every slice of the filtered set in ascending position order.
func (s *Catalog[T]) All(ctx context.Context, filters ...slice.Option) ([]T, error) {
	c, err := s.criteria(PageParams{Direction: slice.Ascending, Size: &s.limits.MaxSize}, filters...)
	if err != nil {
		return nil, err
	}
	return s.engine.All(ctx, c)
}

func (s *Catalog[T]) criteria(page PageParams, filters ...slice.Option) (slice.Criteria, error) {
	pr := slice.NewPageRequest(s.limits, page.Cursor, page.Size).WithDirection(page.Direction)
	return slice.NewCriteria(s.entity.Schema, pr, filters...)
}

var _ CatalogService[struct{}] = (*Catalog[struct{}])(nil)
