package catalog

import (
	"context"
	"errors"

	"bluewave/internal/domain"
	"bluewave/internal/repository"
)

var ErrNotFound = errors.New("bookable not found")

// Service is the public read surface of the catalog: what can be
// booked and at what base price.
type Service struct {
	bookables *repository.BookableRepository
}

func NewService(bookables *repository.BookableRepository) *Service {
	return &Service{bookables: bookables}
}

func (s *Service) Vessels(ctx context.Context) ([]domain.Vessel, error) {
	return s.bookables.ListVessels(ctx)
}

func (s *Service) Tours(ctx context.Context) ([]domain.Tour, error) {
	return s.bookables.ListTours(ctx)
}

func (s *Service) Vessel(ctx context.Context, id int64) (*domain.Vessel, error) {
	v, err := s.bookables.GetVessel(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *Service) Tour(ctx context.Context, id int64) (*domain.Tour, error) {
	t, err := s.bookables.GetTour(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *Service) AddOns(ctx context.Context) ([]domain.AddOn, error) {
	return s.bookables.ListAddOns(ctx, nil)
}
