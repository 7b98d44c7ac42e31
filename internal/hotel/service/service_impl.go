package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	hoteldomain "github.com/roomledger/roomledger/internal/hotel/domain"
	"github.com/roomledger/roomledger/pkg/db"
	"github.com/roomledger/roomledger/pkg/db/option"
	"github.com/roomledger/roomledger/pkg/db/pagination"
	"github.com/roomledger/roomledger/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	repo  repository.Repository[hoteldomain.Hotel]
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p ServiceParam) hoteldomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("hotel.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[hoteldomain.Hotel](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req hoteldomain.CreateHotelRequest) (*hoteldomain.Hotel, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, hoteldomain.ErrInvalidName
	}

	status := req.Status
	if status == "" {
		status = hoteldomain.PartnerStatusStandard
	}
	if !status.Valid() {
		return nil, hoteldomain.ErrInvalidStatus
	}

	hotel := &hoteldomain.Hotel{
		ID:     s.genID.Generate(),
		Name:   name,
		Slug:   slug.Make(name),
		Status: status,
	}

	if err := s.repo.Create(ctx, hotel); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, hoteldomain.ErrNameTaken
		}
		return nil, err
	}

	s.log.Info("hotel created", zap.String("hotel_id", hotel.ID.String()), zap.String("status", string(hotel.Status)))
	return hotel, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req hoteldomain.UpdateHotelRequest) (*hoteldomain.Hotel, error) {
	hotel, err := s.repo.FindOne(ctx, &hoteldomain.Hotel{ID: id})
	if err != nil {
		return nil, err
	}
	if hotel == nil {
		return nil, hoteldomain.ErrNotFound
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, hoteldomain.ErrInvalidName
		}
		updates["name"] = name
		updates["slug"] = slug.Make(name)
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, hoteldomain.ErrInvalidStatus
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return hotel, nil
	}

	if err := s.repo.Update(ctx, id.String(), updates); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, hoteldomain.ErrNameTaken
		}
		return nil, err
	}

	return s.repo.FindOne(ctx, &hoteldomain.Hotel{ID: id})
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*hoteldomain.Hotel, error) {
	hotel, err := s.repo.FindOne(ctx, &hoteldomain.Hotel{ID: id})
	if err != nil {
		return nil, err
	}
	if hotel == nil {
		return nil, hoteldomain.ErrNotFound
	}
	return hotel, nil
}

func (s *Service) List(ctx context.Context, req hoteldomain.ListHotelsRequest) ([]*hoteldomain.Hotel, error) {
	page := pagination.Normalize(req.Limit, req.Offset)
	return s.repo.Find(ctx, &hoteldomain.Hotel{},
		option.WithOrderBy("created_at ASC"),
		option.WithLimit(page.Limit),
		option.WithOffset(page.Offset),
	)
}
