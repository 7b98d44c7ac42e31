package commission

import (
	"github.com/roomledger/roomledger/internal/commission/repository"
	"github.com/roomledger/roomledger/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
