package hotel

import (
	"github.com/roomledger/roomledger/internal/hotel/service"
	"go.uber.org/fx"
)

var Module = fx.Module("hotel.service",
	fx.Provide(service.NewService),
)
