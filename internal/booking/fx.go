package booking

import (
	"github.com/roomledger/roomledger/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(service.NewService),
)
