package agreement

import (
	"github.com/roomledger/roomledger/internal/agreement/repository"
	"github.com/roomledger/roomledger/internal/agreement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("agreement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
