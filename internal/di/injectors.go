//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/agent"
	"github.com/workplus/workplus/internal/config"
	"github.com/workplus/workplus/pkg/desktop"
)

func InitAgent(log zerolog.Logger, cfg *config.Config, backend desktop.Backend) (*agent.Agent, func(), error) {

	wire.Build(
		ProviderSet,
		wire.Struct(new(agent.Deps), "*"),
		agent.New,
	)

	return nil, nil, nil
}
