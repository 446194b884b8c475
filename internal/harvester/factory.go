package harvester

import (
	"fmt"

	"github.com/thep200/github-harvester/cfg"
	"github.com/thep200/github-harvester/internal/store"
	"github.com/thep200/github-harvester/pkg/log"
)

func FactoryHarvester(version string, logger log.Logger, config *cfg.Config, conn store.Conn) (Harvester, error) {
	switch version {
	case "v1":
		return NewHarvesterV1(logger, config, conn)
	case "v2":
		return NewHarvesterV2(logger, config, conn)
	default:
		return nil, fmt.Errorf("[ERROR] Unsupported harvester version: %s", version)
	}
}
