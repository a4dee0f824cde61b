package main

import (
	"github.com/trellishq/trellis/backend/internal/server"
	"github.com/trellishq/trellis/backend/internal/util"
	"github.com/trellishq/trellis/backend/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(logger.NewConsole(debug))

	server.Init()
}
