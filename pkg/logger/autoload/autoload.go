// Package autoload initializes the global logger from the environment as a
// side effect of being imported. Binaries import it for its init only:
//
//	import _ "github.com/agilbank/teller/pkg/logger/autoload"
package autoload

import (
	configx "github.com/agilbank/teller/pkg/config"
	logx "github.com/agilbank/teller/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
