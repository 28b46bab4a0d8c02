package bootstrap

import (
	"github.com/GoCodeAlone/bootstrap/config"
	"github.com/GoCodeAlone/bootstrap/display"
	"github.com/GoCodeAlone/bootstrap/logging"
	"github.com/GoCodeAlone/bootstrap/security"
)

// Keys of the services every App registers.
var (
	KeyConfigFile   = NewKey[string]("configFile")
	KeyConfig       = NewKey[config.Source]("config")
	KeyDisplay      = NewKey[*display.Display]("display")
	KeySecurity     = NewKey[*security.Security]("security")
	KeyRegistry     = NewKey[*logging.Registry]("logRegistry")
	KeyErrorHandler = NewKey[*logging.ErrorHandler]("errorHandler")
	KeyLogger       = NewKey[*logging.Logger]("logger")
)
