package config

import "github.com/op/go-logging"

var log = logging.MustGetLogger("config")
