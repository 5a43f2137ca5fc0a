package loader

import "log"

var logf = log.Printf
