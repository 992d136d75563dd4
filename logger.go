package h2

import (
	"log"
	"os"

	"github.com/valyala/fasthttp"
)

// Logger is the logging sink used for debug tracing of connection and
// stream lifecycle events. It is fasthttp.Logger itself, so a caller
// already running a fasthttp server can hand its logger straight
// through without an adapter.
type Logger = fasthttp.Logger

// defaultLogger is a stdlib *log.Logger writing to stdout with a fixed
// prefix, used when ConnOptions.Logger is nil.
var defaultLogger Logger = log.New(os.Stdout, "[h2] ", log.LstdFlags)
