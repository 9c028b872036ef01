package aquinas

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/czx-lab/aquinas/xlog"
	"go.uber.org/zap"
)

var version = "1.0.12"

// Version returns the client version.
func Version() string {
	return version
}

// Run starts mods in order, blocks until SIGINT or SIGTERM, or until stop is closed,
// and then destroys them in reverse order.
func Run(stop <-chan struct{}, mods ...Module) {
	xlog.Log(xlog.Important, "aquinas starting", zap.String("version", version))

	for i := range mods {
		Register(mods[i])
	}
	Init()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		xlog.Log(xlog.Important, "aquinas shutting down", zap.Stringer("signal", s))
	case <-stop:
		xlog.Log(xlog.Important, "aquinas shutting down")
	}

	Destroy()
}
