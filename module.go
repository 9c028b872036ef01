package aquinas

import (
	"runtime"
	"sync"

	"github.com/czx-lab/aquinas/xlog"
	"go.uber.org/zap"
)

var (
	defaultIsStackBuf  = false
	defaultStackBufLen = 4096
	mods               []*module
	mu                 sync.Mutex
)

type (
	ModuleConf struct {
		// log the stack when Destroy panics
		IsStackBuf  bool
		StackBufLen int
	}

	// Module is one long running part of the client: the game connection, the metrics endpoint.
	Module interface {
		// Init prepares the module. All modules are initialized before any runs.
		Init()
		// Destroy releases the module after Run returned.
		Destroy()
		// Run blocks until done receives.
		Run(done chan struct{})
	}

	module struct {
		mi  Module
		wg  sync.WaitGroup
		sig chan struct{}
	}
)

func MustConf(conf ModuleConf) {
	defaultIsStackBuf = conf.IsStackBuf
	if conf.StackBufLen > 0 {
		defaultStackBufLen = conf.StackBufLen
	}
}

// Register adds a module. Call it before Init.
func Register(mi Module) {
	mu.Lock()
	defer mu.Unlock()

	mods = append(mods, &module{mi: mi, sig: make(chan struct{}, 1)})
}

// Init initializes every registered module and starts each Run on its own goroutine.
func Init() {
	mu.Lock()
	defer mu.Unlock()

	for _, m := range mods {
		m.mi.Init()
	}
	for _, m := range mods {
		m.wg.Add(1)
		go run(m)
	}
}

// Destroy stops the modules in reverse registration order and forgets them.
func Destroy() {
	mu.Lock()
	defer mu.Unlock()

	for i := len(mods) - 1; i >= 0; i-- {
		m := mods[i]
		m.sig <- struct{}{}
		m.wg.Wait()
		destroy(m)
	}
	mods = nil
}

func run(m *module) {
	defer m.wg.Done()
	m.mi.Run(m.sig)
}

func destroy(m *module) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if defaultIsStackBuf {
			buf := make([]byte, defaultStackBufLen)
			l := runtime.Stack(buf, false)
			xlog.Log(xlog.ProgramFatal, "module destroy panic", zap.Any("panic", r), zap.ByteString("stack", buf[:l]))
			return
		}
		xlog.Log(xlog.ProgramFatal, "module destroy panic", zap.Any("panic", r))
	}()

	m.mi.Destroy()
}
