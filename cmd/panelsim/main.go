// Command panelsim is a minimal composition root demonstrating how
// config, clog, transport, engine, filexfer, page and command wire
// together into a running panel session. It is demonstration
// scaffolding (spec.md's Non-goals place a full operator CLI out of
// scope), not a product binary: its page set is a single hard-coded
// "Home" page with one button.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/amxpanel/icspcore/clog"
	"github.com/amxpanel/icspcore/command"
	"github.com/amxpanel/icspcore/config"
	"github.com/amxpanel/icspcore/engine"
	"github.com/amxpanel/icspcore/filexfer"
	"github.com/amxpanel/icspcore/page"
	"github.com/amxpanel/icspcore/render"
	"github.com/amxpanel/icspcore/transport"
)

// reconnectorFromConfig builds the Reconnector a dial-out session uses
// to redial cfg.Addr (spec.md §4.2), translating the reset/retry
// initial delays and [min,max] cap out of the engine-scoped config.
func reconnectorFromConfig(cfg config.Config, log clog.Clog) *transport.Reconnector {
	ec := cfg.EngineConfig()
	opts := transport.Options{Timeout: cfg.ReadWriteTimeout, TLS: cfg.TLS}
	return transport.NewReconnector(opts, ec.ResetDelay, ec.ReconnectDelay, ec.BackoffMin, ec.BackoffMax, log)
}

// demoLoader is the single-page, popup-less page.Loader this demo
// binary ships with in place of the file-backed loader a product
// deployment would supply (page loading's on-disk format is outside
// spec.md's scope, per §1).
type demoLoader struct{}

func (demoLoader) LoadPage(id int) (*page.Page, error) {
	if id != 1 {
		return nil, page.ErrNotFound
	}
	return demoLoader{}.homePage(), nil
}

func (demoLoader) LoadPageByName(name string) (*page.Page, error) {
	if name != "Home" {
		return nil, page.ErrNotFound
	}
	return demoLoader{}.homePage(), nil
}

func (demoLoader) homePage() *page.Page {
	return &page.Page{
		ID: 1, Name: "Home", Width: 1920, Height: 1080,
		Buttons: []*page.Button{{
			Index: 1, AddressPort: 1, AddressChannel: 1,
			Visible: true, Enabled: true, ActiveSR: 1,
			SR: []page.SR{{Number: 1, Text: "Welcome"}},
		}},
	}
}

func (demoLoader) LoadPopup(string) (*page.Popup, error)          { return nil, page.ErrNotFound }
func (demoLoader) LoadSubviewList(int) (*page.SubviewList, error) { return nil, page.ErrNotFound }

func main() {
	var configPath, addr string
	flag.StringVar(&configPath, "config", "", "path to a YAML config overlay")
	flag.StringVar(&addr, "addr", "", "controller host:port to dial (overrides config)")
	flag.Parse()

	log := clog.NewLogger("panelsim")

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			log.Error("panelsim: load config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1319"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, log); err != nil {
		log.Error("panelsim: %v", err)
		os.Exit(1)
	}
}

// serve runs the panel's one outbound session against cfg.Addr,
// redialing through a Reconnector on any I/O or framing error
// (spec.md §4.2: "the panel does NOT initiate [the protocol]; it
// waits for the controller's device-info probe", but it is the
// panel that dials the TCP connection — there is no server role).
func serve(ctx context.Context, cfg config.Config, log clog.Clog) error {
	identity := engine.Identity{
		Panel:  engine.DeviceRecord{ObjectID: 0, DeviceID: 0x0149, Serial: engine.NewSerial("PANELSIM00000001")},
		Kernel: engine.DeviceRecord{ObjectID: 2, DeviceID: 0x0149, Serial: engine.NewSerial("PANELSIM00000001")},
		IPv4:   net.IPv4(127, 0, 0, 1),
	}

	eng := engine.New(cfg.EngineConfig(), identity, engine.DefaultCapacities(), log)

	mgr := page.NewManager(demoLoader{}, render.NoopSurface{}, log)
	interp := command.New(mgr, eng, cfg.Origin(), log)
	eng.SetCommandSink(interp)
	eng.SetStateQuery(mgr)

	storage := filexfer.NewDiskStorage(cfg.StorageRoot)
	fx := filexfer.New(eng, storage, filexfer.NoopProgress{}, cfg.Origin(), log)
	fx.SetChunkCap(cfg.FileChunkCap)
	eng.SetFileTransferSink(fx)

	go func() {
		select {
		case err := <-eng.Fatal():
			log.Critical("panelsim: fatal: %v", err)
		case <-ctx.Done():
		}
	}()

	reconnector := reconnectorFromConfig(cfg, log)
	return eng.RunWithReconnect(ctx, reconnector, cfg.Addr)
}
