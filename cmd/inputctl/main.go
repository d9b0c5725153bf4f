// inputctl is a diagnostic client for inputd.
//
//	inputctl ping                     Check daemon reachability
//	inputctl capture [options]        Stream captured events to stdout
//	inputctl simulate <type> <code> <value>
//	inputctl resolution <w> <h>       Switch virtual device to absolute mode
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"inputd/internal/config"
	"inputd/internal/evdev"
	"inputd/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "ping":
		err = cmdPing(os.Args[2:])
	case "capture":
		err = cmdCapture(os.Args[2:])
	case "simulate":
		err = cmdSimulate(os.Args[2:])
	case "resolution":
		err = cmdResolution(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "inputctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`inputctl - inputd diagnostic client

USAGE:
    inputctl <command> [options]

COMMANDS:
    ping                          Connect, handshake, report latency
    capture [-mouse] [-keyboard]  Stream captured events until interrupted
    simulate <type> <code> <value>
                                  Inject one raw event (decimal or 0x hex)
    resolution <width> <height>   Reconfigure the virtual device;
                                  0 0 selects relative mode

The daemon socket defaults to the runtime directory; override with
-socket on any command or INPUTD_SOCKET_PATH.`)
}

func socketFlag(fs *flag.FlagSet) *string {
	def := os.Getenv("INPUTD_SOCKET_PATH")
	if def == "" {
		def = config.DefaultSocketPath()
	}
	return fs.String("socket", def, "daemon socket path")
}

func connect(socketPath string) (*ipc.Client, error) {
	c, err := ipc.Dial(socketPath)
	if err != nil {
		return nil, err
	}
	if err := c.Handshake(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func cmdPing(args []string) error {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	socket := socketFlag(fs)
	fs.Parse(args)

	start := time.Now()
	c, err := connect(*socket)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("inputd reachable at %s (handshake %s)\n",
		*socket, time.Since(start).Round(time.Microsecond))
	return nil
}

func cmdCapture(args []string) error {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	socket := socketFlag(fs)
	mouse := fs.Bool("mouse", true, "capture pointer devices")
	keyboard := fs.Bool("keyboard", true, "capture keyboard devices")
	sync := fs.Bool("sync", false, "include sync events")
	fs.Parse(args)

	c, err := connect(*socket)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.StartCapture(*mouse, *keyboard); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		c.StopCapture()
		c.Close()
	}()

	fmt.Println("capturing; Ctrl-C to stop")
	for {
		ev, err := c.ReadEvent()
		if err != nil {
			// Closing the connection on Ctrl-C lands here.
			return nil
		}
		if ev.Kind == ipc.EventKindSync && !*sync {
			continue
		}
		printEvent(ev)
	}
}

func printEvent(ev ipc.InputEvent) {
	ts := time.UnixMilli(ev.TimestampMs).Format("15:04:05.000")
	switch ev.Kind {
	case ipc.EventKindKey:
		fmt.Printf("%s key   %-16s value=%d\n", ts, evdev.CodeName(uint16(ev.Code)), ev.Value)
	case ipc.EventKindMouseButton:
		fmt.Printf("%s btn   %-16s value=%d\n", ts, evdev.CodeName(uint16(ev.Code)), ev.Value)
	case ipc.EventKindMouseMove:
		fmt.Printf("%s move  code=%d value=%d\n", ts, ev.Code, ev.Value)
	case ipc.EventKindMouseScroll:
		fmt.Printf("%s wheel code=%d value=%d\n", ts, ev.Code, ev.Value)
	case ipc.EventKindSync:
		fmt.Printf("%s sync\n", ts)
	default:
		fmt.Printf("%s kind=%d code=%d value=%d\n", ts, ev.Kind, ev.Code, ev.Value)
	}
}

func cmdSimulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	socket := socketFlag(fs)
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 3 {
		return fmt.Errorf("usage: simulate <type> <code> <value>")
	}
	typ, err := parseUint16(rest[0])
	if err != nil {
		return fmt.Errorf("type: %w", err)
	}
	code, err := parseUint16(rest[1])
	if err != nil {
		return fmt.Errorf("code: %w", err)
	}
	value, err := strconv.ParseInt(rest[2], 0, 32)
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}

	c, err := connect(*socket)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Simulate(typ, code, int32(value)); err != nil {
		return err
	}
	// Give the daemon a moment to surface an Error frame before the
	// connection drops.
	time.Sleep(50 * time.Millisecond)
	fmt.Printf("injected type=%d code=%d value=%d\n", typ, code, value)
	return nil
}

func cmdResolution(args []string) error {
	fs := flag.NewFlagSet("resolution", flag.ExitOnError)
	socket := socketFlag(fs)
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: resolution <width> <height>")
	}
	width, err := strconv.ParseInt(rest[0], 0, 32)
	if err != nil {
		return fmt.Errorf("width: %w", err)
	}
	height, err := strconv.ParseInt(rest[1], 0, 32)
	if err != nil {
		return fmt.Errorf("height: %w", err)
	}

	c, err := connect(*socket)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.ConfigureResolution(int32(width), int32(height)); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)
	if width == 0 && height == 0 {
		fmt.Println("virtual device set to relative mode")
	} else {
		fmt.Printf("virtual device set to %dx%d absolute mode\n", width, height)
	}
	return nil
}

func parseUint16(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
