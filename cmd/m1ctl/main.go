// Command m1ctl is the host-side counterpart to cmd/stubboot: it opens
// the boot UART as a serial port and speaks the framed protocol
// internal/proxyproto defines, the way spec §6 describes the external
// host driver's responsibilities.
//
// Command-tree shape (one root command, flag-driven subcommands, a
// RunE per leaf) is grounded on zboralski-galago's cmd/galago/main.go;
// the serial transport is internal/hostserial (daedaluz/goserial).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"m1boot/internal/hostlog"
	"m1boot/internal/hoststyle"
	"m1boot/internal/proxyproto"
)

var (
	portFlag   string
	baudFlag   uint32
	configFlag string
	verbose    bool

	cfg config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "m1ctl",
		Short: "Talk to a stubboot target over its framed serial protocol",
		Long: `m1ctl drives the boot stub's command loop over a UART: it can wait for
the boot handshake, send no-op pings to measure round-trip latency, and
issue proxy calls that invoke a target-side opcode with up to six
64-bit arguments.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(configFlag)
			if err != nil {
				return err
			}
			cfg = loaded
			if portFlag != "" {
				cfg.Port = portFlag
			}
			if baudFlag != 0 {
				cfg.Baud = baudFlag
			}
			hostlog.Init(verbose)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&portFlag, "port", "p", "", "serial device (default from config, else /dev/ttyUSB0)")
	rootCmd.PersistentFlags().Uint32VarP(&baudFlag, "baud", "b", 0, "baud rate (default from config, else 1500000)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose debug logging")

	rootCmd.AddCommand(newWaitBootCmd())
	rootCmd.AddCommand(newPingCmd())
	rootCmd.AddCommand(newProxyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, hoststyle.Err(err.Error()))
		os.Exit(1)
	}
}

func newWaitBootCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "wait-boot",
		Short: "Block until the target emits its Boot/Ok handshake reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			reqID := uuid.NewString()
			log := hostlog.L.With(hostlog.RequestID(reqID))

			port, err := openPort()
			if err != nil {
				return err
			}
			defer port.Close()

			deadline := time.Now().Add(timeout)
			var buf [36]byte
			for time.Now().Before(deadline) {
				if err := port.ReadFull(buf[:]); err != nil {
					log.Debug("read failed, retrying", zap.Error(err))
					continue
				}
				reply, err := proxyproto.DecodeReply(buf)
				if err != nil {
					continue
				}
				if reply.Command == proxyproto.CommandBoot && reply.Status == proxyproto.StatusOk {
					fmt.Println(hoststyle.OK("target is alive"))
					return nil
				}
			}
			return fmt.Errorf("timed out waiting for boot handshake")
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for the handshake")
	return cmd
}

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Send a NoOperation request and report round-trip status",
		RunE: func(cmd *cobra.Command, args []string) error {
			reqID := uuid.NewString()
			log := hostlog.L.With(hostlog.RequestID(reqID), hostlog.Command("NoOperation"))

			port, err := openPort()
			if err != nil {
				return err
			}
			defer port.Close()

			req := proxyproto.BuildNoOperationRequest()
			start := time.Now()
			if err := port.Write(req[:]); err != nil {
				return fmt.Errorf("write request: %w", err)
			}

			var buf [36]byte
			if err := port.ReadFull(buf[:]); err != nil {
				return fmt.Errorf("read reply: %w", err)
			}
			elapsed := time.Since(start)

			reply, err := proxyproto.DecodeReply(buf)
			if err != nil {
				return err
			}
			log.Info("ping", zap.Duration("rtt", elapsed), zap.Int32("status", int32(reply.Status)))

			if reply.Status != proxyproto.StatusOk {
				fmt.Printf("%s status=%d rtt=%s\n", hoststyle.Err("ping failed"), reply.Status, elapsed)
				return fmt.Errorf("unexpected status %d", reply.Status)
			}
			fmt.Printf("%s rtt=%s\n", hoststyle.OK("pong"), elapsed)
			return nil
		},
	}
}

func newProxyCmd() *cobra.Command {
	var opcode uint64
	var args [6]uint64
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Issue a Proxy-command request invoking a target-side opcode",
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			reqID := uuid.NewString()
			log := hostlog.L.With(hostlog.RequestID(reqID), hostlog.Command("Proxy"))

			port, err := openPort()
			if err != nil {
				return err
			}
			defer port.Close()

			req := proxyproto.BuildProxyRequest(opcode, args)
			if err := port.Write(req[:]); err != nil {
				return fmt.Errorf("write request: %w", err)
			}

			var buf [36]byte
			if err := port.ReadFull(buf[:]); err != nil {
				return fmt.Errorf("read reply: %w", err)
			}
			reply, err := proxyproto.DecodeReply(buf)
			if err != nil {
				return err
			}
			log.Info("proxy reply",
				zap.Uint64("opcode", reply.ProxyOpcode),
				zap.Int64("proxy_status", reply.ProxyStatus),
				zap.Uint64("return_value", reply.ReturnValue))

			fmt.Printf("%s opcode=%s status=%d return=%s\n",
				hoststyle.Header("proxy"),
				hoststyle.Address(reply.ProxyOpcode),
				reply.ProxyStatus,
				hoststyle.Address(reply.ReturnValue))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&opcode, "opcode", 0, "target-side opcode to invoke")
	cmd.Flags().Uint64Var(&args[0], "a0", 0, "argument 0")
	cmd.Flags().Uint64Var(&args[1], "a1", 0, "argument 1")
	cmd.Flags().Uint64Var(&args[2], "a2", 0, "argument 2")
	cmd.Flags().Uint64Var(&args[3], "a3", 0, "argument 3")
	cmd.Flags().Uint64Var(&args[4], "a4", 0, "argument 4")
	cmd.Flags().Uint64Var(&args[5], "a5", 0, "argument 5")
	return cmd
}
