package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/openfms/uds-decoder/db/clickhouse"
	"github.com/openfms/uds-decoder/dictionary"
	"github.com/openfms/uds-decoder/envconfig"
	"github.com/openfms/uds-decoder/parser"
	"github.com/openfms/uds-decoder/server"
	"github.com/openfms/uds-decoder/simulator"
	"github.com/openfms/uds-decoder/storage"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	DictionaryPath string
	SessionMode    int
	RawResponse    string

	SimulatorServerAddr string
	SimulatorECU        string
	SimulatorMode       int
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("create new logger failed:%v\n", err)
	}
	app := &cli.App{
		Name:  "udsdecoder",
		Usage: "uds response decoder",
		Commands: []*cli.Command{
			{
				Name:  "decode",
				Usage: "decodes one raw response and prints it as json",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "dictionary",
						Usage:       "diagnostic dictionary yaml file",
						Aliases:     []string{"d"},
						Destination: &DictionaryPath,
						EnvVars:     []string{"DICTIONARY_PATH"},
						Required:    true,
					},
					&cli.IntFlag{
						Name:        "mode",
						Usage:       "session mode (0 unknown, 1 default, 2 programming, 3 extended)",
						Value:       0,
						DefaultText: "0",
						Aliases:     []string{"m"},
						Destination: &SessionMode,
					},
					&cli.StringFlag{
						Name:        "raw",
						Usage:       "raw response hex",
						Destination: &RawResponse,
						Required:    true,
					},
				},
				Action: func(ctx *cli.Context) error {
					mode, err := dictionary.ParseSessionMode(SessionMode)
					if err != nil {
						return err
					}
					dict, err := dictionary.Load(DictionaryPath)
					if err != nil {
						return err
					}
					resp, err := parser.NewDecoder(dict, logger).Decode(RawResponse, mode)
					if err != nil {
						return err
					}
					out, err := json.MarshalIndent(resp, "", "  ")
					if err != nil {
						return err
					}
					fmt.Println(string(out))
					return nil
				},
			},
			{
				Name:  "server",
				Usage: "starts decode server, configured from the environment",
				Action: func(ctx *cli.Context) error {
					cfg, err := envconfig.ReadDecoderServiceEnv()
					if err != nil {
						return err
					}
					dict, err := dictionary.Load(cfg.DictionaryPath)
					if err != nil {
						return err
					}

					var natsCon *nats.Conn
					if cfg.NatsConn != "" {
						natsCon, err = nats.Connect(cfg.NatsConn)
						if err != nil {
							return err
						}
						defer natsCon.Close()
					}

					var responseDB clickhouse.ResponseDBConn
					if cfg.ClickHouseDB != "" {
						db, err := clickhouse.ConnectResponseDB(cfg.ClickHouseDB)
						if err != nil {
							return err
						}
						if err := db.CreateTables(ctx.Context); err != nil {
							return err
						}
						responseDB = db
					}

					dtcDB, err := storage.OpenDB(cfg.DTCStorePath)
					if err != nil {
						return err
					}
					defer dtcDB.Close()

					listenAddr := net.JoinHostPort(cfg.Host, cfg.Port)
					s := server.NewServer(listenAddr, logger, parser.NewDecoder(dict, logger), natsCon, responseDB, dtcDB)
					go s.Start()

					sigs := make(chan os.Signal, 1)
					signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
					<-sigs
					s.Stop()
					return nil
				},
			},
			{
				Name:  "simulator",
				Usage: "starts test bench simulator",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "host",
						Usage:       "decode server address",
						Destination: &SimulatorServerAddr,
					},
					&cli.StringFlag{
						Name:        "ecu",
						Usage:       "ecu name sent in the handshake",
						Destination: &SimulatorECU,
					},
					&cli.IntFlag{
						Name:        "mode",
						Usage:       "session mode of the simulated ecu",
						Value:       1,
						DefaultText: "1",
						Destination: &SimulatorMode,
					},
				},
				Action: func(ctx *cli.Context) error {
					cfg, err := envconfig.ReadSimulatorEnv()
					if err != nil {
						return err
					}
					if ctx.IsSet("host") {
						cfg.ServerAddr = SimulatorServerAddr
					}
					if ctx.IsSet("ecu") {
						cfg.ECU = SimulatorECU
					}
					mode, err := dictionary.ParseSessionMode(SimulatorMode)
					if err != nil {
						return err
					}

					tester := simulator.NewTesterDevice(cfg.ServerAddr, cfg.ECU, mode,
						time.Duration(cfg.Interval)*time.Millisecond, logger)
					if e := tester.Connect(); e != nil {
						return e
					}
					go tester.SendRandomResponses()

					sigs := make(chan os.Signal, 1)
					signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
					<-sigs
					tester.Stop()
					return nil
				},
			},
		},
	}

	if e := app.Run(os.Args); e != nil {
		logger.Error("failed to run app", zap.Error(e))
	}
}
