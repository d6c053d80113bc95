package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rajinda/sniffer/src/capture"
	"github.com/rajinda/sniffer/src/common"
	"github.com/rajinda/sniffer/src/config"
	"github.com/rajinda/sniffer/src/inspector"
	"github.com/rajinda/sniffer/src/logging"
	"github.com/rajinda/sniffer/src/monitor"
	"golang.org/x/sync/errgroup"
)

func main() {
	configFile := flag.String("config", "", "path of the configuration file, config.yml is searched in . and .. when empty")
	pcapFile := flag.String("pcap", "", "read this capture file instead of the configured source")
	flag.Parse()

	if err := run(*configFile, *pcapFile); err != nil {
		logging.Errorf(logging.ProtoAPP, "%s", err)
		os.Exit(1)
	}
}

func run(configFile string, pcapFile string) error {
	logging.Freef("", "Passive SRTP/SRTCP decryption")
	logging.Freef("", "==============================")
	logging.LineSpacer(1)

	logging.Infof(logging.ProtoAPP, "Reading configuration file...")
	var err error
	if configFile != "" {
		err = config.LoadFile(configFile)
	} else {
		err = config.Load()
	}
	if err != nil {
		return err
	}
	cfg := config.Val.Inspector
	logging.SetMinLevel(logging.ParseLevel(cfg.LogLevel))

	if cfg.MaskKeysOnConsole {
		for _, stream := range cfg.Streams {
			logging.AddToBlacklist(stream.SdesKey, common.MaskKeyString(stream.SdesKey))
		}
	}
	if cfg.MaskIpOnConsole {
		for _, stream := range cfg.Streams {
			logging.AddToBlacklist(stream.Address, common.MaskIPString(stream.Address))
		}
	}
	logging.Descf(logging.ProtoCONFIG, "Configuration content:\n%s", config.ToString())

	manager := inspector.NewManager(nil)
	streamNames := []string{}
	for _, streamConfig := range cfg.Streams {
		stream, err := inspector.StreamFromConfig(streamConfig)
		if err != nil {
			return err
		}
		manager.AddStream(stream)
		streamNames = append(streamNames, stream.Name)
	}
	logging.Infof(logging.ProtoAPP, "Streams: [<u>%s</u>]", common.JoinSlice(", ", false, streamNames...))
	if len(cfg.Streams) == 0 {
		logging.Warningf(logging.ProtoAPP, "No streams configured, every datagram will be counted as unknown")
	}

	var source capture.Source
	if pcapFile == "" {
		pcapFile = cfg.Capture.PcapFile
	}
	if pcapFile != "" {
		source = capture.NewPcapReader(pcapFile)
	} else {
		source = capture.NewUdpListener(cfg.Capture.UdpIp, cfg.Capture.UdpPort)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.Monitor.WsPort > 0 {
		httpServer := monitor.NewHttpServer(fmt.Sprintf(":%d", cfg.Monitor.WsPort), manager,
			time.Duration(cfg.Monitor.StatsIntervalSeconds)*time.Second)
		group.Go(func() error {
			return httpServer.Run(groupCtx)
		})
	}

	group.Go(func() error {
		err := source.Run(groupCtx, manager.HandleDatagram)
		printSummary(manager)
		if pcapFile != "" && err == nil && cfg.Monitor.WsPort > 0 {
			// Keep the monitor up for inspection until interrupted.
			logging.Infof(logging.ProtoAPP, "Capture file done, monitor stays up until interrupted")
			return nil
		}
		stop()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	logging.Infof(logging.ProtoAPP, "Components started...")
	logging.LineSpacer(1)
	return group.Wait()
}

func printSummary(manager *inspector.Manager) {
	stats := manager.StatsSnapshot()
	logging.Infof(logging.ProtoAPP, "Datagrams <u>%d</u>, RTP decrypted <u>%d</u>, RTCP decrypted <u>%d</u>, failures <u>%d</u> (auth %d, replay %d, short %d, session %d, other %d), unknown stream %d, not media %d",
		stats.Datagrams, stats.RtpDecrypted, stats.RtcpDecrypted, stats.Failures(),
		stats.AuthFailures, stats.Replays, stats.ShortPackets, stats.SessionFailures, stats.OtherFailures,
		stats.UnknownStream, stats.NotMedia)
	for _, session := range manager.Sessions() {
		logging.Infof(logging.ProtoAPP, "Stream <u>%s</u> SSRC 0x%08x: %s, rtp %d, rtcp %d, failures %d",
			session.Stream, session.SSRC, session.State, session.RtpPackets, session.RtcpPackets, session.Failures)
	}
}
