// main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"InfTrack/config"
	"InfTrack/memory"
	"InfTrack/offsets"
	"InfTrack/sink"
	"InfTrack/tracker"
	"InfTrack/utils"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig("settings.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	utils.InitializeAppLog(cfg.Debug)

	if pid, ok := memory.FindWindowPID(cfg.WindowTitle); ok {
		log.Info().Uint32("pid", pid).Str("window", cfg.WindowTitle).Msg("game window found")
	}

	pm, err := memory.Open(cfg.ProcessName)
	if err != nil {
		log.Fatal().Err(err).Str("process", cfg.ProcessName).Msg("failed to attach to target")
	}
	defer pm.Close()

	discover := func(r memory.Reader) (*offsets.Collection, error) {
		searcher := offsets.NewSearcher(r)
		searcher.EnableSignatureScan = cfg.SignatureScan
		col, err := searcher.Discover()
		if err != nil {
			log.Warn().Err(err).Msg("automatic discovery failed; switching to interactive resolution")
			col, err = searcher.DiscoverInteractive(stdinChooser)
			if err != nil {
				return nil, err
			}
		}
		if !offsets.Validate(r, col) {
			log.Warn().Msg("discovered offsets failed full validation")
		}
		return col, nil
	}

	col, err := discover(pm)
	if err != nil {
		log.Fatal().Err(err).Msg("offset discovery failed")
	}

	t := tracker.New(sink.NewConsole())
	t.PollInterval = time.Duration(cfg.PollIntervalMs) * time.Millisecond
	t.ReadErrorThreshold = cfg.ReadErrorThreshold
	t.Discover = discover
	t.Attach = func(ctx context.Context) (memory.Reader, error) {
		return memory.Open(cfg.ProcessName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		for err := range t.Errors() {
			log.Error().Err(err).Msg("sink error")
		}
	}()

	if err := t.Run(ctx, pm, col); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("tracker stopped")
	}
	log.Info().Msg("shutdown complete")
}

// stdinChooser presents ranked candidates on the terminal and reads a
// selection. Entering nothing picks the top candidate; "q" aborts.
func stdinChooser(anchor string, candidates []offsets.CandidateInfo) int {
	fmt.Printf("\nAmbiguous anchor %q — pick a candidate:\n", anchor)
	for i, c := range candidates {
		fmt.Printf("  [%d] 0x%X (score %d)\n", i, c.Address, c.Score)
	}
	fmt.Print("selection [0]: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return -1
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0
	}
	if line == "q" {
		return -1
	}
	idx, err := strconv.Atoi(line)
	if err != nil {
		return -1
	}
	return idx
}
