package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
	"github.com/wiberlin/isds-bitcoin-prototype/util/file"
	"github.com/wiberlin/isds-bitcoin-prototype/util/logger"
	"github.com/wiberlin/isds-bitcoin-prototype/util/metrics"
	"github.com/wiberlin/isds-bitcoin-prototype/util/random"
	"github.com/wiberlin/isds-bitcoin-prototype/util/stats"
	"github.com/wiberlin/isds-bitcoin-prototype/util/validation"
)

func main() {
	// load config
	config := file.LoadConfig()
	validation.ValidateConfig(config)

	runs := 1
	if config.Runs() > 0 {
		runs = config.Runs()
	}
	if len(os.Args) > 1 {
		parsedRuns, err := strconv.Atoi(os.Args[1])
		if err != nil {
			log.Panic(err)
		}
		runs = parsedRuns
	}
	if runs > 1 {
		log.Printf("Sim will be executed %v times\n", runs)
	}

	interruptChan := make(chan os.Signal, 1)
	signal.Notify(interruptChan, os.Interrupt)

	level, err := zerolog.ParseLevel(config.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	initialSeed := config.Seed()
	simShouldStop := false
	for i := initialSeed; i < initialSeed+uint64(runs); i++ {
		if simShouldStop {
			break
		}
		config.CSeed = i

		// init logger
		loggerFile := file.LoggerFile(config)
		logger.Initialize(loggerFile, config.PrintLogToConsole(), level)

		// init packages
		random.Initialize(config.Seed())
		metrics.Initialize(config)

		sim := createSimulation(config)

		// run in steps so an interrupt lands between catch-ups
		step := config.CatchUpStep()
		if step <= 0 {
			step = config.EndTime()
		}
		for t := step; sim.Now() < interfaces.SimSeconds(config.EndTime()); t += step {
			if t > config.EndTime() {
				t = config.EndTime()
			}
			sim.CatchUp(interfaces.SimSeconds(t))
			select {
			case <-interruptChan:
				log.Printf("Sim interrupted\n")
				simShouldStop = true
			default:
			}
			if simShouldStop {
				break
			}
		}

		// write metrics to file if needed
		if config.UseMetrics() {
			f := file.MetricsFile(config)
			metrics.WriteToFile(f)
			_ = f.Close()
		}

		// print stats to file
		worldFile := file.WorldFile(config)
		stats.PrintWorld(sim, worldFile)
		_ = worldFile.Close()
		overviewFile := file.StatsOverviewFile(config)
		stats.PrintStatsOverview(sim, overviewFile, config)
		_ = overviewFile.Close()

		// just for testing of determinism
		random.PrintCount()

		_ = loggerFile.Close()
	}
}
