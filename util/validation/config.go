package validation

import (
	"log"
	"strings"

	"github.com/wiberlin/isds-bitcoin-prototype/util/file"
)

func ValidateConfig(config *file.Config) {
	// add config validation here
	var err []string = make([]string, 0, 2)
	if config.OutPath() == "" {
		err = append(err, "OutPath should be set")
	}
	if strings.HasSuffix(config.OutPath(), "/") {
		err = append(err, "OutPath should not end with '/'")
	}
	if config.NodeCount() < 1 {
		err = append(err, "NodeCount should be at least 1")
	}
	if config.Topology() != "delaunay" && config.Topology() != "random" && config.Topology() != "" {
		err = append(err, "Topology should be 'delaunay' or 'random'")
	}
	if config.Topology() == "delaunay" && config.NodeCount() < 3 {
		err = append(err, "Delaunay topology needs at least 3 nodes")
	}
	if config.Topology() == "random" && config.RandomPeersMax() < config.RandomPeersMin() {
		err = append(err, "RandomPeersMax should not be below RandomPeersMin")
	}
	if config.EndTime() <= 0 {
		err = append(err, "EndTime should be positive")
	}
	if config.CatchUpStep() < 0 {
		err = append(err, "CatchUpStep should not be negative")
	}

	if len(err) > 0 {
		var errMessage string = "There are configuration errors:\n"
		for _, err := range err {
			errMessage += err + "\n"
		}
		log.Panic(errMessage)
	}
}
