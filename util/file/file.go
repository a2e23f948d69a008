package file

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	CSeed              uint64             `yaml:"seed"`
	CRuns              int                `yaml:"runs"`
	CUseMetrics        bool               `yaml:"useMetrics"`
	COutPath           string             `yaml:"outPath"`
	CPrintLogToConsole bool               `yaml:"printLogToConsole"`
	CLogLevel          string             `yaml:"logLevel"`
	CEndTime           float64            `yaml:"endTime"`
	CCatchUpStep       float64            `yaml:"catchUpStep"`
	CNodeCount         int                `yaml:"nodeCount"`
	CTopology          string             `yaml:"topology"`
	CRandomPeersMin    int                `yaml:"randomPeersMin"`
	CRandomPeersMax    int                `yaml:"randomPeersMax"`
	CPokeInterval      DistributionConfig `yaml:"pokeInterval"`
	CDemoMessages      int                `yaml:"demoMessages"`
}

type DistributionConfig struct {
	Distribution string    `yaml:"distribution"`
	Params       []float64 `yaml:"params"`
}

func (config *Config) Seed() uint64 {
	return config.CSeed
}

func (config *Config) Runs() int {
	return config.CRuns
}

func (config *Config) UseMetrics() bool {
	return config.CUseMetrics
}

func (config *Config) OutPath() string {
	return config.COutPath
}

func (config *Config) PrintLogToConsole() bool {
	return config.CPrintLogToConsole
}

func (config *Config) LogLevel() string {
	return config.CLogLevel
}

func (config *Config) EndTime() float64 {
	return config.CEndTime
}

func (config *Config) CatchUpStep() float64 {
	return config.CCatchUpStep
}

func (config *Config) NodeCount() int {
	return config.CNodeCount
}

func (config *Config) Topology() string {
	return config.CTopology
}

func (config *Config) RandomPeersMin() int {
	return config.CRandomPeersMin
}

func (config *Config) RandomPeersMax() int {
	return config.CRandomPeersMax
}

func (config *Config) PokeInterval() DistributionConfig {
	return config.CPokeInterval
}

func (config *Config) DemoMessages() int {
	return config.CDemoMessages
}

func LoadConfig() *Config {
	var config Config
	yamlFile, err := os.ReadFile("config.yml")
	if err != nil {
		log.Panic(err)
	}
	err = yaml.Unmarshal(yamlFile, &config)
	if err != nil {
		log.Panic(err)
	}

	return &config
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return info != nil && !info.IsDir()
}

func EnsureOutPath(path string) {
	err := os.MkdirAll(path, 0755)
	if err != nil {
		log.Panic(err)
	}
}

// outFile creates <outPath>/<seed>/<name>, replacing a leftover from an
// earlier run with the same seed.
func outFile(config *Config, name string) *os.File {
	dir := fmt.Sprintf("%v/%v", config.OutPath(), config.Seed())
	outFile := fmt.Sprintf("%v/%v", dir, name)
	if FileExists(outFile) {
		err := os.Remove(outFile)
		if err != nil {
			log.Panic(err)
		}
	} else {
		EnsureOutPath(dir)
	}
	outputFile, err := os.Create(outFile)
	if err != nil {
		log.Panic(err)
	}

	return outputFile
}

func LoggerFile(config *Config) *os.File {
	return outFile(config, "sim.log")
}

func MetricsFile(config *Config) *os.File {
	return outFile(config, "metrics.json")
}

func WorldFile(config *Config) *os.File {
	return outFile(config, "world.json")
}

func StatsOverviewFile(config *Config) *os.File {
	return outFile(config, "overview.json")
}
