package interfaces

// IRNG is satisfied by every gonum distuv distribution.
type IRNG interface {
	Rand() float64
}

type IConfig interface {
	Seed() uint64
	UseMetrics() bool
	OutPath() string
}

type metricName string

type IMetricName interface {
	getName() metricName
	String() string
}

// this is just for preventing simple strings from being used as IMetricName
func (name metricName) getName() metricName {
	return name
}

func (name metricName) String() string {
	return string(name)
}

// add metric names here
const (
	METRIC_EVENTS_EXECUTED  = metricName("EventsExecuted")
	METRIC_MESSAGE_SENT     = metricName("MessageSent")
	METRIC_MESSAGE_ARRIVED  = metricName("MessageArrived")
	METRIC_MESSAGE_ORPHANED = metricName("MessageArrivedAfterDespawn")
	METRIC_FLOOD_SENT       = metricName("FloodItemSent")
	METRIC_BLOCK_MINED      = metricName("BlockMined")
	METRIC_BLOCK_REGISTERED = metricName("BlockRegistered")
	METRIC_BLOCK_ORPHANED   = metricName("BlockOrphanDropped")
	METRIC_REORG            = metricName("Reorg")
	METRIC_PEER_ADDED       = metricName("PeerAdded")
	METRIC_PEER_REMOVED     = metricName("PeerRemoved")
	METRIC_HANDLER_FAILED   = metricName("ProtocolHandlerFailed")
)
