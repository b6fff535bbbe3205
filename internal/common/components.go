package common

const (
	ComponentMonitor     = "reorg-monitor"
	ComponentBlockSource = "block-source"
	ComponentArchive     = "block-archive"
	ComponentRunner      = "runner"
)

var AllComponents = map[string]struct{}{
	ComponentMonitor:     {},
	ComponentBlockSource: {},
	ComponentArchive:     {},
	ComponentRunner:      {},
}
