package search

import (
	"time"

	"github.com/poiesic/circulars/core"
)

// Capability names reported to SearchMonitor.CapabilityFailed.
const (
	CapabilityEmbed  = "embed"
	CapabilityAnswer = "answer"
)

// SearchMonitor provides hooks to observe the query process.
// Implementations must be safe for concurrent use; one monitor typically
// observes every query a Searcher handles.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(hits []core.Hit)
	AfterRanking(candidates []core.Candidate)
	AfterDecision(decision Decision)
	CapabilityFailed(capability string, err error)
	Finish(outcome core.Outcome, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                         {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.Hit)       {}
func (n *noopMonitor) AfterRanking(_ []core.Candidate)        {}
func (n *noopMonitor) AfterDecision(_ Decision)               {}
func (n *noopMonitor) CapabilityFailed(_ string, _ error)     {}
func (n *noopMonitor) Finish(_ core.Outcome, _ time.Duration) {}
