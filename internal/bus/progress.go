package bus

import (
	"log/slog"
	"time"

	"github.com/tonelabs/redub/internal/dub"
	"github.com/tonelabs/redub/internal/protocol"
)

// ProgressPublisher forwards pipeline progress onto the bus so external
// tooling can follow a job without polling the HTTP API.
type ProgressPublisher struct {
	client *Client
	log    *slog.Logger
	clock  func() time.Time
}

func NewProgressPublisher(client *Client, log *slog.Logger) *ProgressPublisher {
	return &ProgressPublisher{
		client: client,
		log:    log.With(slog.String("component", "progress-publisher")),
		clock:  time.Now,
	}
}

func (p *ProgressPublisher) OnSegment(jobID string, seg dub.AudioSegment) {
	evt := protocol.SegmentEvent{
		JobID:          jobID,
		Index:          seg.Index,
		StartTime:      seg.StartTime,
		TargetDuration: seg.TargetDuration,
		ActualDuration: seg.ActualDuration(),
		Status:         seg.Status.String(),
		Timestamp:      p.clock().UTC(),
	}
	if err := p.client.PublishJSON(protocol.SubjectSegment, evt); err != nil {
		p.log.Warn("segment event publish failed", slog.String("error", err.Error()))
	}
}

func (p *ProgressPublisher) OnFinish(jobID string, stats dub.RunStats) {
	evt := protocol.RunSummary{
		JobID:      jobID,
		Total:      stats.Total,
		Aligned:    stats.Aligned,
		BestEffort: stats.BestEffort,
		Failed:     stats.Failed,
		Skipped:    stats.Skipped,
		Timestamp:  p.clock().UTC(),
	}
	if err := p.client.PublishJSON(protocol.SubjectRunSummary, evt); err != nil {
		p.log.Warn("run summary publish failed", slog.String("error", err.Error()))
	}
}

// PublishJobEvent announces a lifecycle transition. Failures are logged only.
func (p *ProgressPublisher) PublishJobEvent(subject string, evt protocol.JobEvent) {
	evt.Timestamp = p.clock().UTC()
	if err := p.client.PublishJSON(subject, evt); err != nil {
		p.log.Warn("job event publish failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
	}
}
