package runtime

import (
	"context"
	"sort"
	"time"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
)

func (r *Runner) blockStart(ctx context.Context, runID string, node *domain.Node) {
	if r.hooks.OnBlockStart == nil {
		return
	}
	r.hooks.OnBlockStart(ctx, &domain.BlockEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventBlockStart, RunID: runID},
		NodeID:    node.ID,
		BlockType: node.Type,
	})
}

func (r *Runner) blockFinish(ctx context.Context, runID string, node *domain.Node, inst *blocks.Instance, err error) {
	if r.hooks.OnBlockFinish == nil {
		return
	}
	r.hooks.OnBlockFinish(ctx, &domain.BlockEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventBlockFinish, RunID: runID},
		NodeID:    node.ID,
		BlockType: node.Type,
		Outcome:   inst.Outcome,
		Duration:  inst.ExecutionTime,
		Err:       err,
	})
}

// runStart moves a pending invocation to running.
func (r *Runner) runStart(ctx context.Context, inv *invocation) {
	inv.status = domain.RunRunning
	if r.hooks.OnRunStart == nil {
		return
	}
	r.hooks.OnRunStart(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunStart, RunID: inv.id},
		Status:    inv.status,
	})
}

// finish emits the run hook and, when enabled, exactly one run log for the invocation.
func (r *Runner) finish(ctx context.Context, inv *invocation, status domain.RunStatus, err error, elapsed time.Duration) {
	inv.status = status
	if r.hooks.OnRunFinish != nil {
		r.hooks.OnRunFinish(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunFinish, RunID: inv.id},
			Status:    status,
			Executed:  len(inv.order),
			Duration:  elapsed,
		})
	}

	r.logger.DebugContext(ctx, "run finished", "run_id", inv.id, "status", status, "executed", len(inv.order), "duration", elapsed)

	if !r.runLogs {
		return
	}

	runLog := domain.RunLog{RunID: inv.id, Status: status, Entries: make([]domain.RunLogEntry, 0, len(inv.order))}
	for _, h := range inv.order {
		inst := inv.cache[h]
		runLog.Entries = append(runLog.Entries, domain.RunLogEntry{
			NodeID:        inst.Node.ID,
			Type:          inst.Node.Type,
			Outcome:       inst.Outcome,
			Result:        inst.Result,
			ReturnValue:   inst.ReturnValue,
			Environment:   inst.Env,
			ExecutionTime: inst.ExecutionTime,
		})
	}

	mail := domain.Mail{Kind: domain.MailInfo, Title: "Run log", Message: "run " + string(status)}
	if err != nil {
		runLog.Error = err.Error()
		mail.Kind = domain.MailError
		mail.Message = err.Error()
	}
	mail.Payload = runLog
	r.Mail(ctx, mail)
}

func sortBlueprints(bps []domain.BlueprintInfo) {
	sort.Slice(bps, func(i, j int) bool {
		return bps[i].Key < bps[j].Key
	})
}
