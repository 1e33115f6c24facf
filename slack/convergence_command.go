package qbslack

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bcdannyboy/quantbox/engine"
	"github.com/bcdannyboy/quantbox/models"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

var progressMilestones = []int{25, 50, 75}

type ConvergenceHandler struct {
	pricer engine.Pricer
	wg     *sync.WaitGroup
	log    *zap.Logger
}

func NewConvergenceHandler(pricer engine.Pricer, wg *sync.WaitGroup, log *zap.Logger) *ConvergenceHandler {
	return &ConvergenceHandler{pricer: pricer, wg: wg, log: log}
}

func (h *ConvergenceHandler) HandleCommand(ctx context.Context, data slack.SlashCommand, client Poster) error {
	args := strings.Fields(data.Text)
	if len(args) != 7 {
		return usage(client, data.ChannelID, "/convergence "+paramsUsage+" <maxPaths> <step>")
	}
	p, err := parseParams(args[:5])
	if err != nil {
		return replyError(client, data.ChannelID, err)
	}
	maxPaths, err := parseCount("maxPaths", args[5])
	if err != nil {
		return replyError(client, data.ChannelID, err)
	}
	step, err := parseCount("step", args[6])
	if err != nil {
		return replyError(client, data.ChannelID, err)
	}

	ts, err := reply(client, data.ChannelID, fmt.Sprintf("Starting convergence sweep up to %d paths...", maxPaths))
	if err != nil {
		return err
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runWithProgress(ctx, client, data.ChannelID, ts, p, maxPaths, step)
	}()
	return nil
}

func (h *ConvergenceHandler) runWithProgress(ctx context.Context, client Poster, channelID, timestamp string, p models.MarketParameters, maxPaths, step int) {
	progressChan := make(chan int)
	resultChan := make(chan string)

	go func() {
		res, err := h.pricer.Convergence(ctx, p, maxPaths, step, func(done, total int) {
			progressChan <- done * 100 / total
		})
		if err != nil {
			resultChan <- describeError(err)
			return
		}
		resultChan <- formatConvergence(res)
	}()

	next := 0
	thread := slack.MsgOptionTS(timestamp)
	for {
		select {
		case progress := <-progressChan:
			for next < len(progressMilestones) && progress >= progressMilestones[next] {
				if _, err := reply(client, channelID, fmt.Sprintf("Sweep %d%% complete...", progressMilestones[next]), thread); err != nil {
					h.log.Warn("progress post failed", zap.Error(err))
				}
				next++
			}
		case result := <-resultChan:
			if _, err := reply(client, channelID, result, thread); err != nil {
				h.log.Warn("result post failed", zap.Error(err))
			}
			return
		}
	}
}

func formatConvergence(r models.ConvergenceResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Convergence against Black-Scholes call %.4f\n", r.AnalyticReference)
	b.WriteString("```\n")
	fmt.Fprintf(&b, "%12s %10s %10s %10s\n", "paths", "call", "stderr", "ms")
	for _, pt := range r.Points {
		fmt.Fprintf(&b, "%12d %10.4f %10.4f %10.1f\n", pt.SimulationCount, pt.CallPrice, pt.StandardError, pt.ComputationTimeMs)
	}
	b.WriteString("```\n")
	fmt.Fprintf(&b, "Final difference: %.4f\nError decay exponent: %.3f", r.FinalDifference, r.ErrorDecayExponent)
	return b.String()
}
