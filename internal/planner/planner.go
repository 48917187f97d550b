package planner

import (
	"context"
	"errors"
	"log"
	"time"
)

// Planner wires the composer, generation client and validator into the
// compose -> request -> validate pipeline. All state is per-call; one
// Planner may serve concurrent requests.
type Planner struct {
	client     *Client
	daily      *Composer
	full       *Composer
	strictness Strictness
}

// New creates a planner around a generation client.
func New(client *Client) *Planner {
	return &Planner{
		client:     client,
		daily:      NewComposer(ModeDailyOnly),
		full:       NewComposer(ModeFullCurriculum),
		strictness: StrictnessShape,
	}
}

// SetStrictness switches leaf-field validation on or off for subsequent
// calls. The default reproduces the lenient shape-only behavior.
func (p *Planner) SetStrictness(level Strictness) { p.strictness = level }

// GeneratePlan produces today's plan for the request, avoiding the supplied
// completed tasks. The call blocks until the upstream endpoint answers or
// ctx is cancelled; no persistence happens here.
func (p *Planner) GeneratePlan(ctx context.Context, req Request, completedTasks []CompletedTask) (*Response, error) {
	return p.generate(ctx, p.daily, req, completedTasks)
}

// GenerateCurriculum produces a full-timeframe curriculum and task list.
// Completed topics are taken from the request itself; no task filtering
// applies in this mode.
func (p *Planner) GenerateCurriculum(ctx context.Context, req Request) (*Response, error) {
	return p.generate(ctx, p.full, req, nil)
}

func (p *Planner) generate(ctx context.Context, composer *Composer, req Request, completedTasks []CompletedTask) (*Response, error) {
	prompt := composer.Compose(req, completedTasks)

	start := time.Now()
	raw, err := p.client.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	resp, err := ValidateWithStrictness(raw, p.strictness)
	if err != nil {
		if m := p.client.metrics; m != nil {
			kind := "shape"
			var pe *ParseError
			if errors.As(err, &pe) {
				kind = "parse"
			}
			m.ValidationFailures.WithLabelValues(kind).Inc()
		}
		log.Printf("[Planner] %s generation produced an unusable reply after %s: %v",
			composer.Mode(), time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}

	log.Printf("[Planner] %s plan generated in %s: %d topics, %d tasks, %d assumptions",
		composer.Mode(), time.Since(start).Round(time.Millisecond),
		len(resp.Curriculum.Topics), len(resp.Tasks), len(resp.Assumptions))
	return resp, nil
}
