package adapt

import (
	"fmt"

	"github.com/vectorstream/patternengine/engine"
	"github.com/vectorstream/patternengine/engine/rl"
)

// StateVersion is the persisted-state format version. ImportState refuses
// to load a snapshot whose version doesn't match, per spec.md section
// 4.9's Corruption handling.
const StateVersion = "1.0.0"

// Config configures an Engine's control loop.
type Config struct {
	RewardWeights RewardWeights
	AgentConfig   rl.Config
	// IntervalMs is how often the control loop ticks; informational here
	// (the loop's actual scheduling is a host responsibility — see
	// engine/host).
	IntervalMs int
	BatchSize  int
}

// DefaultConfig returns the adaptive engine's default configuration.
func DefaultConfig() Config {
	return Config{
		RewardWeights: DefaultRewardWeights(),
		AgentConfig:   rl.DefaultConfig(),
		IntervalMs:    5000,
		BatchSize:     32,
	}
}

// Engine runs the auto-tune control loop of spec.md section 4.9: encode
// state, select an action, decode it into new Params, observe resulting
// metrics, compute reward, train periodically, and track convergence.
type Engine struct {
	cfg Config

	agent  *rl.Agent
	buffer *rl.Buffer

	params       engine.Params
	rewardEMA    float64
	rewardEMAOk  bool
	episodeCount int

	bestReward   float64
	bestParams   engine.Params
	bestRewardOk bool
}

const rewardEMAAlpha = 0.1

// New constructs an Engine with cfg and the given starting parameters.
func New(cfg Config, initial engine.Params) *Engine {
	return &Engine{
		cfg:    cfg,
		agent:  rl.NewAgent(cfg.AgentConfig),
		buffer: rl.NewBuffer(),
		params: initial.Clamp(),
	}
}

// Params returns the engine's currently applied parameters.
func (e *Engine) Params() engine.Params { return e.params }

// RewardEMA returns the exponential moving average of observed rewards,
// the same smoothing shape as sim.AdaptiveWeightedScoring's cache-hit EMA.
func (e *Engine) RewardEMA() float64 { return e.rewardEMA }

// BestReward and BestParams report the best episode seen so far.
func (e *Engine) BestReward() float64       { return e.bestReward }
func (e *Engine) BestParams() engine.Params { return e.bestParams }
func (e *Engine) EpisodeCount() int         { return e.episodeCount }

// Epsilon returns the agent's current exploration rate, for the periodic
// stats snapshot's ExplorationRate field (spec.md section 6 egress).
func (e *Engine) Epsilon() float64 { return e.agent.Epsilon() }

// Convergence reports progress toward convergence per spec.md section
// 4.9: 0.5*(1-epsilon) + 0.5*min(1, episodes/500).
func (e *Engine) Convergence() float64 {
	epsilonTerm := 0.5 * (1 - e.agent.Epsilon())
	episodeTerm := 0.5 * min1(float64(e.episodeCount)/500.0)
	return epsilonTerm + episodeTerm
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

// Tick runs one control-loop step: encodes the given observation into a
// state, selects and applies an action, computes the reward from the
// metrics observed after applying it, pushes a transition, and trains
// every BatchSize episodes. Returns the newly applied Params.
func (e *Engine) Tick(m engine.StreamingMetrics, dc engine.DataCharacteristics, done bool) engine.Params {
	state := engine.EncodeState(e.params, m, dc, e.rewardEMA)
	action := e.agent.SelectAction(state)
	delta := engine.DecodeAction(action)
	newParams := delta.Apply(e.params)

	reward := Reward(e.cfg.RewardWeights, m)
	if !e.rewardEMAOk {
		e.rewardEMA = reward
		e.rewardEMAOk = true
	} else {
		e.rewardEMA = rewardEMAAlpha*reward + (1-rewardEMAAlpha)*e.rewardEMA
	}

	nextState := engine.EncodeState(newParams, m, dc, e.rewardEMA)
	e.buffer.Push(engine.Transition{State: state, NextState: nextState, Action: action, Reward: reward, Done: done})
	e.agent.RecordReward(reward)

	e.episodeCount++
	if e.episodeCount%e.cfg.BatchSize == 0 {
		e.agent.Train(e.buffer)
	}

	if !e.bestRewardOk || reward > e.bestReward {
		e.bestReward = reward
		e.bestParams = e.params
		e.bestRewardOk = true
	}

	e.params = newParams
	return e.params
}

// State is the exported snapshot returned by ExportState, matching
// spec.md section 4.9's (config, statistics, current_state, buffer,
// agent_weights, version) tuple.
type State struct {
	Version      string
	Config       Config
	Params       engine.Params
	RewardEMA    float64
	EpisodeCount int
	BestReward   float64
	BestParams   engine.Params
	AgentState   rl.ExportedState
}

// ExportState serializes the engine's full control-loop state.
func (e *Engine) ExportState() State {
	return State{
		Version:      StateVersion,
		Config:       e.cfg,
		Params:       e.params,
		RewardEMA:    e.rewardEMA,
		EpisodeCount: e.episodeCount,
		BestReward:   e.bestReward,
		BestParams:   e.bestParams,
		AgentState:   e.agent.Export(),
	}
}

// ImportState restores an Engine from a previously exported State. A
// version mismatch is refused (spec.md section 7's Corruption handling),
// returning an error wrapping engine.ErrCorruption.
func (e *Engine) ImportState(s State) error {
	if s.Version != StateVersion {
		return fmt.Errorf("adapt: state version %q != %q: %w", s.Version, StateVersion, engine.ErrCorruption)
	}
	if err := e.agent.Import(s.AgentState); err != nil {
		return fmt.Errorf("adapt: import agent state: %w", err)
	}
	e.cfg = s.Config
	e.params = s.Params
	e.rewardEMA = s.RewardEMA
	e.rewardEMAOk = true
	e.episodeCount = s.EpisodeCount
	e.bestReward = s.BestReward
	e.bestParams = s.BestParams
	e.bestRewardOk = true
	return nil
}
