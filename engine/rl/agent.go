package rl

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/vectorstream/patternengine/engine"
)

// Algorithm selects which RL update rule Train uses. ActorCritic is the
// default; the others can be selected and share the same network topology
// and action decoding, but Train performs no update for them: it logs a
// warning and returns.
type Algorithm string

const (
	ActorCritic Algorithm = "actor-critic"
	QLearning   Algorithm = "q-learning"
	SARSA       Algorithm = "sarsa"
	DQN         Algorithm = "dqn"
)

// Config configures an Agent's hyperparameters, matching spec.md section
// 4.8's stated defaults.
type Config struct {
	Algorithm             Algorithm
	LearningRate          float64
	Gamma                 float64
	EpsilonInit           float64
	EpsilonDecay          float64
	EpsilonMin            float64
	BatchSize             int
	TargetUpdateFrequency int
	Seed                  int64
}

// DefaultConfig returns the hyperparameter defaults from spec.md section
// 4.8.
func DefaultConfig() Config {
	return Config{
		Algorithm:             ActorCritic,
		LearningRate:          1e-3,
		Gamma:                 0.99,
		EpsilonInit:           1.0,
		EpsilonDecay:          0.995,
		EpsilonMin:            0.01,
		BatchSize:             32,
		TargetUpdateFrequency: 100,
	}
}

// network is a two-hidden-layer MLP: state_dim -> 128 -> 64 -> headDim,
// with ReLU hidden activations. headActivate/headDerivative let the actor
// use sigmoid heads and the critic a linear head.
type network struct {
	hidden1, hidden2, head *denseLayer
}

func newNetwork(headDim int, rng *rand.Rand, headActivate, headDerivative func(float64) float64) *network {
	return &network{
		hidden1: newDenseLayer(layerSizes[0], layerSizes[1], rng, relu, reluDerivative),
		hidden2: newDenseLayer(layerSizes[1], layerSizes[2], rng, relu, reluDerivative),
		head:    newDenseLayer(layerSizes[2], headDim, rng, headActivate, headDerivative),
	}
}

func (n *network) forward(state []float64) *mat.Dense {
	x := vecToColumn(state)
	h1 := n.hidden1.forward(x)
	h2 := n.hidden2.forward(h1)
	return n.head.forward(h2)
}

func (n *network) backward(dHead *mat.Dense, lr float64) {
	dH2 := n.head.backward(dHead, lr)
	dH1 := n.hidden2.backward(dH2, lr)
	n.hidden1.backward(dH1, lr)
}

func (n *network) clone() *network {
	return &network{
		hidden1: cloneLayer(n.hidden1),
		hidden2: cloneLayer(n.hidden2),
		head:    cloneLayer(n.head),
	}
}

func cloneLayer(l *denseLayer) *denseLayer {
	return &denseLayer{
		w:        mat.DenseCopyOf(l.w),
		b:        mat.DenseCopyOf(l.b),
		activate: l.activate,
		derivate: l.derivate,
	}
}

func (n *network) copyFrom(other *network) {
	n.hidden1.w.Copy(other.hidden1.w)
	n.hidden1.b.Copy(other.hidden1.b)
	n.hidden2.w.Copy(other.hidden2.w)
	n.hidden2.b.Copy(other.hidden2.b)
	n.head.w.Copy(other.head.w)
	n.head.b.Copy(other.head.b)
}

// Agent is an actor-critic RL agent per spec.md section 4.8: an actor MLP
// producing a 5-dimensional sigmoid action, a critic MLP producing a
// scalar value estimate, and target copies of both updated periodically.
type Agent struct {
	cfg Config
	rng *rand.Rand
	src *splitmix64Source

	actor        *network
	critic       *network
	targetActor  *network
	targetCritic *network

	epsilon      float64
	trainSteps   int
	bestReward   float64
	bestRewardOk bool
}

// NewAgent constructs an Agent with cfg, seeding its own weight
// initialization and exploration noise from a dedicated RNG so its
// behavior is reproducible independent of other subsystems (see
// engine.PartitionedRNG).
func NewAgent(cfg Config) *Agent {
	if cfg.Algorithm == "" {
		cfg.Algorithm = ActorCritic
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = DefaultConfig().LearningRate
	}
	if cfg.Gamma == 0 {
		cfg.Gamma = DefaultConfig().Gamma
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.TargetUpdateFrequency == 0 {
		cfg.TargetUpdateFrequency = DefaultConfig().TargetUpdateFrequency
	}
	src := newSplitmix64Source(cfg.Seed)
	rng := rand.New(src)

	actor := newNetwork(engine.ActionDim, rng, sigmoid, sigmoidDerivative)
	critic := newNetwork(1, rng, identity, identityDerivative)

	a := &Agent{
		cfg:          cfg,
		rng:          rng,
		src:          src,
		actor:        actor,
		critic:       critic,
		targetActor:  actor.clone(),
		targetCritic: critic.clone(),
		epsilon:      cfg.EpsilonInit,
	}
	if a.epsilon == 0 {
		a.epsilon = DefaultConfig().EpsilonInit
	}
	return a
}

// SelectAction runs the deterministic actor policy on state, adds Gaussian
// exploration noise scaled by the current epsilon, and clips the result to
// [0,1]^5.
func (a *Agent) SelectAction(state engine.StateSpace) engine.ActionSpace {
	out := a.actor.forward(state[:])
	var action engine.ActionSpace
	for i := 0; i < engine.ActionDim; i++ {
		v := out.At(i, 0) + a.rng.NormFloat64()*a.epsilon
		action[i] = clip01(v)
	}
	return action
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Train samples a batch from buf and runs one critic + actor update step,
// per spec.md section 4.8: critic target r + gamma*V(s')*(1-done), critic
// updated by MSE, actor updated by a deterministic-policy-gradient
// estimator (here approximated via a finite-difference-free surrogate:
// actor output is pushed toward the action that produced higher-than-
// expected advantage).
func (a *Agent) Train(buf *Buffer) {
	if a.cfg.Algorithm != ActorCritic {
		logrus.Warnf("rl: algorithm %q selected but only actor-critic is implemented; Train is a no-op", a.cfg.Algorithm)
		return
	}

	batch := buf.Sample(a.cfg.BatchSize, a.rng)
	if batch == nil {
		return
	}

	for _, t := range batch {
		var nextValue float64
		if !t.Done {
			nextValue = a.targetCritic.forward(t.NextState[:]).At(0, 0)
		}
		target := t.Reward + a.cfg.Gamma*nextValue

		predicted := a.critic.forward(t.State[:])
		advantage := target - predicted.At(0, 0)

		dCritic := mat.NewDense(1, 1, []float64{-2 * advantage})
		a.critic.backward(dCritic, a.cfg.LearningRate)

		actorOut := a.actor.forward(t.State[:])
		dActor := mat.NewDense(engine.ActionDim, 1, nil)
		for i := 0; i < engine.ActionDim; i++ {
			// Push the actor's output toward the action actually taken,
			// scaled by the sign and magnitude of the advantage: a
			// positive advantage reinforces the taken action, a negative
			// one pushes away from it.
			dActor.Set(i, 0, -(t.Action[i]-actorOut.At(i, 0))*advantage)
		}
		a.actor.backward(dActor, a.cfg.LearningRate)
	}

	a.trainSteps++
	if a.trainSteps%a.cfg.TargetUpdateFrequency == 0 {
		a.UpdateTarget()
	}
	a.epsilon = math.Max(a.cfg.EpsilonMin, a.epsilon*a.cfg.EpsilonDecay)
}

// UpdateTarget copies the live actor/critic weights to their target
// networks.
func (a *Agent) UpdateTarget() {
	a.targetActor.copyFrom(a.actor)
	a.targetCritic.copyFrom(a.critic)
}

// Epsilon returns the agent's current exploration rate.
func (a *Agent) Epsilon() float64 { return a.epsilon }

// TrainSteps returns the number of Train calls performed so far.
func (a *Agent) TrainSteps() int { return a.trainSteps }

// RecordReward tracks the best reward observed, for convergence reporting
// (spec.md section 4.9's best_reward).
func (a *Agent) RecordReward(r float64) {
	if !a.bestRewardOk || r > a.bestReward {
		a.bestReward = r
		a.bestRewardOk = true
	}
}

// BestReward returns the best reward recorded via RecordReward.
func (a *Agent) BestReward() float64 { return a.bestReward }

// ExportedState is the serializable snapshot returned by Export, matching
// spec.md section 4.8's "serialize parameters and RNG state" requirement.
type ExportedState struct {
	Config        Config
	Epsilon       float64
	TrainSteps    int
	BestReward    float64
	BestRewardOk  bool
	ActorWeights  LayerWeights
	CriticWeights LayerWeights
	RNGState      uint64
}

// LayerWeights holds the flattened weight/bias matrices for one network's
// three layers.
type LayerWeights struct {
	H1W, H1B     []float64
	H2W, H2B     []float64
	HeadW, HeadB []float64
}

func flatten(d *mat.Dense) []float64 {
	r, c := d.Dims()
	out := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i*c+j] = d.At(i, j)
		}
	}
	return out
}

func unflattenInto(d *mat.Dense, flat []float64) error {
	r, c := d.Dims()
	if len(flat) != r*c {
		return fmt.Errorf("rl: weight shape mismatch: have %d values, want %dx%d", len(flat), r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d.Set(i, j, flat[i*c+j])
		}
	}
	return nil
}

func exportNetwork(n *network) LayerWeights {
	return LayerWeights{
		H1W: flatten(n.hidden1.w), H1B: flatten(n.hidden1.b),
		H2W: flatten(n.hidden2.w), H2B: flatten(n.hidden2.b),
		HeadW: flatten(n.head.w), HeadB: flatten(n.head.b),
	}
}

func importNetwork(n *network, w LayerWeights) error {
	if err := unflattenInto(n.hidden1.w, w.H1W); err != nil {
		return err
	}
	if err := unflattenInto(n.hidden1.b, w.H1B); err != nil {
		return err
	}
	if err := unflattenInto(n.hidden2.w, w.H2W); err != nil {
		return err
	}
	if err := unflattenInto(n.hidden2.b, w.H2B); err != nil {
		return err
	}
	if err := unflattenInto(n.head.w, w.HeadW); err != nil {
		return err
	}
	return unflattenInto(n.head.b, w.HeadB)
}

// Export serializes the agent's weights and training state.
func (a *Agent) Export() ExportedState {
	return ExportedState{
		Config:        a.cfg,
		Epsilon:       a.epsilon,
		TrainSteps:    a.trainSteps,
		BestReward:    a.bestReward,
		BestRewardOk:  a.bestRewardOk,
		ActorWeights:  exportNetwork(a.actor),
		CriticWeights: exportNetwork(a.critic),
		RNGState:      a.src.Snapshot(),
	}
}

// Import restores an Agent from a previously Exported state. The caller
// must construct the Agent with matching Config first (NewAgent(s.Config))
// so network shapes match.
func (a *Agent) Import(s ExportedState) error {
	if err := importNetwork(a.actor, s.ActorWeights); err != nil {
		return err
	}
	if err := importNetwork(a.critic, s.CriticWeights); err != nil {
		return err
	}
	a.UpdateTarget()
	a.epsilon = s.Epsilon
	a.trainSteps = s.TrainSteps
	a.bestReward = s.BestReward
	a.bestRewardOk = s.BestRewardOk
	a.src.Restore(s.RNGState)
	return nil
}
