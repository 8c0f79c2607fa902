package output

import (
	"sync"
)

// fakePlatform is a scriptable platform. Buffers are consumed only when a
// test calls consume on the player.
type fakePlatform struct {
	props Properties

	engineErr   error
	mixErr      error
	playerErr   error
	controlErr  error
	queueErr    error
	registerErr error

	mu        sync.Mutex
	engine    *fakeEngine
	destroyed []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{}
}

func (p *fakePlatform) Name() string           { return "fake" }
func (p *fakePlatform) Properties() Properties { return p.props }

func (p *fakePlatform) CreateEngine() (Engine, error) {
	if p.engineErr != nil {
		return nil, p.engineErr
	}
	e := &fakeEngine{platform: p}
	p.mu.Lock()
	p.engine = e
	p.mu.Unlock()
	return e, nil
}

func (p *fakePlatform) recordDestroy(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = append(p.destroyed, name)
}

func (p *fakePlatform) destroyOrder() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.destroyed...)
}

// lastPlayer returns the most recently created player
func (p *fakePlatform) lastPlayer() *fakePlayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil || len(p.engine.players) == 0 {
		return nil
	}
	return p.engine.players[len(p.engine.players)-1]
}

func (p *fakePlatform) playerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return 0
	}
	return len(p.engine.players)
}

type fakeEngine struct {
	platform *fakePlatform
	players  []*fakePlayer
}

func (e *fakeEngine) CreateOutputMix() (OutputMix, error) {
	if e.platform.mixErr != nil {
		return nil, e.platform.mixErr
	}
	return &fakeMix{platform: e.platform}, nil
}

func (e *fakeEngine) CreatePlayer(src DataSource, sink DataSink) (Player, error) {
	if e.platform.playerErr != nil {
		return nil, e.platform.playerErr
	}
	pl := &fakePlayer{platform: e.platform, src: src, state: PlayStateStopped}
	e.platform.mu.Lock()
	e.players = append(e.players, pl)
	e.platform.mu.Unlock()
	return pl, nil
}

func (e *fakeEngine) Destroy() {
	e.platform.recordDestroy("engine")
}

type fakeMix struct {
	platform *fakePlatform
}

func (m *fakeMix) Destroy() {
	m.platform.recordDestroy("outputMix")
}

type fakePlayer struct {
	platform *fakePlatform
	src      DataSource

	mu          sync.Mutex
	state       PlayState
	stateErr    map[PlayState]error
	enqueueErr  error
	clearErr    error
	onClear     func()
	pending     [][]byte
	callback    func()
	destroyed   bool
	enqueued    int
	clears      int
	maxInFlight int
}

func (p *fakePlayer) PlayControl() (PlayControl, error) {
	if p.platform.controlErr != nil {
		return nil, p.platform.controlErr
	}
	return p, nil
}

func (p *fakePlayer) BufferQueue() (BufferQueue, error) {
	if p.platform.queueErr != nil {
		return nil, p.platform.queueErr
	}
	return p, nil
}

func (p *fakePlayer) Destroy() {
	p.mu.Lock()
	p.destroyed = true
	p.pending = nil
	p.mu.Unlock()
	p.platform.recordDestroy("player")
}

func (p *fakePlayer) SetPlayState(state PlayState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.stateErr[state]; err != nil {
		return err
	}
	p.state = state
	return nil
}

func (p *fakePlayer) Enqueue(buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return ResultPreconditionsViolated
	}
	if p.enqueueErr != nil {
		return p.enqueueErr
	}
	if len(p.pending) >= p.src.QueueSlots {
		return ResultBufferInsufficient
	}
	p.pending = append(p.pending, buf)
	p.enqueued++
	if len(p.pending) > p.maxInFlight {
		p.maxInFlight = len(p.pending)
	}
	return nil
}

func (p *fakePlayer) Clear() error {
	p.mu.Lock()
	p.clears++
	if p.clearErr != nil {
		p.mu.Unlock()
		return p.clearErr
	}
	p.pending = nil
	hook := p.onClear
	p.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (p *fakePlayer) RegisterCallback(fn func()) error {
	if p.platform.registerErr != nil {
		return p.platform.registerErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callback = fn
	return nil
}

// consume drains the head buffer and fires the consumed notification the way
// a device thread would. The callback registered at open time is used even
// after the player was destroyed, modelling a notification already in flight.
func (p *fakePlayer) consume() bool {
	p.mu.Lock()
	if len(p.pending) == 0 && !p.destroyed {
		p.mu.Unlock()
		return false
	}
	if len(p.pending) > 0 {
		p.pending = p.pending[1:]
	}
	cb := p.callback
	p.mu.Unlock()

	if cb != nil {
		cb()
	}
	return true
}

func (p *fakePlayer) inFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *fakePlayer) playState() PlayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *fakePlayer) setStateErr(state PlayState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stateErr == nil {
		p.stateErr = make(map[PlayState]error)
	}
	p.stateErr[state] = err
}

func (p *fakePlayer) setEnqueueErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enqueueErr = err
}

func (p *fakePlayer) counts() (enqueued, clears, maxInFlight int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enqueued, p.clears, p.maxInFlight
}

// fireCallback delivers a consumed notification without draining a buffer,
// as a device thread that was already past the drain would
func (p *fakePlayer) fireCallback() {
	p.mu.Lock()
	cb := p.callback
	p.mu.Unlock()
	if cb != nil {
		cb()
	}
}
