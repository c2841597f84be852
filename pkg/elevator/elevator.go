// Package elevator implements the voice-driven elevator simulator: a pure
// cab state machine and a timer-driven engine that advances it one floor
// per tick.
// 이 패키지는 스레드 안전(Thread-safe)한 이벤트 기반 엘리베이터 시뮬레이터를 구현합니다.
// 한 번에 한 층씩 이동하며, 비상/취소 명령으로 언제든 중단할 수 있습니다.
package elevator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"

	"voice-elevator-simulator/pkg/command"
)

// EventType represents the category of an elevator event.
// EventType는 엘리베이터 이벤트의 카테고리를 나타냅니다.
type EventType string

const (
	EventFloorChange     EventType = "FloorChange"
	EventDoorChange      EventType = "DoorChange"
	EventTargetChange    EventType = "TargetChange"
	EventMovingChange    EventType = "MovingChange"
	EventListeningChange EventType = "ListeningChange"
	EventEmergency       EventType = "Emergency"
	EventArrived         EventType = "Arrived"
	EventIntent          EventType = "Intent"
	EventMaxFloorChange  EventType = "MaxFloorChange"
)

// Event carries the state change information.
// Event는 시스템 내에서 발생한 상태 변화 정보를 담고 있습니다.
type Event struct {
	Type      EventType
	Payload   any
	Timestamp time.Time
}

// IntentPayload carries detail for intent events.
type IntentPayload struct {
	Intent  string `json:"intent"`
	Ignored bool   `json:"ignored"`
}

// ArrivedPayload carries detail for arrival events.
// ArrivedPayload는 도착 이벤트의 세부 정보를 담고 있습니다.
type ArrivedPayload struct {
	Floor int `json:"floor"`
}

// Announcer receives phrases to be spoken.
type Announcer interface {
	Speak(phrase string)
}

// AnnouncerFunc adapts a function to Announcer.
type AnnouncerFunc func(phrase string)

// Speak calls f(phrase).
func (f AnnouncerFunc) Speak(phrase string) { f(phrase) }

// Config holds immutable configuration parameters.
// Config는 시스템 시작 시 설정되며, 런타임 중에 변경되지 않습니다 (MaxFloor 제외).
type Config struct {
	ID           string
	MaxFloor     int           // 최고 층 (3~40)
	InitialFloor int           // 초기 층
	StepInterval time.Duration // 한 층 이동 시간
	SettleDelay  time.Duration // 도착 후 문 열림까지 대기 시간
}

// DefaultConfig returns the demo defaults.
func DefaultConfig() Config {
	return Config{
		MaxFloor:     10,
		InitialFloor: 0,
		StepInterval: time.Second,
		SettleDelay:  500 * time.Millisecond,
	}
}

type phase int

const (
	phaseIdle     phase = iota // 타이머 없음
	phaseStepping              // 다음 이동 단계 예약됨
	phaseSettling              // 도착 정착 대기 중
)

// Elevator is the engine driving a Cab.
// Elevator는 모든 상태 변경은 Mutex로 보호되며, 변경 사항은 Event 채널로 전파됩니다.
type Elevator struct {
	mu     sync.RWMutex
	Config Config

	cab   *Cab
	phase phase

	announcer Announcer

	// --- Loop Control ---
	stepTimer *time.Timer   // 유일한 이동 단계 타이머
	wake      chan struct{} // 새 목표가 생겼음을 Run 루프에 알림

	// --- Observability ---
	logger            *slog.Logger
	eventCh           chan Event
	droppedEventCount uint64
}

// New initializes a new Elevator instance with strict validation.
// 잘못된 설정이 감지되면 즉시 에러를 반환합니다 (Fail Fast).
func New(config Config, announcer Announcer) (*Elevator, error) {
	if config.MaxFloor < MinMaxFloor || config.MaxFloor > MaxMaxFloor {
		return nil, fmt.Errorf("invalid config: MaxFloor (%d) not in [%d, %d]", config.MaxFloor, MinMaxFloor, MaxMaxFloor)
	}
	if config.InitialFloor < 0 || config.InitialFloor > config.MaxFloor {
		return nil, fmt.Errorf("invalid config: InitialFloor (%d) not in [0, %d]", config.InitialFloor, config.MaxFloor)
	}
	if config.StepInterval <= 0 {
		return nil, errors.New("invalid config: StepInterval must be positive")
	}
	if config.SettleDelay < 0 {
		return nil, errors.New("invalid config: SettleDelay must not be negative")
	}
	if config.ID == "" {
		config.ID = uuid.NewString()
	}

	e := &Elevator{
		Config:    config,
		cab:       NewCab(config.MaxFloor, config.InitialFloor),
		announcer: announcer,
		stepTimer: time.NewTimer(0),
		wake:      make(chan struct{}, 1),
		eventCh:   make(chan Event, 1000),
		logger:    slog.Default().With("id", config.ID),
	}
	stopTimer(e.stepTimer)

	e.logger.Info("Elevator initialized",
		"max", config.MaxFloor,
		"init_floor", config.InitialFloor,
		"step", config.StepInterval,
	)
	return e, nil
}

// Snapshot returns an independent copy of the current state.
// Snapshot은 현재 상태의 깊은 복사본을 반환합니다.
func (e *Elevator) Snapshot() State {
	e.mu.RLock()
	st := e.cab.State()
	e.mu.RUnlock()

	var snap State
	if err := deepcopy.Copy(&snap, &st); err != nil {
		e.logger.Error("Snapshot copy failed", "error", err)
		snap = st
		if st.TargetFloor != nil {
			t := *st.TargetFloor
			snap.TargetFloor = &t
		}
	}
	return snap
}

// Floor returns the current floor safely.
// Floor은 현재 층을 안전하게 반환합니다.
func (e *Elevator) Floor() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cab.state.CurrentFloor
}

// MaxFloor returns the configured top floor.
func (e *Elevator) MaxFloor() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cab.state.MaxFloor
}

// Events returns the read-only channel for state change notifications.
// Events는 상태 변경 알림을 위한 읽기 전용 채널을 반환합니다.
func (e *Elevator) Events() <-chan Event {
	return e.eventCh
}

// DroppedEventCount returns diagnostic metric for channel health.
func (e *Elevator) DroppedEventCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.droppedEventCount
}

// Apply applies one intent and speaks the resulting phrases.
// Apply는 Intent를 적용하고, 필요하면 이동 스케줄러를 깨웁니다.
func (e *Elevator) Apply(in command.Intent) Outcome {
	e.mu.Lock()
	prev := e.cab.State()
	out := e.cab.Apply(in)
	e.publishEvent(EventIntent, IntentPayload{Intent: in.String(), Ignored: out.Ignored})
	e.publishDiff(prev, e.cab.State())
	pending := e.cab.HasPendingTarget()
	e.mu.Unlock()

	if out.Ignored {
		e.logger.Info("Intent ignored (emergency active)", "intent", in)
	} else {
		e.logger.Info("Intent applied", "intent", in)
	}
	if in.Type == command.IntentEmergency {
		e.logger.Warn("Emergency Stop Activated")
	}

	if pending {
		e.kick()
	}
	e.speak(out.Speech...)
	return out
}

// DismissEmergency clears the emergency flag. Only the UI reaches this.
// DismissEmergency는 비상 상태를 해제합니다 (음성 명령으로는 불가).
func (e *Elevator) DismissEmergency() bool {
	e.mu.Lock()
	prev := e.cab.State()
	ok, phrase := e.cab.Dismiss()
	e.publishDiff(prev, e.cab.State())
	e.mu.Unlock()

	if !ok {
		e.logger.Debug("Dismiss ignored: no emergency")
		return false
	}
	e.logger.Info("Emergency dismissed")
	e.speak(phrase)
	return true
}

// SetMaxFloor changes the top floor and returns the effective value.
// SetMaxFloor는 최고 층을 변경합니다. 이동 중인 목표 층도 즉시 보정됩니다.
func (e *Elevator) SetMaxFloor(n int) int {
	e.mu.Lock()
	prev := e.cab.State()
	got := e.cab.SetMaxFloor(n)
	if prev.MaxFloor != got {
		e.publishEvent(EventMaxFloorChange, got)
	}
	e.publishDiff(prev, e.cab.State())
	e.mu.Unlock()

	e.logger.Info("Max floor changed", "requested", n, "max", got)
	return got
}

// SetListening mirrors the voice capture flag into the state.
func (e *Elevator) SetListening(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.cab.State()
	e.cab.SetListening(on)
	e.publishDiff(prev, e.cab.State())
}

// Reset restores the initial floor and clears every flag except MaxFloor.
// Reset은 엘리베이터 상태를 초기화합니다.
func (e *Elevator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Info("Resetting elevator state")
	prev := e.cab.State()
	e.cab = NewCab(prev.MaxFloor, e.Config.InitialFloor)
	e.cab.SetListening(prev.Listening)
	e.phase = phaseIdle
	e.publishDiff(prev, e.cab.State())
}

// Run executes the main event loop.
// It owns the single step timer; Apply only wakes it up.
// Run은 엘리베이터의 메인 이벤트 루프를 실행합니다.
// 이동 단계 타이머는 항상 하나만 존재합니다.
func (e *Elevator) Run(ctx context.Context) error {
	e.logger.Info("Elevator Engine Started")
	defer stopTimer(e.stepTimer)

	// 시작 전에 설정된 목표가 있으면 바로 예약
	e.kick()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine Stopping (Context Cancelled)")
			return ctx.Err()

		case <-e.wake:
			if d, ok := e.schedule(); ok {
				stopTimer(e.stepTimer)
				e.stepTimer.Reset(d)
			}

		case <-e.stepTimer.C:
			if d, ok := e.tick(); ok {
				e.stepTimer.Reset(d)
			}
		}
	}
}

// kick wakes the Run loop without blocking.
func (e *Elevator) kick() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// schedule starts a movement sequence when a target is pending and no
// step is in flight.
func (e *Elevator) schedule() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// [Guard Clause] 이미 예약된 단계가 있으면 새 타이머를 만들지 않음
	if e.phase != phaseIdle || !e.cab.HasPendingTarget() {
		return 0, false
	}
	e.phase = phaseStepping
	e.logger.Debug("Movement scheduled", "target", *e.cab.state.TargetFloor)
	return e.Config.StepInterval, true
}

// tick handles one timer expiry and returns the next delay, if any.
// tick은 타이머 만료를 처리하고 다음 대기 시간을 반환합니다.
func (e *Elevator) tick() (time.Duration, bool) {
	e.mu.Lock()
	var phrase string
	defer func() {
		e.mu.Unlock()
		e.speak(phrase)
	}()

	prev := e.cab.State()

	switch e.phase {
	case phaseStepping:
		res := e.cab.Step()
		e.publishDiff(prev, e.cab.State())
		e.logger.Debug("Step", "result", res, "floor", e.cab.state.CurrentFloor)

		switch res {
		case StepDoorsClosed, StepMoved:
			return e.Config.StepInterval, true
		case StepReached:
			e.phase = phaseSettling
			return e.Config.SettleDelay, true
		case StepAborted:
			e.logger.Warn("Movement aborted", "floor", e.cab.state.CurrentFloor)
		}
		e.phase = phaseIdle
		return 0, false

	case phaseSettling:
		res, p := e.cab.Settle()
		e.publishDiff(prev, e.cab.State())

		switch res {
		case SettleArrived:
			floor := e.cab.state.CurrentFloor
			e.logger.Info("Arrived at floor", "floor", floor)
			e.publishEvent(EventArrived, ArrivedPayload{Floor: floor})
			phrase = p
		case SettleContinue:
			e.phase = phaseStepping
			return e.Config.StepInterval, true
		}
		e.phase = phaseIdle
		return 0, false
	}

	// stale timer
	return 0, false
}

func (e *Elevator) speak(phrases ...string) {
	if e.announcer == nil {
		return
	}
	for _, p := range phrases {
		if p != "" {
			e.announcer.Speak(p)
		}
	}
}

// publishEvent sends an event to the channel without blocking logic.
// 채널이 가득 차면 이벤트를 버리고 메트릭을 증가시킵니다 (System Stability).
func (e *Elevator) publishEvent(eventType EventType, payload any) {
	event := Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	select {
	case e.eventCh <- event:
	default:
		e.droppedEventCount++
		if e.droppedEventCount%100 == 1 {
			e.logger.Error("Event Channel Saturated", "dropped", e.droppedEventCount, "type", eventType)
		}
	}
}

// publishDiff publishes one event per changed field.
// publishDiff는 변경된 필드마다 이벤트를 게시합니다.
func (e *Elevator) publishDiff(prev, next State) {
	if prev.CurrentFloor != next.CurrentFloor {
		e.publishEvent(EventFloorChange, next.CurrentFloor)
	}
	if prev.DoorsOpen != next.DoorsOpen {
		e.publishEvent(EventDoorChange, next.DoorsOpen)
	}
	if !sameTarget(prev.TargetFloor, next.TargetFloor) {
		var payload any
		if next.TargetFloor != nil {
			payload = *next.TargetFloor
		}
		e.publishEvent(EventTargetChange, payload)
	}
	if prev.Moving != next.Moving {
		e.publishEvent(EventMovingChange, next.Moving)
	}
	if prev.Listening != next.Listening {
		e.publishEvent(EventListeningChange, next.Listening)
	}
	if prev.Emergency != next.Emergency {
		e.publishEvent(EventEmergency, next.Emergency)
	}
}

func sameTarget(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// stopTimer stops t and drains a pending expiry.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
