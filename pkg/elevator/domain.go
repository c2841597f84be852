package elevator

import (
	"fmt"

	"voice-elevator-simulator/pkg/command"
)

// --- Domain Entities & Value Objects ---

// Floor range accepted for MaxFloor.
// MaxFloor 설정 허용 범위입니다.
const (
	MinMaxFloor = 3
	MaxMaxFloor = 40
)

// State is the complete, copyable state of the cab.
// State는 엘리베이터 칸의 전체 상태입니다. TargetFloor가 nil이면 목표 층이 없습니다.
type State struct {
	CurrentFloor int  `json:"currentFloor"`
	TargetFloor  *int `json:"targetFloor"`
	MaxFloor     int  `json:"maxFloor"`
	DoorsOpen    bool `json:"doorsOpen"`
	Moving       bool `json:"moving"`
	Listening    bool `json:"listening"`
	Emergency    bool `json:"emergency"`
}

// Direction indicates the vertical movement vector.
// Direction은 수직 이동 벡터를 나타냅니다.
type Direction string

const (
	DirUp   Direction = "Up"
	DirDown Direction = "Down"
	DirNone Direction = "None"
)

// Direction reports where the cab is heading.
func (s State) Direction() Direction {
	switch {
	case s.TargetFloor == nil:
		return DirNone
	case *s.TargetFloor > s.CurrentFloor:
		return DirUp
	case *s.TargetFloor < s.CurrentFloor:
		return DirDown
	}
	return DirNone
}

// Outcome is the result of applying one intent.
// Outcome은 Intent 적용 결과입니다.
type Outcome struct {
	Intent  command.Intent
	Ignored bool     // 비상 상태로 무시됨
	Speech  []string // 음성 안내 문구
}

// StepResult is the decision taken by one scheduled movement step.
// StepResult는 한 번의 이동 단계에서 결정된 동작입니다.
type StepResult int

const (
	StepIdle        StepResult = iota // 목표 없음
	StepDoorsClosed                   // 출발 전 문 닫음
	StepMoved                         // 한 층 이동
	StepReached                       // 목표 층 도달 (정착 대기)
	StepAborted                       // 비상으로 중단
)

func (r StepResult) String() string {
	return [...]string{"Idle", "DoorsClosed", "Moved", "Reached", "Aborted"}[r]
}

// SettleResult is the decision taken once the settle delay has elapsed.
type SettleResult int

const (
	SettleArrived  SettleResult = iota // 도착, 문 열림
	SettleContinue                     // 목표가 바뀌어 계속 이동
	SettleAborted                      // 취소 또는 비상
)

// Cab contains the pure state machine of the elevator.
// Cab은 엘리베이터의 순수 비즈니스 로직을 포함합니다.
// No mutex, No channel, No time.
type Cab struct {
	state State
}

// NewCab creates a cab at initialFloor. maxFloor is clamped to
// [MinMaxFloor, MaxMaxFloor] and initialFloor to [0, maxFloor].
func NewCab(maxFloor, initialFloor int) *Cab {
	maxFloor = command.Clamp(maxFloor, MinMaxFloor, MaxMaxFloor)
	return &Cab{
		state: State{
			CurrentFloor: command.Clamp(initialFloor, 0, maxFloor),
			MaxFloor:     maxFloor,
		},
	}
}

// State returns the state by value. TargetFloor still aliases the cab; use
// Elevator.Snapshot for an independent copy.
func (c *Cab) State() State {
	return c.state
}

// Apply runs the transition rules for one intent.
// Apply는 하나의 Intent에 대한 상태 전이 규칙을 실행합니다.
func (c *Cab) Apply(in command.Intent) Outcome {
	out := Outcome{Intent: in}

	// [Guard Clause] 비상 상태에서는 이동 명령 무시
	if c.state.Emergency && in.MovesCab() {
		out.Ignored = true
		out.Speech = append(out.Speech, "Emergencia activa: el ascensor no puede moverse.")
		return out
	}

	switch in.Type {
	case command.IntentEmergency:
		c.state.Emergency = true
		c.state.TargetFloor = nil
		c.state.Moving = false
		out.Speech = append(out.Speech, "¡Emergencia activada! El ascensor se detuvo. Mantené la calma, la asistencia está en camino.")

	case command.IntentCancel:
		c.state.TargetFloor = nil
		c.state.Moving = false
		out.Speech = append(out.Speech, "Viaje cancelado.")

	case command.IntentOpenDoors:
		c.state.DoorsOpen = true
		// 문이 열리면 이동을 멈추고, 다음 단계에서 문을 닫은 뒤 다시 출발합니다.
		c.state.Moving = false
		out.Speech = append(out.Speech, "Abriendo puertas.")

	case command.IntentCloseDoors:
		c.state.DoorsOpen = false
		out.Speech = append(out.Speech, "Cerrando puertas.")

	case command.IntentStepUp:
		return c.moveTo(in, c.state.CurrentFloor+1)

	case command.IntentStepDown:
		return c.moveTo(in, c.state.CurrentFloor-1)

	case command.IntentMoveToFloor:
		return c.moveTo(in, in.Floor)
	}

	return out
}

func (c *Cab) moveTo(in command.Intent, floor int) Outcome {
	out := Outcome{Intent: in}
	floor = c.clamp(floor)

	if floor == c.state.CurrentFloor {
		c.state.TargetFloor = nil
		c.state.Moving = false
		c.state.DoorsOpen = true
		out.Speech = append(out.Speech, "Ya estás "+location(floor)+".")
		return out
	}

	c.state.TargetFloor = &floor
	c.state.DoorsOpen = false
	out.Speech = append(out.Speech, "Yendo "+destination(floor)+".")
	return out
}

// Step performs one scheduled movement step.
// Step은 예약된 이동 단계 하나를 수행합니다: 문 닫기 또는 한 층 이동.
func (c *Cab) Step() StepResult {
	// [Safety Guard] 비상 상태에서는 즉시 중단, 목표는 재개되지 않음
	if c.state.Emergency {
		c.state.Moving = false
		return StepAborted
	}

	if c.state.TargetFloor == nil {
		c.state.Moving = false
		return StepIdle
	}

	// 출발 전 문 닫기 (층 변화 없음)
	if c.state.DoorsOpen {
		c.state.DoorsOpen = false
		c.state.Moving = true
		return StepDoorsClosed
	}

	target := *c.state.TargetFloor
	switch {
	case target > c.state.CurrentFloor:
		c.state.CurrentFloor++
	case target < c.state.CurrentFloor:
		c.state.CurrentFloor--
	}
	c.state.Moving = true

	if c.state.CurrentFloor == target {
		return StepReached
	}
	return StepMoved
}

// Settle completes an arrival after the settle delay.
// Settle은 정착 대기 후 도착을 완료합니다.
func (c *Cab) Settle() (SettleResult, string) {
	if c.state.Emergency || c.state.TargetFloor == nil {
		c.state.Moving = false
		return SettleAborted, ""
	}
	if *c.state.TargetFloor != c.state.CurrentFloor {
		// 정착 대기 중 목표가 변경됨
		return SettleContinue, ""
	}

	c.state.TargetFloor = nil
	c.state.Moving = false
	c.state.DoorsOpen = true
	return SettleArrived, "Llegamos "+destination(c.state.CurrentFloor)+". Puertas abriéndose."
}

// Dismiss clears an asserted emergency. It reports false when there was
// nothing to dismiss.
func (c *Cab) Dismiss() (bool, string) {
	if !c.state.Emergency {
		return false, ""
	}
	c.state.Emergency = false
	return true, "Emergencia desactivada. El ascensor vuelve a operar normalmente."
}

// SetMaxFloor changes the building height. The value is clamped to
// [MinMaxFloor, MaxMaxFloor]; the current and target floors follow.
// SetMaxFloor는 최고 층을 변경하고 현재 층과 목표 층을 범위 내로 보정합니다.
func (c *Cab) SetMaxFloor(n int) int {
	c.state.MaxFloor = command.Clamp(n, MinMaxFloor, MaxMaxFloor)
	c.state.CurrentFloor = c.clamp(c.state.CurrentFloor)
	if c.state.TargetFloor != nil {
		t := c.clamp(*c.state.TargetFloor)
		c.state.TargetFloor = &t
	}
	return c.state.MaxFloor
}

// SetListening mirrors the voice capture flag.
func (c *Cab) SetListening(on bool) {
	c.state.Listening = on
}

// HasPendingTarget reports whether a movement sequence should be scheduled.
func (c *Cab) HasPendingTarget() bool {
	return c.state.TargetFloor != nil && !c.state.Emergency
}

func (c *Cab) clamp(floor int) int {
	return command.Clamp(floor, 0, c.state.MaxFloor)
}

// destination renders "al piso N" / "a planta baja".
func destination(floor int) string {
	if floor == 0 {
		return "a planta baja"
	}
	return fmt.Sprintf("al piso %d", floor)
}

// location renders "en el piso N" / "en planta baja".
func location(floor int) string {
	if floor == 0 {
		return "en planta baja"
	}
	return fmt.Sprintf("en el piso %d", floor)
}
