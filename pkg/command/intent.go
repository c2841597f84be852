// Package command turns free-text elevator commands (typed or transcribed
// from speech) into structured intents.
// 이 패키지는 자유 형식의 음성/텍스트 명령을 구조화된 Intent로 변환합니다.
package command

import "fmt"

// IntentType identifies the recognized command.
// IntentType은 인식된 명령의 종류를 나타냅니다.
type IntentType int

const (
	IntentUnrecognized IntentType = iota // 인식 불가
	IntentMoveToFloor                    // 특정 층으로 이동
	IntentStepUp                         // 한 층 위로
	IntentStepDown                       // 한 층 아래로
	IntentOpenDoors                      // 문 열기
	IntentCloseDoors                     // 문 닫기
	IntentCancel                         // 이동 취소
	IntentEmergency                      // 비상
	IntentHelp                           // 도움말
)

func (t IntentType) String() string {
	return [...]string{
		"Unrecognized",
		"MoveToFloor",
		"StepUp",
		"StepDown",
		"OpenDoors",
		"CloseDoors",
		"Cancel",
		"Emergency",
		"Help",
	}[t]
}

// Intent is a single recognized command. Floor is only meaningful for
// IntentMoveToFloor.
// Intent는 발화 하나에서 도출된 명령입니다. 상태 머신이 즉시 소비합니다.
type Intent struct {
	Type  IntentType
	Floor int
}

// MoveTo builds a MoveToFloor intent.
func MoveTo(floor int) Intent {
	return Intent{Type: IntentMoveToFloor, Floor: floor}
}

func (i Intent) String() string {
	if i.Type == IntentMoveToFloor {
		return fmt.Sprintf("%s(%d)", i.Type, i.Floor)
	}
	return i.Type.String()
}

// MovesCab reports whether the intent asks the cab to travel.
// 비상 상태에서 무시되는 이동 명령인지 확인합니다.
func (i Intent) MovesCab() bool {
	switch i.Type {
	case IntentMoveToFloor, IntentStepUp, IntentStepDown:
		return true
	}
	return false
}

// Reply returns the guidance phrase spoken for intents that do not change
// the elevator state on their own. Other intents return "".
// Reply는 상태 변화가 없는 명령(도움말, 인식 불가)에 대한 안내 문구를 반환합니다.
func Reply(i Intent) string {
	switch i.Type {
	case IntentHelp:
		return "Podés decir: piso cinco, subí, bajá, abrir puertas, cerrar puertas, cancelar o emergencia."
	case IntentUnrecognized:
		return "No entendí el comando. Probá con \"piso 5\" o decí \"ayuda\"."
	}
	return ""
}
