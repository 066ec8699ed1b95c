// Copyright 2025 Embedos Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package supervisor

import (
	"context"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Lifecycle states of one recovery run.
const (
	stateInit       = "init"
	stateEvaluating = "evaluating"
	stateDormant    = "dormant"
	stateLaunching  = "launching"
	stateMonitoring = "monitoring"
	stateSucceeded  = "succeeded"
	stateFailed     = "failed"
	stateRebooting  = "rebooting"
	stateHolding    = "holding"
)

// Lifecycle events.
const (
	eventEvaluate  = "evaluate"
	eventStandDown = "stand_down"
	eventLaunch    = "launch"
	eventMonitor   = "monitor"
	eventSucceed   = "succeed"
	eventFail      = "fail"
	eventReboot    = "reboot"
	eventHold      = "hold"
)

// newMachine builds the run lifecycle. The machine is a guard rail and an
// audit trail: every transition is logged, and an impossible transition
// (a bug) surfaces as an event error instead of silently skipping a phase.
func newMachine(log *zap.SugaredLogger) *fsm.FSM {
	return fsm.NewFSM(
		stateInit,
		fsm.Events{
			{Name: eventEvaluate, Src: []string{stateInit}, Dst: stateEvaluating},
			{Name: eventStandDown, Src: []string{stateEvaluating}, Dst: stateDormant},
			{Name: eventLaunch, Src: []string{stateEvaluating}, Dst: stateLaunching},
			{Name: eventMonitor, Src: []string{stateLaunching}, Dst: stateMonitoring},
			{Name: eventSucceed, Src: []string{stateMonitoring}, Dst: stateSucceeded},
			{Name: eventFail, Src: []string{stateEvaluating, stateLaunching, stateMonitoring}, Dst: stateFailed},
			{Name: eventReboot, Src: []string{stateSucceeded}, Dst: stateRebooting},
			{Name: eventHold, Src: []string{stateFailed}, Dst: stateHolding},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Infof("Recovery state: %s -> %s (%s)", e.Src, e.Dst, e.Event)
			},
		},
	)
}

// transition fires an event and logs the error if the transition is not
// allowed. The run keeps going; the machine observes, it does not steer.
func transition(ctx context.Context, machine *fsm.FSM, event string, log *zap.SugaredLogger) {
	if err := machine.Event(ctx, event); err != nil {
		log.Errorf("Invalid lifecycle transition %q from %s: %s", event, machine.Current(), err)
	}
}
