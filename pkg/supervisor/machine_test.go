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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

var _ = Describe("lifecycle machine", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	walk := func(events ...string) string {
		machine := newMachine(zap.NewNop().Sugar())
		for _, event := range events {
			Expect(machine.Event(ctx, event)).To(Succeed(), "event %q from %s", event, machine.Current())
		}

		return machine.Current()
	}

	It("records the full success lifecycle through to rebooting", func() {
		state := walk(eventEvaluate, eventLaunch, eventMonitor, eventSucceed, eventReboot)
		Expect(state).To(Equal(stateRebooting))
	})

	It("records a monitored failure through to holding", func() {
		state := walk(eventEvaluate, eventLaunch, eventMonitor, eventFail, eventHold)
		Expect(state).To(Equal(stateHolding))
	})

	It("records the conflict short-circuit from evaluating", func() {
		state := walk(eventEvaluate, eventFail, eventHold)
		Expect(state).To(Equal(stateHolding))
	})

	It("records the stand-down on a healthy boot", func() {
		state := walk(eventEvaluate, eventStandDown)
		Expect(state).To(Equal(stateDormant))
	})

	It("rejects rebooting without a successful run", func() {
		machine := newMachine(zap.NewNop().Sugar())
		Expect(machine.Event(ctx, eventEvaluate)).To(Succeed())
		Expect(machine.Event(ctx, eventReboot)).NotTo(Succeed())
	})
})
