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

package outcome_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/embedos/update-recovery/pkg/outcome"
)

var _ = Describe("Code", func() {
	// The identifiers name splash units and the numeric values are the
	// process exit contract, so both are frozen.
	DescribeTable("keeps its identifiers and exit codes stable",
		func(code outcome.Code, name string, exitCode int) {
			Expect(code.String()).To(Equal(name))
			Expect(code.ExitCode()).To(Equal(exitCode))
		},
		Entry("success", outcome.Success, "success", 0),
		Entry("launch failure", outcome.LaunchFailure, "launch-failure", 1),
		Entry("network unreachable", outcome.NetworkUnreachable, "network-unreachable", 2),
		Entry("network retries exceeded", outcome.NetworkRetriesExceeded, "network-retries-exceeded", 3),
		Entry("progress timeout", outcome.ProgressTimeout, "progress-timeout", 4),
		Entry("system timeout", outcome.SystemTimeout, "system-timeout", 5),
	)

	It("treats everything except success as a failure", func() {
		Expect(outcome.Success.IsFailure()).To(BeFalse())
		Expect(outcome.LaunchFailure.IsFailure()).To(BeTrue())
		Expect(outcome.SystemTimeout.IsFailure()).To(BeTrue())
	})

	It("names an unknown code without panicking", func() {
		Expect(outcome.Code(99).String()).To(Equal("unknown"))
	})
})
