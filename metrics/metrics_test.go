// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMetrics(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Metrics")
}

var _ = Describe("Metrics", func() {
	It("Should register more than once without panic", func() {
		Expect(RegisterMetrics).ToNot(Panic())
		Expect(RegisterMetrics).ToNot(Panic())
	})

	It("Should write the text file", func() {
		RegisterMetrics()
		CommandTotalCount.WithLabelValues("hcp_fix").Inc()
		ArchiveFiles.WithLabelValues("hcpfix_results.zip").Set(4)

		path := filepath.Join(GinkgoT().TempDir(), "hcpfix.prom")
		Expect(WriteTextfile(path)).To(Succeed())

		content, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(ContainSubstring(`choria_hcpfix_command_total_count{command="hcp_fix"} 1`))
		Expect(string(content)).To(ContainSubstring(`choria_hcpfix_archive_file_count{archive="hcpfix_results.zip"} 4`))
	})
})
