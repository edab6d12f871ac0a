// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package templates

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTemplates(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Templates")
}

var _ = Describe("Templates", func() {
	var env *Env

	BeforeEach(func() {
		env = &Env{
			Facts: map[string]any{
				"host": map[string]any{"info": map[string]any{"hostname": "node1"}},
			},
			Config: map[string]any{
				"Subject":   "100307",
				"HighPass":  2000,
				"Threshold": 10.5,
			},
			Environ: map[string]string{
				"HCPPIPEDIR": "/opt/HCP",
			},
		}
	})

	Describe("ResolveTemplateString", func() {
		It("Should return plain strings unchanged", func() {
			Expect(ResolveTemplateString("", env)).To(Equal(""))
			Expect(ResolveTemplateString("/usr/bin/hcp_fix", env)).To(Equal("/usr/bin/hcp_fix"))
		})

		It("Should resolve expressions against the environment", func() {
			Expect(ResolveTemplateString("{{ environ.HCPPIPEDIR }}/ICAFIX/hcp_fix", env)).To(Equal("/opt/HCP/ICAFIX/hcp_fix"))
			Expect(ResolveTemplateString("{{ config.Subject }}-{{ config.HighPass }}", env)).To(Equal("100307-2000"))
			Expect(ResolveTemplateString("{{ facts.host.info.hostname }}", env)).To(Equal("node1"))
		})

		It("Should render missing map keys as empty", func() {
			Expect(ResolveTemplateString("x{{ environ.MISSING }}y", env)).To(Equal("xy"))
		})

		It("Should fail for invalid expressions", func() {
			_, err := ResolveTemplateString("{{ 1 + }}", env)
			Expect(err).To(MatchError(ContainSubstring("expr compile error")))
		})

		It("Should support a nil environment", func() {
			Expect(ResolveTemplateString("{{ 1 + 2 }}", nil)).To(Equal("3"))
		})
	})

	Describe("lookup", func() {
		It("Should find values by path", func() {
			Expect(ResolveTemplateString(`{{ lookup("environ.HCPPIPEDIR") }}`, env)).To(Equal("/opt/HCP"))
			Expect(ResolveTemplateString(`{{ lookup("config.HighPass") * 2 }}`, env)).To(Equal("4000"))
			Expect(ResolveTemplateString(`{{ lookup("config.Threshold") }}`, env)).To(Equal("10.5"))
		})

		It("Should use the default for missing values", func() {
			Expect(ResolveTemplateString(`{{ lookup("environ.FSLDIR", "/usr/local/fsl") }}/bin`, env)).To(Equal("/usr/local/fsl/bin"))
			Expect(ResolveTemplateString(`[{{ lookup("environ.FSLDIR") }}]`, env)).To(Equal("[]"))
		})

		It("Should validate arguments", func() {
			_, err := ResolveTemplateString(`{{ lookup(1) }}`, env)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ResolveMap", func() {
		It("Should resolve nested strings", func() {
			m := map[string]any{
				"hcp_fix": "{{ environ.HCPPIPEDIR }}/ICAFIX/hcp_fix",
				"stream":  true,
				"nested": map[string]any{
					"subject": "{{ config.Subject }}",
				},
			}

			Expect(ResolveMap(m, env)).To(Succeed())
			Expect(m["hcp_fix"]).To(Equal("/opt/HCP/ICAFIX/hcp_fix"))
			Expect(m["stream"]).To(BeTrue())
			Expect(m["nested"].(map[string]any)["subject"]).To(Equal("100307"))
		})

		It("Should report the failing key", func() {
			err := ResolveMap(map[string]any{"hcp_fix": "{{ 1 + }}"}, env)
			Expect(err).To(MatchError(ContainSubstring("hcp_fix: ")))
		})
	})

	It("Should detect templates", func() {
		Expect(HasTemplate("{{ x }}")).To(BeTrue())
		Expect(HasTemplate("x")).To(BeFalse())
	})
})
