// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmdline

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/choria-io/hcpfix/model"
)

func TestCmdline(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmdline")
}

var _ = Describe("Build", func() {
	var base model.Command

	BeforeEach(func() {
		base = model.NewCommand("tool")
	})

	build := func(includeKeys bool, params ...model.Param) model.Command {
		cmd, err := Build(base, model.NewParams(params...), includeKeys)
		Expect(err).ToNot(HaveOccurred())
		return cmd
	}

	Describe("short flags", func() {
		It("Should emit the flag and value as separate tokens", func() {
			Expect(build(true, model.Param{Name: "o", Value: "out.txt"})).To(Equal(model.Command{"tool", "-o", "out.txt"}))
		})

		It("Should emit only the flag for empty values", func() {
			Expect(build(true, model.Param{Name: "v", Value: ""})).To(Equal(model.Command{"tool", "-v"}))
		})

		It("Should keep mapping order across many flags", func() {
			cmd := build(true,
				model.Param{Name: "z", Value: 1},
				model.Param{Name: "a", Value: ""},
				model.Param{Name: "m", Value: "x"},
			)
			Expect(cmd).To(Equal(model.Command{"tool", "-z", "1", "-a", "-m", "x"}))
		})

		It("Should emit only the value when keys are excluded", func() {
			Expect(build(false, model.Param{Name: "o", Value: "out.txt"})).To(Equal(model.Command{"tool", "out.txt"}))
			Expect(build(false, model.Param{Name: "o", Value: ""})).To(Equal(model.Command{"tool"}))
		})

		It("Should render booleans as values", func() {
			Expect(build(true, model.Param{Name: "b", Value: true})).To(Equal(model.Command{"tool", "-b", "true"}))
		})
	})

	Describe("long flags", func() {
		It("Should emit presence only booleans", func() {
			Expect(build(true, model.Param{Name: "verbose", Value: true})).To(Equal(model.Command{"tool", "--verbose"}))
			Expect(build(true, model.Param{Name: "verbose", Value: false})).To(Equal(model.Command{"tool"}))
		})

		It("Should never emit booleans without keys", func() {
			Expect(build(false, model.Param{Name: "verbose", Value: true})).To(Equal(model.Command{"tool"}))
		})

		It("Should join keys and values", func() {
			Expect(build(true, model.Param{Name: "threshold", Value: 5})).To(Equal(model.Command{"tool", "--threshold=5"}))
		})

		It("Should emit the bare flag for empty values", func() {
			Expect(build(true, model.Param{Name: "threshold", Value: ""})).To(Equal(model.Command{"tool", "--threshold"}))
		})

		It("Should emit only values when keys are excluded", func() {
			Expect(build(false, model.Param{Name: "input", Value: "foo.nii.gz"})).To(Equal(model.Command{"tool", "foo.nii.gz"}))
		})

		It("Should emit nothing for empty values without keys", func() {
			Expect(build(false, model.Param{Name: "input", Value: ""})).To(Equal(model.Command{"tool"}))
		})

		It("Should include zero values", func() {
			Expect(build(true, model.Param{Name: "count", Value: 0})).To(Equal(model.Command{"tool", "--count=0"}))
			Expect(build(false, model.Param{Name: "count", Value: 0})).To(Equal(model.Command{"tool", "0"}))
			Expect(build(true, model.Param{Name: "c", Value: 0.0})).To(Equal(model.Command{"tool", "-c", "0"}))
		})

		It("Should not escape values", func() {
			Expect(build(true, model.Param{Name: "name", Value: "a b;c"})).To(Equal(model.Command{"tool", "--name=a b;c"}))
		})
	})

	Describe("ordering and reuse", func() {
		It("Should build the hcp_fix positional command", func() {
			params := model.NewParams(
				model.Param{Name: "input", Value: "/data/sub1/func.nii.gz"},
				model.Param{Name: "highpass", Value: 2000},
				model.Param{Name: "mot_reg", Value: "TRUE"},
				model.Param{Name: "fix_threshold", Value: 10},
			)

			cmd, err := Build(model.NewCommand("hcp_fix"), params, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(cmd).To(Equal(model.Command{"hcp_fix", "/data/sub1/func.nii.gz", "2000", "TRUE", "10"}))
		})

		It("Should not modify or duplicate a reused base", func() {
			shared := make(model.Command, 1, 10)
			shared[0] = "tool"
			params := model.NewParams(model.Param{Name: "a", Value: "1"})

			first, err := Build(shared, params, true)
			Expect(err).ToNot(HaveOccurred())
			second, err := Build(shared, params, true)
			Expect(err).ToNot(HaveOccurred())

			Expect(shared).To(Equal(model.Command{"tool"}))
			Expect(first).To(Equal(model.Command{"tool", "-a", "1"}))
			Expect(second).To(Equal(first))

			first[0] = "changed"
			Expect(second[0]).To(Equal("tool"))
		})

		It("Should keep the original position when a parameter is set twice", func() {
			params := model.NewParams().Set("first", 1).Set("second", 2).Set("first", 3)
			cmd, err := Build(base, params, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(cmd).To(Equal(model.Command{"tool", "--first=3", "--second=2"}))
		})

		It("Should handle nil parameters", func() {
			cmd, err := Build(base, nil, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(cmd).To(Equal(model.Command{"tool"}))
		})
	})

	Describe("unsupported values", func() {
		It("Should fail for unsupported types", func() {
			for _, v := range []any{nil, []string{"a"}, map[string]any{}, struct{}{}, math.NaN()} {
				_, err := Build(base, model.NewParams(model.Param{Name: "bad", Value: v}), true)
				Expect(err).To(MatchError(model.ErrUnsupportedParameter))

				var berr *model.BuildError
				Expect(errors.As(err, &berr)).To(BeTrue())
				Expect(berr.Key).To(Equal("bad"))
			}
		})

		It("Should fail for empty names", func() {
			_, err := Build(base, model.NewParams(model.Param{Name: "", Value: "x"}), true)
			Expect(err).To(MatchError(model.ErrEmptyParameterName))
		})
	})
})

var _ = Describe("FormatValue", func() {
	It("Should format numbers without trailing zeros", func() {
		for v, expected := range map[any]string{
			2000.0:            "2000",
			0.5:               "0.5",
			float32(1.25):     "1.25",
			int64(-3):         "-3",
			uint8(7):          "7",
			json.Number("10"): "10",
			"TRUE":            "TRUE",
			false:             "false",
		} {
			Expect(FormatValue("k", v)).To(Equal(expected))
		}
	})
})

var _ = Describe("Parse", func() {
	It("Should split quoted commands", func() {
		cmd, err := Parse(`/opt/fsl/bin/fsl_sub -l "/work/my logs" hcp_fix`)
		Expect(err).ToNot(HaveOccurred())
		Expect(cmd).To(Equal(model.Command{"/opt/fsl/bin/fsl_sub", "-l", "/work/my logs", "hcp_fix"}))
	})

	It("Should reject empty commands", func() {
		_, err := Parse("   ")
		Expect(err).To(MatchError(model.ErrEmptyCommand))
	})

	It("Should reject unterminated quotes", func() {
		_, err := Parse(`tool "unterminated`)
		Expect(err).To(HaveOccurred())
	})
})
