// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package icafix

import (
	"strconv"
	"strings"

	"github.com/choria-io/hcpfix/cmdline"
	"github.com/choria-io/hcpfix/gear"
	"github.com/choria-io/hcpfix/model"
)

// Options are the hcp_fix settings taken from the gear configuration
type Options struct {
	HighPass            any    `json:"HighPassFilter"`
	MotionRegression    bool   `json:"do_motion_regression"`
	TrainingFile        string `json:"TrainingFile"`
	FixThreshold        any    `json:"FixThreshold"`
	DeleteIntermediates bool   `json:"DeleteIntermediates"`
}

// OptionsFromGear reads the hcp_fix options from the gear configuration
func OptionsFromGear(g *gear.Gear) Options {
	return Options{
		HighPass:            g.Config("HighPassFilter").Value(),
		MotionRegression:    g.Config("do_motion_regression").Bool(),
		TrainingFile:        g.Config("TrainingFile").String(),
		FixThreshold:        g.Config("FixThreshold").Value(),
		DeleteIntermediates: g.Config("DeleteIntermediates").Bool(),
	}
}

// Params are the positional hcp_fix arguments for input, the order is significant
func (o Options) Params(input string) *model.Params {
	return model.NewParams(
		model.Param{Name: "input", Value: input},
		model.Param{Name: "highpass", Value: o.HighPass},
		model.Param{Name: "mot_reg", Value: upperBool(o.MotionRegression)},
		model.Param{Name: "training_file", Value: o.TrainingFile},
		model.Param{Name: "fix_threshold", Value: o.FixThreshold},
		model.Param{Name: "del_intermediate", Value: upperBool(o.DeleteIntermediates)},
	)
}

// Command builds the hcp_fix command line for input, hcpFix may carry leading arguments
func (o Options) Command(hcpFix string, input string) (model.Command, error) {
	base, err := cmdline.Parse(hcpFix)
	if err != nil {
		return nil, err
	}

	return cmdline.Build(base, o.Params(input), false)
}

func upperBool(b bool) string {
	return strings.ToUpper(strconv.FormatBool(b))
}
