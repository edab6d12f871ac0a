// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package icafix

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/choria-io/hcpfix/model"
)

var _ = Describe("Files", func() {
	var work string

	mkdir := func(parts ...string) string {
		dir := filepath.Join(append([]string{work}, parts...)...)
		Expect(os.MkdirAll(dir, 0755)).To(Succeed())
		return dir
	}

	touch := func(parts ...string) string {
		file := filepath.Join(append([]string{work}, parts...)...)
		Expect(os.MkdirAll(filepath.Dir(file), 0755)).To(Succeed())
		Expect(os.WriteFile(file, []byte("x"), 0644)).To(Succeed())
		return file
	}

	BeforeEach(func() {
		work = GinkgoT().TempDir()
	})

	Describe("FunctionalFiles", func() {
		It("Should find task directories", func() {
			mkdir("100307", "MNINonLinear", "Results", "tfMRI_task_RL")
			mkdir("100307", "MNINonLinear", "Results", "tfMRI_task_LR")
			mkdir("100307", "MNINonLinear", "Results", "rfMRI_REST1")
			touch("100307", "MNINonLinear", "Results", "task_notes.txt")

			files, err := FunctionalFiles(work)
			Expect(err).ToNot(HaveOccurred())
			Expect(files).To(Equal([]string{
				filepath.Join(work, "100307", "MNINonLinear", "Results", "tfMRI_task_LR", "tfMRI_task_LR.nii.gz"),
				filepath.Join(work, "100307", "MNINonLinear", "Results", "tfMRI_task_RL", "tfMRI_task_RL.nii.gz"),
			}))
		})

		It("Should return an empty list when nothing matches", func() {
			files, err := FunctionalFiles(work)
			Expect(err).ToNot(HaveOccurred())
			Expect(files).To(BeEmpty())
		})
	})

	Describe("FunctionalFilesFromListing", func() {
		It("Should find task directories in archive listings", func() {
			files := FunctionalFilesFromListing("/work", []string{
				"100307/MNINonLinear/Results/tfMRI_task_RL/tfMRI_task_RL.nii.gz",
				"100307/MNINonLinear/Results/tfMRI_task_RL/Movement_Regressors.txt",
				"./100307/MNINonLinear/Results/tfMRI_task_LR/tfMRI_task_LR.nii.gz",
				"100307/MNINonLinear/Results/rfMRI_REST1/rfMRI_REST1.nii.gz",
				"100307/MNINonLinear/Results/task.txt",
				"100307/T1w/task/x.nii.gz",
			})

			Expect(files).To(Equal([]string{
				"/work/100307/MNINonLinear/Results/tfMRI_task_LR/tfMRI_task_LR.nii.gz",
				"/work/100307/MNINonLinear/Results/tfMRI_task_RL/tfMRI_task_RL.nii.gz",
			}))
		})
	})

	Describe("ResultFiles", func() {
		BeforeEach(func() {
			touch("100307", "MNINonLinear", "Results", "tfMRI_task_RL", "tfMRI_task_RL_hp2000_clean.nii.gz")
			touch("100307", "MNINonLinear", "Results", "tfMRI_task_RL", "tfMRI_task_RL_hp2000.nii.gz")
			mkdir("100307", "MNINonLinear", "Results", "tfMRI_task_RL", "tfMRI_task_RL_hp2000.ica")
		})

		It("Should include intermediate directories by default", func() {
			files, err := ResultFiles(work, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(files).To(HaveLen(2))
			Expect(files).To(ContainElement(HaveSuffix("tfMRI_task_RL_hp2000.ica")))
			Expect(files).To(ContainElement(HaveSuffix("tfMRI_task_RL_hp2000_clean.nii.gz")))
		})

		It("Should skip intermediates when they are deleted", func() {
			files, err := ResultFiles(work, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(files).To(HaveLen(1))
			Expect(files[0]).To(HaveSuffix("tfMRI_task_RL_hp2000_clean.nii.gz"))
		})
	})
})

var _ = Describe("Options", func() {
	It("Should build the hcp_fix command in order", func() {
		opts := Options{
			HighPass:            float64(2000),
			MotionRegression:    true,
			TrainingFile:        "HCP_hp2000.RData",
			FixThreshold:        float64(10),
			DeleteIntermediates: false,
		}

		cmd, err := opts.Command("/opt/HCP-Pipelines/ICAFIX/hcp_fix", "/work/sub/func.nii.gz")
		Expect(err).ToNot(HaveOccurred())
		Expect(cmd).To(Equal(model.Command{
			"/opt/HCP-Pipelines/ICAFIX/hcp_fix", "/work/sub/func.nii.gz", "2000", "TRUE", "HCP_hp2000.RData", "10", "FALSE",
		}))

		Expect(opts.Params("x").Names()).To(Equal([]string{"input", "highpass", "mot_reg", "training_file", "fix_threshold", "del_intermediate"}))
	})

	It("Should fail for missing values", func() {
		_, err := Options{TrainingFile: "x"}.Command("hcp_fix", "in.nii.gz")
		Expect(err).To(MatchError(model.ErrUnsupportedParameter))
	})
})
